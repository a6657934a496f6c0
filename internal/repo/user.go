package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type UserFilter struct {
	Search string
	Role   string
	Limit  int
	Offset int
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.User{}, id)
}

func (r *GormRepo) UpdateUserProfile(ctx context.Context, id uint, updates map[string]any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, f UserFilter) (int64, []models.User, error) {
	scope := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.User{})
		if f.Search != "" {
			p := likePattern(f.Search)
			q = q.Where("LOWER(first_name) LIKE ?"+likeEscape+" OR LOWER(last_name) LIKE ?"+likeEscape+" OR LOWER(email) LIKE ?"+likeEscape, p, p, p)
		}
		if f.Role != "" {
			q = q.Where("role = ?", f.Role)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.User, 0, f.Limit)
	if err := scope().Order("created_at DESC").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ChangeUserRole moves a user from one role to another and revokes their sessions.
func (r *GormRepo) ChangeUserRole(ctx context.Context, id uint, from, to string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ? AND role = ?", id, from).Update("role", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRoleChanged
		}
		if err := revokeUserSessions(tx, id, now); err != nil {
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
