package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) FindSessionByJTI(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, tokenHash string, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

func revokeUserSessions(tx *gorm.DB, userID uint, now time.Time) error {
	return tx.Model(&models.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// PurgeSessions deletes expired sessions and sessions revoked before revokedBefore.
func (r *GormRepo) PurgeSessions(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND revoked_at < ?)", now, true, revokedBefore).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
