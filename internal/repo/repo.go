package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExist     = errors.New("user already exist")
	ErrListingBooked        = errors.New("listing already booked")
	ErrListingHasActiveStay = errors.New("listing has an active booking")
	ErrRoleChanged          = errors.New("role changed concurrently")
)

// StateError reports a booking whose status did not allow the requested change.
type StateError struct {
	Current string
}

func (e *StateError) Error() string { return "booking is " + e.Current }

type GormRepo struct {
	DB *gorm.DB
	// Clock decides which confirmed stays are still running. Nil means time.Now.
	Clock func() time.Time
}

func (r *GormRepo) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock().UTC()
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) exists(ctx context.Context, model any, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

const likeEscape = ` ESCAPE '\'`

func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(s) + "%"
}
