package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type LedgerPage struct {
	Total   int64
	Balance int64
	Items   []models.Transaction
}

func (r *GormRepo) ListTransactions(ctx context.Context, userID *uint, limit, offset int) (*LedgerPage, error) {
	scope := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Transaction{})
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		return q
	}

	page := &LedgerPage{Items: make([]models.Transaction, 0, limit)}
	if err := scope().Count(&page.Total).Error; err != nil {
		return nil, err
	}
	if err := scope().Select("COALESCE(SUM(amount), 0)").Scan(&page.Balance).Error; err != nil {
		return nil, err
	}
	if err := scope().Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&page.Items).Error; err != nil {
		return nil, err
	}
	return page, nil
}

func (r *GormRepo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) BookingExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Booking{}, id)
}

func (r *GormRepo) ListingExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Listing{}, id)
}

// LedgerSum is the net of all rows: refunds minus charges.
func (r *GormRepo) LedgerSum(ctx context.Context) (int64, error) {
	var sum int64
	err := r.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
