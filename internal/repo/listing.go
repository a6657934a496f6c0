package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type ListingFilter struct {
	Search string
	// IDs restricts the result to search-index hits when non-nil.
	IDs      []uint
	MinPrice *int64
	MaxPrice *int64
	Guests   *int
	Bedrooms *int
	UserID   *uint
	Status   string
	Featured bool
	Limit    int
	Offset   int
}

// activeBookings narrows q to bookings that still claim their listing at now:
// pending ones and confirmed stays that have not checked out yet.
func activeBookings(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where("(status = ? OR (status = ? AND check_out_date > ?))",
		models.BookingPending, models.BookingConfirmed, now)
}

func (r *GormRepo) listingQuery(ctx context.Context, f ListingFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Listing{})

	switch {
	case f.IDs != nil && len(f.IDs) == 0:
		q = q.Where("1 = 0")
	case f.IDs != nil:
		q = q.Where("id IN ?", f.IDs)
	case f.Search != "":
		p := likePattern(f.Search)
		q = q.Where("LOWER(title) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape, p, p)
	}
	if f.MinPrice != nil {
		q = q.Where("price_per_night >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price_per_night <= ?", *f.MaxPrice)
	}
	if f.Guests != nil {
		q = q.Where("num_guests >= ?", *f.Guests)
	}
	if f.Bedrooms != nil {
		q = q.Where("num_bedrooms >= ?", *f.Bedrooms)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Featured {
		active := activeBookings(r.DB.Model(&models.Booking{}).Select("listing_id"), r.now())
		q = q.Where("featured = ?", true).Where("id NOT IN (?)", active)
	}
	return q
}

func (r *GormRepo) ListListings(ctx context.Context, f ListingFilter) (int64, []models.Listing, error) {
	var total int64
	if err := r.listingQuery(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Listing, 0, f.Limit)
	if err := r.listingQuery(ctx, f).
		Order("created_at DESC").Order("id DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	var l models.Listing
	if err := r.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormRepo) CreateListing(ctx context.Context, l *models.Listing) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

// UpdateListing loads the listing under a row lock, applies mutate and saves it.
func (r *GormRepo) UpdateListing(ctx context.Context, id uint, mutate func(*models.Listing) error) (*models.Listing, error) {
	var l models.Listing
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, id).Error; err != nil {
			return err
		}
		if err := mutate(&l); err != nil {
			return err
		}
		return tx.Save(&l).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormRepo) DeleteListing(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, id).Error; err != nil {
			return err
		}

		var active int64
		if err := activeBookings(tx.Model(&models.Booking{}).Where("listing_id = ?", id), r.now()).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrListingHasActiveStay
		}

		if err := tx.Where("listing_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Listing{}, id).Error
	})
}

// ActiveBookings returns the pending booking or running confirmed stay of each listing,
// keyed by listing id.
func (r *GormRepo) ActiveBookings(ctx context.Context, listingIDs []uint) (map[uint]models.Booking, error) {
	out := make(map[uint]models.Booking, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}

	var items []models.Booking
	if err := activeBookings(r.DB.WithContext(ctx).Where("listing_id IN ?", listingIDs), r.now()).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, b := range items {
		if cur, ok := out[b.ListingID]; ok && cur.Status == models.BookingConfirmed {
			continue
		}
		out[b.ListingID] = b
	}
	return out, nil
}

type StatusCount struct {
	Status string
	Count  int64
}

func (r *GormRepo) CountListingsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.Listing{})
}

func (r *GormRepo) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.Booking{})
}

func (r *GormRepo) countByStatus(ctx context.Context, model any) (map[string]int64, error) {
	var rows []StatusCount
	if err := r.DB.WithContext(ctx).Model(model).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// ReleaseFinishedStays marks booked listings available once no confirmed booking
// on them checks out after now, and returns the released listings.
func (r *GormRepo) ReleaseFinishedStays(ctx context.Context, now time.Time) ([]models.Listing, error) {
	var released []models.Listing
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holding := tx.Model(&models.Booking{}).
			Select("listing_id").
			Where("status = ? AND check_out_date > ?", models.BookingConfirmed, now)

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", models.ListingBooked).
			Where("id NOT IN (?)", holding).
			Find(&released).Error; err != nil {
			return err
		}
		if len(released) == 0 {
			return nil
		}

		ids := make([]uint, len(released))
		for i := range released {
			ids[i] = released[i].ID
		}
		if err := tx.Model(&models.Listing{}).Where("id IN ?", ids).
			Update("status", models.ListingAvailable).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Order("id").Find(&released).Error
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}
