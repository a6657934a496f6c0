package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type BookingFilter struct {
	UserID    *uint
	ListingID *uint
	Status    string
	Limit     int
	Offset    int
}

func PaymentDescription(bookingID uint) string {
	return fmt.Sprintf("Payment for booking #%d", bookingID)
}

func RefundDescription(bookingID uint) string {
	return fmt.Sprintf("Refund for booking #%d", bookingID)
}

func CancellationRefundDescription(title string) string {
	return fmt.Sprintf("Refund for cancelled booking at %s", title)
}

func ledgerRow(b *models.Booking, amount int64, kind, description string) *models.Transaction {
	bookingID, listingID := b.ID, b.ListingID
	return &models.Transaction{
		UserID:      b.UserID,
		BookingID:   &bookingID,
		ListingID:   &listingID,
		Amount:      amount,
		Type:        kind,
		Description: description,
	}
}

func holdListing(tx *gorm.DB, listingID uint) error {
	res := tx.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.ListingAvailable).
		Update("status", models.ListingBooked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrListingBooked
	}
	return nil
}

// releaseListing frees the listing held by booking bookingID, unless another confirmed
// stay that has not checked out by now holds it.
func releaseListing(tx *gorm.DB, listingID, bookingID uint, now time.Time) error {
	var l models.Listing
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&l, listingID).Error; err != nil {
		return err
	}

	holder := tx.Model(&models.Booking{}).Select("1").
		Where("listing_id = ? AND id <> ? AND status = ? AND check_out_date > ?",
			listingID, bookingID, models.BookingConfirmed, now)
	return tx.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.ListingBooked).
		Where("NOT EXISTS (?)", holder).
		Update("status", models.ListingAvailable).Error
}

// moveBooking flips the booking status only if it is still in from.
func moveBooking(tx *gorm.DB, b *models.Booking, from string, updates map[string]any) error {
	res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", b.ID, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur models.Booking
		if err := tx.Select("status").First(&cur, b.ID).Error; err != nil {
			return err
		}
		return &StateError{Current: cur.Status}
	}
	return tx.Preload("Listing").First(b, b.ID).Error
}

func lockBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking inserts the booking. A confirmed booking also holds the listing
// and writes the charge row in the same transaction.
func (r *GormRepo) CreateBooking(ctx context.Context, b *models.Booking) (*models.Transaction, error) {
	var charge *models.Transaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, b.ListingID).Error; err != nil {
			return err
		}
		if l.Status != models.ListingAvailable {
			return ErrListingBooked
		}

		if b.Status == models.BookingConfirmed {
			if err := holdListing(tx, l.ID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return err
		}

		if b.Status == models.BookingConfirmed {
			charge = ledgerRow(b, -b.Total, models.TransactionBooking, PaymentDescription(b.ID))
			if err := tx.Create(charge).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Listing").First(b, b.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (r *GormRepo) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.DB.WithContext(ctx).Preload("Listing").First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) ListBookings(ctx context.Context, f BookingFilter) (int64, []models.Booking, error) {
	scope := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Booking{})
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.ListingID != nil {
			q = q.Where("listing_id = ?", *f.ListingID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Booking, 0, f.Limit)
	if err := scope().Preload("Listing").
		Order("created_at DESC").Order("id DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ConfirmBooking moves a pending booking to confirmed, holding the listing and charging the user.
func (r *GormRepo) ConfirmBooking(ctx context.Context, id uint) (*models.Booking, *models.Transaction, error) {
	var (
		b      *models.Booking
		charge *models.Transaction
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if b, err = lockBooking(tx, id); err != nil {
			return err
		}
		if b.Status != models.BookingPending {
			return &StateError{Current: b.Status}
		}
		if err := holdListing(tx, b.ListingID); err != nil {
			return err
		}
		if err := moveBooking(tx, b, models.BookingPending, map[string]any{"status": models.BookingConfirmed}); err != nil {
			return err
		}
		charge = ledgerRow(b, -b.Total, models.TransactionBooking, PaymentDescription(b.ID))
		return tx.Create(charge).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return b, charge, nil
}

// CancelBooking cancels a pending or confirmed booking. Only a confirmed booking was
// charged, so only it releases the listing and gets a refund row.
func (r *GormRepo) CancelBooking(ctx context.Context, id uint) (*models.Booking, *models.Transaction, error) {
	var (
		b      *models.Booking
		refund *models.Transaction
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if b, err = lockBooking(tx, id); err != nil {
			return err
		}

		switch b.Status {
		case models.BookingPending:
			return moveBooking(tx, b, models.BookingPending, map[string]any{"status": models.BookingCancelled})
		case models.BookingConfirmed:
			if err := moveBooking(tx, b, models.BookingConfirmed, map[string]any{"status": models.BookingCancelled}); err != nil {
				return err
			}
			if err := releaseListing(tx, b.ListingID, b.ID, r.now()); err != nil {
				return err
			}
			title := ""
			if b.Listing != nil {
				title = b.Listing.Title
			}
			refund = ledgerRow(b, b.Total, models.TransactionRefund, CancellationRefundDescription(title))
			if err := tx.Create(refund).Error; err != nil {
				return err
			}
			return tx.Preload("Listing").First(b, b.ID).Error
		default:
			return &StateError{Current: b.Status}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return b, refund, nil
}

// RefundBooking moves a confirmed booking to refunded exactly once.
func (r *GormRepo) RefundBooking(ctx context.Context, id uint, now time.Time) (*models.Booking, *models.Transaction, error) {
	var (
		b      *models.Booking
		refund *models.Transaction
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if b, err = lockBooking(tx, id); err != nil {
			return err
		}
		if err := moveBooking(tx, b, models.BookingConfirmed, map[string]any{
			"status":      models.BookingRefunded,
			"refunded_at": now,
		}); err != nil {
			return err
		}
		if err := releaseListing(tx, b.ListingID, b.ID, now); err != nil {
			return err
		}
		refund = ledgerRow(b, b.Total, models.TransactionRefund, RefundDescription(b.ID))
		if err := tx.Create(refund).Error; err != nil {
			return err
		}
		return tx.Preload("Listing").First(b, b.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return b, refund, nil
}
