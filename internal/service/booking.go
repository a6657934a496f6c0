package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

type BookingService struct {
	Repo     *repo.GormRepo
	Listings *ListingService
	Events   EventPublisher
	Mailer   Mailer
	Clock    Clock
}

// Caller is the authenticated user an operation runs for.
type Caller struct {
	ID   uint
	Role string
}

func (c Caller) IsStaff() bool {
	return c.Role == models.RoleAdmin || c.Role == models.RoleManager
}

func (s *BookingService) Quote(ctx context.Context, listingID uint, checkIn, checkOut string) (*transport.Quote, error) {
	_, _, nights, err := ParseStay(checkIn, checkOut, s.Clock.now())
	if err != nil {
		return nil, err
	}
	l, err := s.Repo.GetListing(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "LISTING_NOT_FOUND", "Listing not found")
		}
		return nil, err
	}
	q := Price(l.PricePerNight, nights)
	return &q, nil
}

func (s *BookingService) Create(ctx context.Context, req transport.CreateBookingRequest, caller Caller) (*models.Booking, *models.Transaction, error) {
	if req.ListingID == 0 {
		return nil, nil, invalid("MISSING_LISTING_ID", "Listing id is required")
	}
	in, out, nights, err := ParseStay(req.CheckInDate, req.CheckOutDate, s.Clock.now())
	if err != nil {
		return nil, nil, err
	}
	if err := ValidatePayment(req.PaymentMethod, req.Payment); err != nil {
		return nil, nil, err
	}

	status := req.Status
	if status == "" {
		status = models.BookingConfirmed
	}
	if status != models.BookingPending && status != models.BookingConfirmed {
		return nil, nil, invalid("INVALID_STATUS", "Status must be pending or confirmed")
	}

	listing, err := s.Repo.GetListing(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(ErrNotFound, "LISTING_NOT_FOUND", "Listing not found")
		}
		return nil, nil, err
	}
	if listing.Status == models.ListingBooked {
		return nil, nil, fail(ErrConflict, "LISTING_ALREADY_BOOKED", "This property has already been booked")
	}

	q := Price(listing.PricePerNight, nights)
	b := &models.Booking{
		ListingID:     listing.ID,
		UserID:        caller.ID,
		CheckInDate:   in,
		CheckOutDate:  out,
		NumNights:     q.NumNights,
		Subtotal:      q.Subtotal,
		Tax:           q.Tax,
		Total:         q.Total,
		Status:        status,
		PaymentMethod: req.PaymentMethod,
	}

	charge, err := s.Repo.CreateBooking(ctx, b)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, nil, fail(ErrNotFound, "LISTING_NOT_FOUND", "Listing not found")
		case errors.Is(err, repo.ErrListingBooked):
			return nil, nil, fail(ErrConflict, "LISTING_ALREADY_BOOKED", "This property has already been booked")
		}
		return nil, nil, err
	}

	s.afterWrite(ctx, "booking_created", b, charge)
	s.syncListing(ctx, b.ListingID, listing.Status)
	if b.Status == models.BookingConfirmed {
		s.mail(ctx, b, "Your booking is confirmed",
			fmt.Sprintf("Booking #%d for %d night(s) is confirmed. Total charged: %s.", b.ID, b.NumNights, FormatCents(b.Total)))
	}
	return b, charge, nil
}

func (s *BookingService) List(ctx context.Context, f repo.BookingFilter, caller Caller) (int64, []models.Booking, error) {
	if f.Status != "" && !models.IsBookingStatus(f.Status) {
		return 0, nil, invalid("INVALID_STATUS", "Unknown booking status")
	}
	if !caller.IsStaff() {
		id := caller.ID
		f.UserID = &id
	}
	return s.Repo.ListBookings(ctx, f)
}

// Get hides bookings of other users behind the same not-found error.
func (s *BookingService) Get(ctx context.Context, id uint, caller Caller) (*models.Booking, error) {
	b, err := s.Repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		}
		return nil, err
	}
	if b.UserID != caller.ID && !caller.IsStaff() {
		return nil, fail(ErrNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	}
	return b, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, id uint, status string, caller Caller) (*models.Booking, *models.Transaction, error) {
	if status == "" {
		return nil, nil, invalid("MISSING_STATUS", "Status is required")
	}
	if !models.IsBookingStatus(status) {
		return nil, nil, invalid("INVALID_STATUS", "Status must be pending, confirmed, cancelled or refunded")
	}

	current, err := s.Get(ctx, id, caller)
	if err != nil {
		return nil, nil, err
	}

	var (
		b  *models.Booking
		tx *models.Transaction
	)
	switch {
	case current.Status == models.BookingPending && status == models.BookingConfirmed:
		b, tx, err = s.Repo.ConfirmBooking(ctx, id)
	case status == models.BookingCancelled &&
		(current.Status == models.BookingPending || current.Status == models.BookingConfirmed):
		b, tx, err = s.Repo.CancelBooking(ctx, id)
	case current.Status == models.BookingConfirmed && status == models.BookingRefunded:
		return s.Refund(ctx, id, caller)
	default:
		return nil, nil, invalid("INVALID_TRANSITION",
			fmt.Sprintf("Cannot change booking from %s to %s", current.Status, status))
	}
	if err != nil {
		return nil, nil, s.translate(err, status)
	}

	s.afterWrite(ctx, "booking_"+b.Status, b, tx)
	s.syncListing(ctx, b.ListingID, listingStatus(current))
	if b.Status == models.BookingCancelled {
		body := fmt.Sprintf("Booking #%d has been cancelled.", b.ID)
		if tx != nil {
			body += fmt.Sprintf(" A refund of %s has been issued.", FormatCents(tx.Amount))
		}
		s.mail(ctx, b, "Your booking was cancelled", body)
	}
	return b, tx, nil
}

func (s *BookingService) Refund(ctx context.Context, id uint, caller Caller) (*models.Booking, *models.Transaction, error) {
	current, err := s.Get(ctx, id, caller)
	if err != nil {
		return nil, nil, err
	}

	b, tx, err := s.Repo.RefundBooking(ctx, id, s.Clock.now())
	if err != nil {
		return nil, nil, s.translate(err, models.BookingRefunded)
	}

	s.afterWrite(ctx, "booking_refunded", b, tx)
	s.syncListing(ctx, b.ListingID, listingStatus(current))
	s.mail(ctx, b, "Your refund is on its way",
		fmt.Sprintf("Booking #%d has been refunded: %s.", b.ID, FormatCents(tx.Amount)))
	return b, tx, nil
}

// translate maps repo errors of a move to target into coded errors. A StateError means
// the booking changed status while the move was in flight.
func (s *BookingService) translate(err error, target string) error {
	var st *repo.StateError
	switch {
	case errors.As(err, &st) && target != models.BookingRefunded:
		return invalid("INVALID_TRANSITION",
			fmt.Sprintf("Cannot change booking from %s to %s", st.Current, target))
	case errors.As(err, &st):
		switch st.Current {
		case models.BookingPending:
			return invalid("INVALID_STATUS", "Cannot refund a pending booking")
		case models.BookingRefunded:
			return invalid("INVALID_STATUS", "Booking has already been refunded")
		case models.BookingCancelled:
			return invalid("INVALID_STATUS", "Cannot refund a cancelled booking")
		}
		return invalid("INVALID_STATUS", "Booking is "+st.Current)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(ErrNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	case errors.Is(err, repo.ErrListingBooked):
		return fail(ErrConflict, "LISTING_ALREADY_BOOKED", "This property has already been booked")
	}
	return err
}

func (s *BookingService) afterWrite(ctx context.Context, kind string, b *models.Booking, tx *models.Transaction) {
	key := strconv.FormatUint(uint64(b.UserID), 10)
	publish(ctx, s.Events, TopicBookings, key, map[string]any{
		"type":      kind,
		"bookingID": b.ID,
		"listingID": b.ListingID,
		"userID":    b.UserID,
		"status":    b.Status,
		"total":     b.Total,
	})
	if tx != nil {
		publish(ctx, s.Events, TopicTransactions, key, map[string]any{
			"type":          "transaction_created",
			"transactionID": tx.ID,
			"bookingID":     b.ID,
			"userID":        tx.UserID,
			"amount":        tx.Amount,
			"kind":          tx.Type,
		})
	}
}

func listingStatus(b *models.Booking) string {
	if b == nil || b.Listing == nil {
		return ""
	}
	return b.Listing.Status
}

// syncListing re-indexes and announces the listing when a booking moved its status away from before.
func (s *BookingService) syncListing(ctx context.Context, listingID uint, before string) {
	if s.Listings == nil {
		return
	}
	l, err := s.Repo.GetListing(ctx, listingID)
	if err != nil {
		logging.FromContext(ctx).Warn("listing_sync_error", "listing_id", listingID, "error", err)
		return
	}
	if l.Status != before {
		s.Listings.StatusChanged(ctx, l)
	}
}

func (s *BookingService) mail(ctx context.Context, b *models.Booking, subject, body string) {
	if s.Mailer == nil {
		return
	}
	u, err := s.Repo.GetUserByID(ctx, b.UserID)
	if err != nil {
		return
	}
	notify(ctx, s.Mailer, u, subject, body)
}

func FormatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
