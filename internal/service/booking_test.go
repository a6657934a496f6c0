package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stayfinder/internal/db/dbtest"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
)

type bookingFixture struct {
	env     *testEnv
	svc     *BookingService
	renter  Caller
	other   Caller
	admin   Caller
	listing *models.Listing
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	env := newEnv(t)
	owner := dbtest.SeedUser(t, env.DB, "owner@example.com", models.RoleAdmin)
	renter := dbtest.SeedUser(t, env.DB, "ann@example.com", models.RoleRenter)
	other := dbtest.SeedUser(t, env.DB, "bob@example.com", models.RoleRenter)
	return &bookingFixture{
		env:     env,
		svc:     env.bookings(),
		renter:  Caller{ID: renter.ID, Role: renter.Role},
		other:   Caller{ID: other.ID, Role: other.Role},
		admin:   Caller{ID: owner.ID, Role: owner.Role},
		listing: dbtest.SeedListing(t, env.DB, owner.ID, "Lakeside cottage", 12345),
	}
}

func (f *bookingFixture) listingStatus(t *testing.T) string {
	t.Helper()
	var l models.Listing
	require.NoError(t, f.env.DB.First(&l, f.listing.ID).Error)
	return l.Status
}

func (f *bookingFixture) ledger(t *testing.T) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, f.env.DB.Order("id").Find(&rows).Error)
	return rows
}

func TestBookingService_Quote(t *testing.T) {
	f := newBookingFixture(t)

	q, err := f.svc.Quote(context.Background(), f.listing.ID, f.env.day(5), f.env.day(8))
	require.NoError(t, err)
	assert.Equal(t, 3, q.NumNights)
	assert.Equal(t, int64(40739), q.Total)

	_, err = f.svc.Quote(context.Background(), 999, f.env.day(5), f.env.day(8))
	requireCode(t, err, ErrNotFound, "LISTING_NOT_FOUND")
}

func TestBookingService_CreateConfirmed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, charge, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, f.renter.ID, b.UserID)
	assert.Equal(t, 3, b.NumNights)
	assert.Equal(t, int64(37035), b.Subtotal)
	assert.Equal(t, int64(3704), b.Tax)
	assert.Equal(t, int64(40739), b.Total)
	require.NotNil(t, b.Listing)

	require.NotNil(t, charge)
	assert.Equal(t, int64(-40739), charge.Amount)
	assert.Equal(t, models.TransactionBooking, charge.Type)
	assert.Equal(t, fmt.Sprintf("Payment for booking #%d", b.ID), charge.Description)
	assert.Equal(t, models.ListingBooked, f.listingStatus(t))

	evs := f.env.Events.Events(TopicBookings)
	require.Len(t, evs, 1)
	assert.Equal(t, "booking_created", evs[0].Event["type"])
	require.Len(t, f.env.Events.Events(TopicTransactions), 1)

	sent := f.env.Mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "$407.39")

	_, _, err = f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 10, 12, ""), f.other)
	requireCode(t, err, ErrConflict, "LISTING_ALREADY_BOOKED")
}

func TestBookingService_CreateValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	req := f.env.bookingRequest(0, 5, 8, "")
	_, _, err := f.svc.Create(ctx, req, f.renter)
	requireCode(t, err, ErrValidation, "MISSING_LISTING_ID")

	req = f.env.bookingRequest(f.listing.ID, -1, 2, "")
	_, _, err = f.svc.Create(ctx, req, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_CHECK_IN_DATE")

	req = f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingRefunded)
	_, _, err = f.svc.Create(ctx, req, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")

	req = f.env.bookingRequest(f.listing.ID, 5, 8, "")
	req.PaymentMethod = "cash"
	_, _, err = f.svc.Create(ctx, req, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_PAYMENT_METHOD")

	_, _, err = f.svc.Create(ctx, f.env.bookingRequest(999, 5, 8, ""), f.renter)
	requireCode(t, err, ErrNotFound, "LISTING_NOT_FOUND")

	assert.Empty(t, f.ledger(t))
	assert.Equal(t, models.ListingAvailable, f.listingStatus(t))
}

func TestBookingService_PendingThenConfirm(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, charge, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingPending), f.renter)
	require.NoError(t, err)
	assert.Nil(t, charge)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.ListingAvailable, f.listingStatus(t))
	assert.Empty(t, f.env.Mail.Sent())

	b, charge, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingConfirmed, f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	require.NotNil(t, charge)
	assert.Equal(t, -b.Total, charge.Amount)
	assert.Equal(t, models.ListingBooked, f.listingStatus(t))

	_, _, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingConfirmed, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")
}

func TestBookingService_ConfirmWhenListingTaken(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	pending, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingPending), f.renter)
	require.NoError(t, err)
	_, _, err = f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.other)
	require.NoError(t, err)

	_, _, err = f.svc.UpdateStatus(ctx, pending.ID, models.BookingConfirmed, f.renter)
	requireCode(t, err, ErrConflict, "LISTING_ALREADY_BOOKED")

	got, err := f.svc.Get(ctx, pending.ID, f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, got.Status)
	assert.Len(t, f.ledger(t), 1)
}

func TestBookingService_CancelPendingAndConfirmed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	pending, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingPending), f.renter)
	require.NoError(t, err)
	b, tx, err := f.svc.UpdateStatus(ctx, pending.ID, models.BookingCancelled, f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, b.Status)
	assert.Nil(t, tx)
	assert.Empty(t, f.ledger(t))

	confirmed, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.renter)
	require.NoError(t, err)
	b, tx, err = f.svc.UpdateStatus(ctx, confirmed.ID, models.BookingCancelled, f.renter)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, confirmed.Total, tx.Amount)
	assert.Equal(t, models.TransactionRefund, tx.Type)
	assert.Equal(t, "Refund for cancelled booking at Lakeside cottage", tx.Description)
	assert.Equal(t, models.ListingAvailable, f.listingStatus(t))

	_, _, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingRefunded, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")
	_, _, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingPending, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")

	var sum int64
	for _, row := range f.ledger(t) {
		sum += row.Amount
	}
	assert.Zero(t, sum)
}

func TestBookingService_Refund(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.renter)
	require.NoError(t, err)

	refunded, tx, err := f.svc.Refund(ctx, b.ID, f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, b.Total, tx.Amount)
	assert.Equal(t, fmt.Sprintf("Refund for booking #%d", b.ID), tx.Description)
	assert.Equal(t, models.ListingAvailable, f.listingStatus(t))

	_, _, err = f.svc.Refund(ctx, b.ID, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
	assert.Equal(t, "Booking has already been refunded", err.(*Error).Msg)
	assert.Len(t, f.ledger(t), 2)

	evs := f.env.Events.Events(TopicBookings)
	require.Len(t, evs, 2)
	assert.Equal(t, "booking_refunded", evs[1].Event["type"])
}

func TestBookingService_RefundRejected(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	pending, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingPending), f.renter)
	require.NoError(t, err)
	_, _, err = f.svc.Refund(ctx, pending.ID, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
	assert.Equal(t, "Cannot refund a pending booking", err.(*Error).Msg)

	_, _, err = f.svc.UpdateStatus(ctx, pending.ID, models.BookingCancelled, f.renter)
	require.NoError(t, err)
	_, _, err = f.svc.Refund(ctx, pending.ID, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
	assert.Equal(t, "Cannot refund a cancelled booking", err.(*Error).Msg)

	_, _, err = f.svc.Refund(ctx, 999, f.renter)
	requireCode(t, err, ErrNotFound, "BOOKING_NOT_FOUND")
}

func TestBookingService_UpdateStatusValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.renter)
	require.NoError(t, err)

	_, _, err = f.svc.UpdateStatus(ctx, b.ID, "", f.renter)
	requireCode(t, err, ErrValidation, "MISSING_STATUS")
	_, _, err = f.svc.UpdateStatus(ctx, b.ID, "archived", f.renter)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
	_, _, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingPending, f.renter)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")

	b, tx, err := f.svc.UpdateStatus(ctx, b.ID, models.BookingRefunded, f.renter)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRefunded, b.Status)
	assert.Positive(t, tx.Amount)
}

func TestBookingService_Visibility(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, ""), f.renter)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, b.ID, f.other)
	requireCode(t, err, ErrNotFound, "BOOKING_NOT_FOUND")
	_, _, err = f.svc.Refund(ctx, b.ID, f.other)
	requireCode(t, err, ErrNotFound, "BOOKING_NOT_FOUND")

	got, err := f.svc.Get(ctx, b.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	total, items, err := f.svc.List(ctx, repo.BookingFilter{UserID: &f.renter.ID, Limit: 10}, f.other)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	total, items, err = f.svc.List(ctx, repo.BookingFilter{Limit: 10}, f.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Listing)
	assert.Equal(t, "Lakeside cottage", items[0].Listing.Title)

	_, _, err = f.svc.List(ctx, repo.BookingFilter{Status: "archived", Limit: 10}, f.admin)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
}

func TestBookingService_ListingStatusSync(t *testing.T) {
	f := newBookingFixture(t)
	idx := &fakeIndex{}
	f.svc.Listings = f.env.listings(idx)
	ctx := context.Background()

	statusEvents := func() []string {
		var out []string
		for _, e := range f.env.Events.Events(TopicListings) {
			if e.Event["type"] == "listing_status_changed" {
				out = append(out, e.Event["status"].(string))
			}
		}
		return out
	}

	b, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 5, 8, models.BookingPending), f.renter)
	require.NoError(t, err)
	assert.Empty(t, statusEvents(), "a pending booking does not hold the listing")
	assert.Empty(t, idx.indexed)

	_, _, err = f.svc.UpdateStatus(ctx, b.ID, models.BookingConfirmed, f.renter)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ListingBooked}, statusEvents())

	_, _, err = f.svc.Refund(ctx, b.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ListingBooked, models.ListingAvailable}, statusEvents())
	assert.Equal(t, []uint{f.listing.ID, f.listing.ID}, idx.indexed)

	c, _, err := f.svc.Create(ctx, f.env.bookingRequest(f.listing.ID, 10, 12, models.BookingConfirmed), f.renter)
	require.NoError(t, err)
	_, _, err = f.svc.UpdateStatus(ctx, c.ID, models.BookingCancelled, f.renter)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ListingBooked, models.ListingAvailable, models.ListingBooked, models.ListingAvailable},
		statusEvents())
}

func TestBookingService_TranslateInFlightChange(t *testing.T) {
	svc := &BookingService{}

	err := svc.translate(&repo.StateError{Current: models.BookingCancelled}, models.BookingConfirmed)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")
	assert.ErrorContains(t, err, "Cannot change booking from cancelled to confirmed")

	err = svc.translate(&repo.StateError{Current: models.BookingRefunded}, models.BookingCancelled)
	requireCode(t, err, ErrValidation, "INVALID_TRANSITION")

	err = svc.translate(&repo.StateError{Current: models.BookingCancelled}, models.BookingRefunded)
	requireCode(t, err, ErrValidation, "INVALID_STATUS")
	assert.ErrorContains(t, err, "Cannot refund a cancelled booking")
}
