package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stayfinder/internal/db/dbtest"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

func ptr[T any](v T) *T { return &v }

func TestLedgerService_Create(t *testing.T) {
	env := newEnv(t)
	svc := &LedgerService{Repo: env.Repo, Events: env.Events}
	ctx := context.Background()
	renter := dbtest.SeedUser(t, env.DB, "ann@example.com", models.RoleRenter)

	tx, err := svc.Create(ctx, transport.CreateTransactionRequest{
		UserID:      &renter.ID,
		Amount:      ptr(int64(2500)),
		Type:        models.TransactionRefund,
		Description: " Goodwill credit ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Goodwill credit", tx.Description)
	assert.Len(t, env.Events.Events(TopicTransactions), 1)

	cases := []struct {
		code string
		req  transport.CreateTransactionRequest
	}{
		{"MISSING_USER_ID", transport.CreateTransactionRequest{Amount: ptr(int64(-1)), Type: "booking", Description: "x"}},
		{"MISSING_AMOUNT", transport.CreateTransactionRequest{UserID: &renter.ID, Type: "booking", Description: "x"}},
		{"INVALID_AMOUNT", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(0)), Type: "booking", Description: "x"}},
		{"MISSING_TYPE", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-1)), Description: "x"}},
		{"INVALID_TYPE", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-1)), Type: "fee", Description: "x"}},
		{"INVALID_AMOUNT", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(100)), Type: "booking", Description: "x"}},
		{"INVALID_AMOUNT", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-100)), Type: "refund", Description: "x"}},
		{"INVALID_DESCRIPTION", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-1)), Type: "booking", Description: "  "}},
		{"INVALID_USER_ID", transport.CreateTransactionRequest{UserID: ptr(uint(999)), Amount: ptr(int64(-1)), Type: "booking", Description: "x"}},
		{"INVALID_BOOKING_ID", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-1)), Type: "booking", Description: "x", BookingID: ptr(uint(5))}},
		{"INVALID_LISTING_ID", transport.CreateTransactionRequest{UserID: &renter.ID, Amount: ptr(int64(-1)), Type: "booking", Description: "x", ListingID: ptr(uint(5))}},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.req)
		requireCode(t, err, ErrValidation, tc.code)
	}
}

func TestLedgerService_List(t *testing.T) {
	env := newEnv(t)
	svc := &LedgerService{Repo: env.Repo}
	ctx := context.Background()
	ann := dbtest.SeedUser(t, env.DB, "ann@example.com", models.RoleRenter)
	bob := dbtest.SeedUser(t, env.DB, "bob@example.com", models.RoleRenter)
	admin := dbtest.SeedUser(t, env.DB, "admin@example.com", models.RoleAdmin)

	rows := []models.Transaction{
		{UserID: ann.ID, Amount: -11000, Type: models.TransactionBooking, Description: "a"},
		{UserID: ann.ID, Amount: 11000, Type: models.TransactionRefund, Description: "b"},
		{UserID: ann.ID, Amount: -5500, Type: models.TransactionBooking, Description: "c"},
		{UserID: bob.ID, Amount: -2200, Type: models.TransactionBooking, Description: "d"},
	}
	require.NoError(t, env.DB.Create(&rows).Error)

	page, err := svc.List(ctx, &bob.ID, 10, 0, Caller{ID: ann.ID, Role: models.RoleRenter})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total, "renters only see their own rows")
	assert.EqualValues(t, -5500, page.Balance)
	assert.Equal(t, "c", page.Items[0].Description)

	page, err = svc.List(ctx, &bob.ID, 10, 0, Caller{ID: admin.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.EqualValues(t, -2200, page.Balance)

	page, err = svc.List(ctx, nil, 2, 0, Caller{ID: admin.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, -7700, page.Balance)
}
