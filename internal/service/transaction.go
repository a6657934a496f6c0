package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

type LedgerService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// List shows a renter their own rows only. Staff may list any user or everyone.
func (s *LedgerService) List(ctx context.Context, userID *uint, limit, offset int, caller Caller) (*repo.LedgerPage, error) {
	if !caller.IsStaff() {
		id := caller.ID
		userID = &id
	}
	return s.Repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *LedgerService) Create(ctx context.Context, req transport.CreateTransactionRequest) (*models.Transaction, error) {
	if req.UserID == nil || *req.UserID == 0 {
		return nil, invalid("MISSING_USER_ID", "User id is required")
	}
	if req.Amount == nil {
		return nil, invalid("MISSING_AMOUNT", "Amount is required")
	}
	if *req.Amount == 0 {
		return nil, invalid("INVALID_AMOUNT", "Amount cannot be zero")
	}
	if req.Type == "" {
		return nil, invalid("MISSING_TYPE", "Type is required")
	}
	switch req.Type {
	case models.TransactionBooking:
		if *req.Amount > 0 {
			return nil, invalid("INVALID_AMOUNT", "Booking charges must be negative")
		}
	case models.TransactionRefund:
		if *req.Amount < 0 {
			return nil, invalid("INVALID_AMOUNT", "Refunds must be positive")
		}
	default:
		return nil, invalid("INVALID_TYPE", "Type must be booking or refund")
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, invalid("INVALID_DESCRIPTION", "Description is required")
	}

	if ok, err := s.Repo.UserExists(ctx, *req.UserID); err != nil {
		return nil, err
	} else if !ok {
		return nil, invalid("INVALID_USER_ID", "User does not exist")
	}
	if req.BookingID != nil {
		if ok, err := s.Repo.BookingExists(ctx, *req.BookingID); err != nil {
			return nil, err
		} else if !ok {
			return nil, invalid("INVALID_BOOKING_ID", "Booking does not exist")
		}
	}
	if req.ListingID != nil {
		if ok, err := s.Repo.ListingExists(ctx, *req.ListingID); err != nil {
			return nil, err
		} else if !ok {
			return nil, invalid("INVALID_LISTING_ID", "Listing does not exist")
		}
	}

	t := &models.Transaction{
		UserID:      *req.UserID,
		BookingID:   req.BookingID,
		ListingID:   req.ListingID,
		Amount:      *req.Amount,
		Type:        req.Type,
		Description: desc,
	}
	if err := s.Repo.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicTransactions, strconv.FormatUint(uint64(t.UserID), 10), map[string]any{
		"type":          "transaction_created",
		"transactionID": t.ID,
		"userID":        t.UserID,
		"amount":        t.Amount,
		"kind":          t.Type,
	})
	return t, nil
}
