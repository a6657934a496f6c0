package service

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

type AdminService struct {
	Repo     *repo.GormRepo
	Listings *ListingService
	Events   EventPublisher
	Clock    Clock
}

func (s *AdminService) ListUsers(ctx context.Context, f repo.UserFilter) (int64, []models.User, error) {
	if f.Role != "" && !models.IsRole(f.Role) {
		return 0, nil, invalid("INVALID_ROLE", "Role must be renter, admin or manager")
	}
	return s.Repo.ListUsers(ctx, f)
}

func (s *AdminService) ChangeRole(ctx context.Context, caller Caller, targetID uint, role string) (*models.User, error) {
	if caller.Role != models.RoleManager {
		return nil, CheckRoleTransition(caller.Role, "", role)
	}
	if role == "" {
		return nil, invalid("MISSING_ROLE", "Role is required")
	}
	if !models.IsRole(role) {
		return nil, invalid("INVALID_ROLE", "Role must be renter, admin or manager")
	}

	target, err := s.Repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	if err := CheckRoleTransition(caller.Role, target.Role, role); err != nil {
		return nil, err
	}

	updated, err := s.Repo.ChangeUserRole(ctx, target.ID, target.Role, role, s.Clock.now())
	if err != nil {
		if errors.Is(err, repo.ErrRoleChanged) {
			return nil, fail(ErrConflict, "ROLE_CHANGED", "User role was changed by another request")
		}
		return nil, err
	}

	publish(ctx, s.Events, TopicUsers, strconv.FormatUint(uint64(updated.ID), 10), map[string]any{
		"type":      "user_role_changed",
		"userID":    updated.ID,
		"from":      target.Role,
		"to":        updated.Role,
		"changedBy": caller.ID,
	})
	return updated, nil
}

func (s *AdminService) ListListings(ctx context.Context, f repo.ListingFilter) (int64, []transport.AdminListing, error) {
	total, items, err := s.Listings.List(ctx, f)
	if err != nil {
		return 0, nil, err
	}

	ids := make([]uint, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	active, err := s.Repo.ActiveBookings(ctx, ids)
	if err != nil {
		return 0, nil, err
	}

	out := make([]transport.AdminListing, len(items))
	for i := range items {
		out[i] = transport.AdminListing{Listing: items[i]}
		if b, ok := active[items[i].ID]; ok {
			out[i].ActiveBooking = &b
		}
	}
	return total, out, nil
}

func (s *AdminService) Stats(ctx context.Context) (*transport.Stats, error) {
	listings, err := s.Repo.CountListingsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.Repo.CountBookingsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	net, err := s.Repo.LedgerSum(ctx)
	if err != nil {
		return nil, err
	}
	return &transport.Stats{Listings: listings, Bookings: bookings, LedgerNet: net}, nil
}
