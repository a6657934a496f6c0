package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

// MaxProfilePicture bounds inline data-URI pictures.
const MaxProfilePicture = 2 << 20

type ProfileService struct {
	Repo *repo.GormRepo
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, req transport.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]any{}

	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		if v == "" {
			return nil, invalid("INVALID_FIRST_NAME", "First name cannot be empty")
		}
		updates["first_name"] = v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		if v == "" {
			return nil, invalid("INVALID_LAST_NAME", "Last name cannot be empty")
		}
		updates["last_name"] = v
	}
	if req.ProfilePicture != nil {
		v := strings.TrimSpace(*req.ProfilePicture)
		if len(v) > MaxProfilePicture {
			return nil, invalid("INVALID_PROFILE_PICTURE", "Profile picture is too large")
		}
		if v == "" {
			updates["profile_picture"] = nil
		} else {
			updates["profile_picture"] = v
		}
	}
	if len(updates) == 0 {
		return nil, invalid("NO_UPDATES", "No fields to update")
	}

	u, err := s.Repo.UpdateUserProfile(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	return u, nil
}
