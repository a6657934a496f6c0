package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

const (
	minTitleLen       = 10
	minDescriptionLen = 20
)

type ListingService struct {
	Repo   *repo.GormRepo
	Index  ListingIndex
	Events EventPublisher
}

func validateListing(l *models.Listing) error {
	l.Title = strings.TrimSpace(l.Title)
	l.Description = strings.TrimSpace(l.Description)

	switch {
	case len([]rune(l.Title)) < minTitleLen:
		return invalid("INVALID_TITLE", "Title must be at least 10 characters")
	case len([]rune(l.Description)) < minDescriptionLen:
		return invalid("INVALID_DESCRIPTION", "Description must be at least 20 characters")
	case l.PricePerNight <= 0:
		return invalid("INVALID_PRICE", "Price per night must be greater than 0")
	case l.PricePerNight > MaxPricePerNight:
		return invalid("INVALID_PRICE", "Price per night cannot exceed "+FormatCents(MaxPricePerNight))
	case l.NumGuests < 1:
		return invalid("INVALID_GUESTS", "Number of guests must be at least 1")
	case l.NumBedrooms < 0:
		return invalid("INVALID_BEDROOMS", "Number of bedrooms cannot be negative")
	case l.NumBeds < 1:
		return invalid("INVALID_BEDS", "Number of beds must be at least 1")
	case l.NumBathrooms < 1:
		return invalid("INVALID_BATHROOMS", "Number of bathrooms must be at least 1")
	}

	images := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return invalid("INVALID_IMAGES", "At least one image is required")
	}
	l.Images = images
	return nil
}

func (s *ListingService) List(ctx context.Context, f repo.ListingFilter) (int64, []models.Listing, error) {
	if f.Status != "" && !models.IsListingStatus(f.Status) {
		return 0, nil, invalid("INVALID_FILTER", "Unknown listing status")
	}

	if f.Search != "" && s.Index != nil {
		ids, err := s.Index.SearchIDs(ctx, f.Search, 1000)
		if err != nil {
			logging.FromContext(ctx).Warn("listing_search_fallback", "reason", "search index failed", "error", err)
		} else {
			f.IDs = ids
		}
	}
	return s.Repo.ListListings(ctx, f)
}

func (s *ListingService) Get(ctx context.Context, id uint) (*models.Listing, error) {
	l, err := s.Repo.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "NOT_FOUND", "Listing not found")
		}
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Create(ctx context.Context, req transport.CreateListingRequest, callerID uint) (*models.Listing, error) {
	l := &models.Listing{
		Title:         req.Title,
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		NumGuests:     req.NumGuests,
		NumBedrooms:   req.NumBedrooms,
		NumBeds:       req.NumBeds,
		NumBathrooms:  req.NumBathrooms,
		Images:        req.Images,
		UserID:        callerID,
		Status:        models.ListingAvailable,
		Featured:      req.Featured,
	}
	if err := validateListing(l); err != nil {
		return nil, err
	}

	if req.UserID != nil && *req.UserID != callerID {
		ok, err := s.Repo.UserExists(ctx, *req.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalid("INVALID_USER_ID", "Owner does not exist")
		}
		l.UserID = *req.UserID
	}

	if err := s.Repo.CreateListing(ctx, l); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "listing_created", l)
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, id uint, req transport.PatchListingRequest) (*models.Listing, error) {
	l, err := s.Repo.UpdateListing(ctx, id, func(l *models.Listing) error {
		if req.Title != nil {
			l.Title = *req.Title
		}
		if req.Description != nil {
			l.Description = *req.Description
		}
		if req.PricePerNight != nil {
			l.PricePerNight = *req.PricePerNight
		}
		if req.NumGuests != nil {
			l.NumGuests = *req.NumGuests
		}
		if req.NumBedrooms != nil {
			l.NumBedrooms = *req.NumBedrooms
		}
		if req.NumBeds != nil {
			l.NumBeds = *req.NumBeds
		}
		if req.NumBathrooms != nil {
			l.NumBathrooms = *req.NumBathrooms
		}
		if req.Images != nil {
			l.Images = *req.Images
		}
		if req.Featured != nil {
			l.Featured = *req.Featured
		}
		return validateListing(l)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "NOT_FOUND", "Listing not found")
		}
		return nil, err
	}

	s.afterWrite(ctx, "listing_updated", l)
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteListing(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fail(ErrNotFound, "NOT_FOUND", "Listing not found")
		case errors.Is(err, repo.ErrListingHasActiveStay):
			return fail(ErrConflict, "LISTING_HAS_ACTIVE_BOOKING", "Listing has an active booking")
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteListing(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("listing_unindex_error", "listing_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, TopicListings, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":      "listing_deleted",
		"listingID": id,
	})
	return nil
}

// StatusChanged re-indexes and announces a listing whose status a booking or job moved.
func (s *ListingService) StatusChanged(ctx context.Context, l *models.Listing) {
	s.afterWrite(ctx, "listing_status_changed", l)
}

func (s *ListingService) afterWrite(ctx context.Context, kind string, l *models.Listing) {
	if s.Index != nil {
		if err := s.Index.IndexListing(ctx, l); err != nil {
			logging.FromContext(ctx).Warn("listing_index_error", "listing_id", l.ID, "error", err)
		}
	}
	publish(ctx, s.Events, TopicListings, strconv.FormatUint(uint64(l.ID), 10), map[string]any{
		"type":      kind,
		"listingID": l.ID,
		"userID":    l.UserID,
		"status":    l.Status,
	})
}
