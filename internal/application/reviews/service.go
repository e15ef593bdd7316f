package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"kh-travel-backend/internal/application/listings"
	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxContentLength = 2000
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Slug    string
	UserID  uuid.UUID
	Rating  int
	Content *string
}

func (in *CreateInput) validate() error {
	v := &apperrors.ValidationError{}
	if in.Rating < MinRating || in.Rating > MaxRating {
		v.Add("rating", fmt.Sprintf("must be an integer between %d and %d", MinRating, MaxRating))
	}
	if in.Content != nil {
		trimmed := strings.TrimSpace(*in.Content)
		if utf8.RuneCountInString(trimmed) > MaxContentLength {
			v.Add("content", fmt.Sprintf("must be at most %d characters", MaxContentLength))
		}
		if trimmed == "" {
			in.Content = nil
		} else {
			in.Content = &trimmed
		}
	}
	if in.UserID == uuid.Nil {
		v.Add("user_id", "is required")
	}
	return v.OrNil()
}

// Created is the stored review plus the listing average after the insert.
type Created struct {
	Review    domain.Review `json:"review"`
	AvgRating float64       `json:"avg_rating"`
}

// Create stores the review and recomputes the listing's avg_rating in the
// same transaction, so readers never see a review without its average.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out Created
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing domain.Listing
		if err := tx.Select("listing_id").Where("slug = ?", in.Slug).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return listings.ErrListingNotFound
			}
			return err
		}

		review := domain.Review{
			ListingID: listing.ListingID,
			UserID:    in.UserID,
			Rating:    in.Rating,
			Content:   in.Content,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		var avg float64
		if err := tx.Model(&domain.Review{}).
			Select("COALESCE(AVG(rating), 0)").
			Where("listing_id = ?", listing.ListingID).
			Scan(&avg).Error; err != nil {
			return err
		}
		avg = roundTo2(avg)
		if err := tx.Model(&domain.Listing{}).
			Where("listing_id = ?", listing.ListingID).
			Update("avg_rating", avg).Error; err != nil {
			return err
		}

		out = Created{Review: review, AvgRating: avg}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &out, nil
}

// List returns a page of reviews for the listing, newest first, with the
// reviewer's public profile attached.
func (s *Service) List(ctx context.Context, slug string, page, pageSize int) ([]domain.Review, int64, error) {
	var listing domain.Listing
	db := s.DB.WithContext(ctx)
	if err := db.Select("listing_id").Where("slug = ?", slug).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, listings.ErrListingNotFound
		}
		return nil, 0, fmt.Errorf("find listing: %w", err)
	}

	var total int64
	if err := db.Model(&domain.Review{}).Where("listing_id = ?", listing.ListingID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var out []domain.Review
	err := db.Preload("User").
		Where("listing_id = ?", listing.ListingID).
		Order(`"createdAt" DESC`).Order("review_id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return out, total, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
