package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"
	"kh-travel-backend/internal/pkg/geo"
	"kh-travel-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrListingNotFound = fmt.Errorf("listing %w", apperrors.ErrNotFound)

const (
	maxTitleLength = 200
	maxTags        = 20
	maxPhotos      = 20
)

// Service is the listing store backed by GORM.
type Service struct {
	DB *gorm.DB
}

// Filter narrows FindMany. Zero values mean "no restriction";
// Page/PageSize of 0 disables paging.
type Filter struct {
	Categories      []string
	Province        string
	Tag             string
	Text            string
	WithCoordinates bool
	Page            int
	PageSize        int
}

type PhotoInput struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
}

// Input carries every mutable field; Update replaces all of them.
type Input struct {
	Slug        string       `json:"slug"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	TitleKm     *string      `json:"title_km"`
	Description string       `json:"description"`
	Province    string       `json:"province"`
	Lat         *float64     `json:"lat"`
	Lng         *float64     `json:"lng"`
	Tags        []string     `json:"tags"`
	PriceLevel  string       `json:"price_level"`
	Photos      []PhotoInput `json:"photos"`
}

// Validate checks the input and normalizes slug, title, tags and price level in place.
func (in *Input) Validate() error {
	v := &apperrors.ValidationError{}

	in.Slug = strings.TrimSpace(in.Slug)
	if !validation.IsValidSlug(in.Slug) {
		v.Add("slug", "must be lowercase letters, digits and single hyphens")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		v.Add("title", "is required")
	} else if len(in.Title) > maxTitleLength {
		v.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if !constants.IsValidCategory(in.Category) {
		v.Add("category", "must be one of "+strings.Join(constants.Categories, ", "))
	}
	if !constants.IsValidProvince(in.Province) {
		v.Add("province", "unknown province")
	}
	if in.PriceLevel == "" {
		in.PriceLevel = constants.PriceFree
	}
	if !constants.IsValidPriceLevel(in.PriceLevel) {
		v.Add("price_level", "must be one of "+strings.Join(constants.PriceLevels, ", "))
	}

	switch {
	case (in.Lat == nil) != (in.Lng == nil):
		v.Add("lat", "lat and lng must be provided together")
	case in.Lat != nil:
		if err := (geo.Point{Lat: *in.Lat, Lng: *in.Lng}).Validate(); err != nil {
			if errors.Is(err, geo.ErrInvalidLatitude) {
				v.Add("lat", err.Error())
			} else {
				v.Add("lng", err.Error())
			}
		}
	}

	in.Tags = validation.NormalizeTags(in.Tags)
	if len(in.Tags) > maxTags {
		v.Add("tags", fmt.Sprintf("at most %d tags", maxTags))
	}
	if len(in.Photos) > maxPhotos {
		v.Add("photos", fmt.Sprintf("at most %d photos", maxPhotos))
	}
	for i, p := range in.Photos {
		if !validation.IsValidPhotoURL(p.URL) {
			v.Add(fmt.Sprintf("photos[%d].url", i), "must be an absolute http(s) URL")
		}
	}
	return v.OrNil()
}

func (in *Input) photos(listingID uuid.UUID) []domain.ListingPhoto {
	out := make([]domain.ListingPhoto, 0, len(in.Photos))
	for i, p := range in.Photos {
		out = append(out, domain.ListingPhoto{
			ListingID: listingID,
			URL:       p.URL,
			Caption:   p.Caption,
			Position:  i,
		})
	}
	return out
}

func (in *Input) apply(l *domain.Listing) {
	l.Slug = in.Slug
	l.Category = in.Category
	l.Title = in.Title
	l.TitleKm = in.TitleKm
	l.Description = in.Description
	l.Province = in.Province
	l.Lat = in.Lat
	l.Lng = in.Lng
	l.Tags = datatypes.NewJSONSlice(in.Tags)
	l.PriceLevel = in.PriceLevel
}

func orderedPhotos(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	listing := &domain.Listing{ListingID: uuid.New()}
	in.apply(listing)
	listing.Photos = in.photos(listing.ListingID)

	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Invalid("slug", "already in use")
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// Update replaces every mutable field and swaps the photo set in one transaction.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*domain.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, id); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing domain.Listing
		if err := tx.Where("listing_id = ?", id).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		in.apply(&listing)
		if err := tx.Omit("Photos").Save(&listing).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&domain.ListingPhoto{}).Error; err != nil {
			return err
		}
		if photos := in.photos(id); len(photos) > 0 {
			if err := tx.Create(&photos).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Invalid("slug", "already in use")
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Delete removes the listing together with its progress records, reviews and photos.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&domain.ProgressRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&domain.ListingPhoto{}).Error; err != nil {
			return err
		}
		res := tx.Where("listing_id = ?", id).Delete(&domain.Listing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListingNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrListingNotFound) {
		return fmt.Errorf("delete listing: %w", err)
	}
	return err
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	return s.findOne(ctx, "listing_id = ?", id)
}

func (s *Service) FindBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	if slug == "" {
		return nil, ErrListingNotFound
	}
	return s.findOne(ctx, "slug = ?", slug)
}

func (s *Service) findOne(ctx context.Context, query string, arg interface{}) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.DB.WithContext(ctx).
		Preload("Photos", orderedPhotos).
		Where(query, arg).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

// FindMany returns listings in insertion order. The tag filter runs on the
// decoded JSON column so it behaves the same on every SQL dialect.
func (s *Service) FindMany(ctx context.Context, f Filter) ([]domain.Listing, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Listing{}).Preload("Photos", orderedPhotos)
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	if f.Province != "" {
		q = q.Where("province = ?", f.Province)
	}
	if text := strings.ToLower(strings.TrimSpace(f.Text)); text != "" {
		like := "%" + text + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.WithCoordinates {
		q = q.Where("lat IS NOT NULL AND lng IS NOT NULL")
	}
	q = q.Order(`"createdAt" ASC`).Order("listing_id ASC")

	tag := strings.ToLower(strings.TrimSpace(f.Tag))
	// paging happens after tag filtering, so it cannot be pushed down when a tag is set
	if tag == "" && f.PageSize > 0 {
		q = q.Offset(offset(f.Page, f.PageSize)).Limit(f.PageSize)
	}

	var out []domain.Listing
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	if tag == "" {
		return out, nil
	}

	filtered := out[:0]
	for _, l := range out {
		if hasTag(l.Tags, tag) {
			filtered = append(filtered, l)
		}
	}
	if f.PageSize > 0 {
		start := offset(f.Page, f.PageSize)
		if start >= len(filtered) {
			return []domain.Listing{}, nil
		}
		end := start + f.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[start:end]
	}
	return filtered, nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	var count int64
	q := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("slug = ?", slug)
	if self != uuid.Nil {
		q = q.Where("listing_id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if count > 0 {
		return apperrors.Invalid("slug", "already in use")
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
