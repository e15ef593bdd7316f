package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Kind string

const (
	KindBookmark Kind = "bookmark"
	KindVisited  Kind = "visited"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

const (
	PointsPerBookmark = 5
	PointsPerVisit    = 10
)

// ListingFinder resolves the listing a progress write targets.
type ListingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
}

type Service struct {
	DB       *gorm.DB
	Listings ListingFinder
	Now      func() time.Time
}

type ToggleInput struct {
	UserID    uuid.UUID
	ListingID uuid.UUID
	Category  string
	Kind      Kind
	Action    Action
}

// State is a user's progress on one listing. The zero value means no record.
type State struct {
	ListingID    uuid.UUID  `json:"listing_id"`
	IsBookmarked bool       `json:"is_bookmarked"`
	IsVisited    bool       `json:"is_visited"`
	VisitedAt    *time.Time `json:"visited_at"`
}

type Entry struct {
	Listing   domain.Listing `json:"listing"`
	VisitedAt *time.Time     `json:"visited_at,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type Lists struct {
	Bookmarked []Entry `json:"bookmarked"`
	Visited    []Entry `json:"visited"`
}

type CategoryStats struct {
	Bookmarks int64 `json:"bookmarks"`
	Visits    int64 `json:"visits"`
}

type Stats struct {
	Bookmarks  int64                    `json:"bookmarks"`
	Visits     int64                    `json:"visits"`
	Points     int64                    `json:"points"`
	ByCategory map[string]CategoryStats `json:"by_category"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (in ToggleInput) validate() error {
	v := &apperrors.ValidationError{}
	if in.UserID == uuid.Nil {
		v.Add("user_id", "is required")
	}
	if in.ListingID == uuid.Nil {
		v.Add("itemId", "is required")
	}
	if in.Kind != KindBookmark && in.Kind != KindVisited {
		v.Add("kind", "must be bookmark or visited")
	}
	if in.Action != ActionAdd && in.Action != ActionRemove {
		v.Add("action", "must be add or remove")
	}
	if in.Category != "" && !constants.IsValidCategory(in.Category) {
		v.Add("category", "unknown category")
	}
	return v.OrNil()
}

// Toggle sets or clears one flag on the (user, listing) record and returns
// the state read back after the write. Adds upsert against the unique
// (user_id, listing_id) index; removes never create a row.
func (s *Service) Toggle(ctx context.Context, in ToggleInput) (State, error) {
	if err := in.validate(); err != nil {
		return State{}, err
	}
	listing, err := s.Listings.FindByID(ctx, in.ListingID)
	if err != nil {
		return State{}, err
	}
	if in.Category != "" && in.Category != listing.Category {
		return State{}, apperrors.Invalid("category", "does not match the listing category")
	}

	db := s.DB.WithContext(ctx)
	now := s.now()
	switch in.Action {
	case ActionAdd:
		err = s.add(db, in, now)
	case ActionRemove:
		err = s.remove(db, in)
	}
	if err != nil {
		return State{}, fmt.Errorf("%s %s: %w", in.Action, in.Kind, err)
	}
	return s.Status(ctx, in.UserID, in.ListingID)
}

func (s *Service) add(db *gorm.DB, in ToggleInput, now time.Time) error {
	rec := domain.ProgressRecord{UserID: in.UserID, ListingID: in.ListingID}
	set := map[string]interface{}{"updatedAt": now}
	if in.Kind == KindBookmark {
		rec.IsBookmarked = true
		set["is_bookmarked"] = true
	} else {
		rec.IsVisited = true
		rec.VisitedAt = &now
		set["is_visited"] = true
		set["visited_at"] = now
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoUpdates: clause.Assignments(set),
	}).Create(&rec).Error
}

func (s *Service) remove(db *gorm.DB, in ToggleInput) error {
	set := map[string]interface{}{"is_bookmarked": false}
	if in.Kind == KindVisited {
		set = map[string]interface{}{"is_visited": false, "visited_at": nil}
	}
	return db.Model(&domain.ProgressRecord{}).
		Where("user_id = ? AND listing_id = ?", in.UserID, in.ListingID).
		Updates(set).Error
}

func (s *Service) Status(ctx context.Context, userID, listingID uuid.UUID) (State, error) {
	var rec domain.ProgressRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{ListingID: listingID}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load progress: %w", err)
	}
	return State{
		ListingID:    listingID,
		IsBookmarked: rec.IsBookmarked,
		IsVisited:    rec.IsVisited,
		VisitedAt:    rec.VisitedAt,
	}, nil
}

// Lists returns the user's bookmarked and visited listings, most recently
// touched first. The two reads run concurrently.
func (s *Service) Lists(ctx context.Context, userID uuid.UUID) (Lists, error) {
	var out Lists
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.entries(gctx, userID, "is_bookmarked")
		out.Bookmarked = entries
		return err
	})
	g.Go(func() error {
		entries, err := s.entries(gctx, userID, "is_visited")
		out.Visited = entries
		return err
	})
	if err := g.Wait(); err != nil {
		return Lists{}, fmt.Errorf("load progress lists: %w", err)
	}
	return out, nil
}

func (s *Service) entries(ctx context.Context, userID uuid.UUID, flag string) ([]Entry, error) {
	var recs []domain.ProgressRecord
	err := s.DB.WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND "+flag+" = ?", userID, true).
		Order(`"updatedAt" DESC`).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		if r.Listing == nil {
			continue
		}
		e := Entry{Listing: *r.Listing, UpdatedAt: r.UpdatedAt}
		if flag == "is_visited" {
			e.VisitedAt = r.VisitedAt
		}
		out = append(out, e)
	}
	return out, nil
}

// Stats is computed from the progress records on every call.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	var rows []struct {
		Category  string
		Bookmarks int64
		Visits    int64
	}
	err := s.DB.WithContext(ctx).
		Table(`"ProgressRecords" AS p`).
		Select(`l.category AS category,
			SUM(CASE WHEN p.is_bookmarked THEN 1 ELSE 0 END) AS bookmarks,
			SUM(CASE WHEN p.is_visited THEN 1 ELSE 0 END) AS visits`).
		Joins(`JOIN "Listings" AS l ON l.listing_id = p.listing_id`).
		Where("p.user_id = ?", userID).
		Group("l.category").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, fmt.Errorf("load progress stats: %w", err)
	}

	st := Stats{ByCategory: make(map[string]CategoryStats, len(constants.Categories))}
	for _, c := range constants.Categories {
		st.ByCategory[c] = CategoryStats{}
	}
	for _, r := range rows {
		st.ByCategory[r.Category] = CategoryStats{Bookmarks: r.Bookmarks, Visits: r.Visits}
		st.Bookmarks += r.Bookmarks
		st.Visits += r.Visits
	}
	st.Points = PointsPerBookmark*st.Bookmarks + PointsPerVisit*st.Visits
	return st, nil
}
