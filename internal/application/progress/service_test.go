package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kh-travel-backend/internal/application/listings"
	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/infrastructure/database"
	"kh-travel-backend/internal/pkg/apperrors"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	db     *gorm.DB
	userID uuid.UUID
	angkor *domain.Listing
	amok   *domain.Listing
}

func setupProgress(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	store := &listings.Service{DB: db}
	ctx := context.Background()
	angkor, err := store.Create(ctx, listings.Input{Slug: "angkor-wat", Category: "place", Title: "Angkor Wat", Province: "siem-reap"})
	require.NoError(t, err)
	amok, err := store.Create(ctx, listings.Input{Slug: "fish-amok", Category: "food", Title: "Fish Amok", Province: "phnom-penh"})
	require.NoError(t, err)

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fixture{
		svc:    &Service{DB: db, Listings: store, Now: func() time.Time { return clock }},
		db:     db,
		userID: uuid.New(),
		angkor: angkor,
		amok:   amok,
	}
}

func (f *fixture) toggle(t *testing.T, listing *domain.Listing, kind Kind, action Action) State {
	t.Helper()
	st, err := f.svc.Toggle(context.Background(), ToggleInput{
		UserID: f.userID, ListingID: listing.ListingID, Category: listing.Category, Kind: kind, Action: action,
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) records(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&domain.ProgressRecord{}).Where("user_id = ?", f.userID).Count(&n).Error)
	return n
}

func TestToggle_BookmarkAddIsIdempotent(t *testing.T) {
	f := setupProgress(t)
	f.toggle(t, f.angkor, KindBookmark, ActionAdd)
	st := f.toggle(t, f.angkor, KindBookmark, ActionAdd)

	assert.True(t, st.IsBookmarked)
	assert.False(t, st.IsVisited)
	assert.Equal(t, int64(1), f.records(t))
}

func TestToggle_RemoveWithoutRecordIsNoop(t *testing.T) {
	f := setupProgress(t)
	st := f.toggle(t, f.angkor, KindBookmark, ActionRemove)
	assert.False(t, st.IsBookmarked)
	assert.Equal(t, f.angkor.ListingID, st.ListingID)

	st = f.toggle(t, f.angkor, KindVisited, ActionRemove)
	assert.False(t, st.IsVisited)
	assert.Zero(t, f.records(t))
}

func TestToggle_VisitedSetsAndClearsTimestamp(t *testing.T) {
	f := setupProgress(t)
	f.toggle(t, f.angkor, KindBookmark, ActionAdd)

	st := f.toggle(t, f.angkor, KindVisited, ActionAdd)
	assert.True(t, st.IsVisited)
	require.NotNil(t, st.VisitedAt)
	assert.True(t, st.IsBookmarked)

	st = f.toggle(t, f.angkor, KindVisited, ActionRemove)
	assert.False(t, st.IsVisited)
	assert.Nil(t, st.VisitedAt)
	assert.True(t, st.IsBookmarked)
	assert.Equal(t, int64(1), f.records(t))
}

func TestToggle_AddRemoveAdd(t *testing.T) {
	f := setupProgress(t)
	f.toggle(t, f.angkor, KindBookmark, ActionAdd)
	f.toggle(t, f.angkor, KindBookmark, ActionRemove)
	st := f.toggle(t, f.angkor, KindBookmark, ActionAdd)

	assert.True(t, st.IsBookmarked)
	assert.Equal(t, int64(1), f.records(t))
}

func TestToggle_UnknownListing(t *testing.T) {
	f := setupProgress(t)
	_, err := f.svc.Toggle(context.Background(), ToggleInput{
		UserID: f.userID, ListingID: uuid.New(), Kind: KindBookmark, Action: ActionAdd,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, f.records(t))
}

func TestToggle_CategoryMismatch(t *testing.T) {
	f := setupProgress(t)
	_, err := f.svc.Toggle(context.Background(), ToggleInput{
		UserID: f.userID, ListingID: f.angkor.ListingID, Category: "food", Kind: KindBookmark, Action: ActionAdd,
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	assert.Zero(t, f.records(t))
}

func TestToggle_InvalidInput(t *testing.T) {
	f := setupProgress(t)
	_, err := f.svc.Toggle(context.Background(), ToggleInput{
		UserID: f.userID, ListingID: f.angkor.ListingID, Category: "museum", Kind: "like", Action: "flip",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"category", "kind", "action"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestStatus_NoRecord(t *testing.T) {
	f := setupProgress(t)
	st, err := f.svc.Status(context.Background(), f.userID, f.amok.ListingID)
	require.NoError(t, err)
	assert.Equal(t, State{ListingID: f.amok.ListingID}, st)
}

func TestListsAndStats(t *testing.T) {
	f := setupProgress(t)
	f.toggle(t, f.angkor, KindBookmark, ActionAdd)
	f.toggle(t, f.angkor, KindVisited, ActionAdd)
	f.toggle(t, f.amok, KindBookmark, ActionAdd)
	f.toggle(t, f.amok, KindBookmark, ActionRemove)
	f.toggle(t, f.amok, KindVisited, ActionAdd)

	lists, err := f.svc.Lists(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, lists.Bookmarked, 1)
	assert.Equal(t, "angkor-wat", lists.Bookmarked[0].Listing.Slug)
	assert.Nil(t, lists.Bookmarked[0].VisitedAt)
	require.Len(t, lists.Visited, 2)
	for _, e := range lists.Visited {
		assert.NotNil(t, e.VisitedAt)
	}

	st, err := f.svc.Stats(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Bookmarks)
	assert.Equal(t, int64(2), st.Visits)
	assert.Equal(t, int64(5*1+10*2), st.Points)
	assert.Equal(t, CategoryStats{Bookmarks: 1, Visits: 1}, st.ByCategory["place"])
	assert.Equal(t, CategoryStats{Bookmarks: 0, Visits: 1}, st.ByCategory["food"])
	assert.Equal(t, CategoryStats{}, st.ByCategory["event"])
}

func TestStats_Empty(t *testing.T) {
	f := setupProgress(t)
	st, err := f.svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, st.Points)
	assert.Len(t, st.ByCategory, 5)
}

func TestToggle_ConcurrentAddsKeepOneRecord(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "progress.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	store := &listings.Service{DB: db}
	ctx := context.Background()
	angkor, err := store.Create(ctx, listings.Input{Slug: "angkor-wat", Category: "place", Title: "Angkor Wat", Province: "siem-reap"})
	require.NoError(t, err)

	svc := &Service{DB: db, Listings: store}
	userID := uuid.New()

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		kind := KindBookmark
		if i%2 == 1 {
			kind = KindVisited
		}
		g.Go(func() error {
			_, err := svc.Toggle(ctx, ToggleInput{UserID: userID, ListingID: angkor.ListingID, Kind: kind, Action: ActionAdd})
			return err
		})
	}
	require.NoError(t, g.Wait())

	var n int64
	require.NoError(t, db.Model(&domain.ProgressRecord{}).
		Where("user_id = ? AND listing_id = ?", userID, angkor.ListingID).
		Count(&n).Error)
	assert.Equal(t, int64(1), n)

	st, err := svc.Status(ctx, userID, angkor.ListingID)
	require.NoError(t, err)
	assert.True(t, st.IsBookmarked)
	assert.True(t, st.IsVisited)
	assert.NotNil(t, st.VisitedAt)
}
