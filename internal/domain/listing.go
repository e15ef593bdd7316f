package domain

import (
	"time"

	"kh-travel-backend/internal/pkg/geo"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is a point of interest in the catalog.
type Listing struct {
	ListingID   uuid.UUID                   `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	Slug        string                      `gorm:"column:slug;type:varchar(120);not null;uniqueIndex" json:"slug"`
	Category    string                      `gorm:"column:category;type:varchar(20);not null;index" json:"category"`
	Title       string                      `gorm:"column:title;not null" json:"title"`
	TitleKm     *string                     `gorm:"column:title_km" json:"title_km"`
	Description string                      `gorm:"column:description;type:text" json:"description"`
	Province    string                      `gorm:"column:province;type:varchar(40);not null;index" json:"province"`
	Lat         *float64                    `gorm:"column:lat" json:"lat"`
	Lng         *float64                    `gorm:"column:lng" json:"lng"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	PriceLevel  string                      `gorm:"column:price_level;type:varchar(8);not null;default:'Free'" json:"price_level"`
	AvgRating   *float64                    `gorm:"column:avg_rating;type:decimal(3,2)" json:"avg_rating"`
	Photos      []ListingPhoto              `gorm:"foreignKey:ListingID;references:ListingID" json:"photos"`
	CreatedAt   time.Time                   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "Listings"
}

// BeforeCreate sets listing_id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}

// Point returns the listing coordinates; ok is false unless both are present.
func (l *Listing) Point() (geo.Point, bool) {
	if l.Lat == nil || l.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *l.Lat, Lng: *l.Lng}, true
}

// ListingPhoto is one hosted image URL of a listing, ordered by Position.
type ListingPhoto struct {
	PhotoID   uuid.UUID `gorm:"column:photo_id;type:uuid;primaryKey" json:"photo_id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Caption   *string   `gorm:"column:caption" json:"caption"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
}

func (ListingPhoto) TableName() string {
	return "ListingPhotos"
}

func (p *ListingPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.PhotoID == uuid.Nil {
		p.PhotoID = uuid.New()
	}
	return nil
}
