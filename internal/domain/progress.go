package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressRecord is one user's bookmark/visit state for one listing.
// (user_id, listing_id) is unique; writers upsert against that index.
type ProgressRecord struct {
	ProgressID   uuid.UUID  `gorm:"column:progress_id;type:uuid;primaryKey" json:"progress_id"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_progress_user_listing,priority:1" json:"user_id"`
	ListingID    uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:idx_progress_user_listing,priority:2;index" json:"listing_id"`
	IsBookmarked bool       `gorm:"column:is_bookmarked;not null;default:false" json:"is_bookmarked"`
	IsVisited    bool       `gorm:"column:is_visited;not null;default:false" json:"is_visited"`
	VisitedAt    *time.Time `gorm:"column:visited_at" json:"visited_at"`
	CreatedAt    time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updatedAt" json:"updatedAt"`

	Listing *Listing `gorm:"foreignKey:ListingID;references:ListingID" json:"listing,omitempty"`
}

func (ProgressRecord) TableName() string {
	return "ProgressRecords"
}

func (p *ProgressRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ProgressID == uuid.Nil {
		p.ProgressID = uuid.New()
	}
	return nil
}
