package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultAlbumCover = "https://cdn.pixabay.com/photo/2024/09/17/23/23/studio-9054709_960_720.jpg"

type Album struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Title        string    `gorm:"size:255;uniqueIndex;not null" json:"title"`
	ArtistID     uuid.UUID `gorm:"type:char(36);not null;index" json:"artist"`
	ReleasedDate time.Time `json:"releasedDate"`
	CoverImage   string    `gorm:"size:512" json:"coverImage"`
	Genre        string    `gorm:"size:120;index" json:"genre"`
	Description  string    `gorm:"size:2000" json:"description"`
	Likes        int64     `gorm:"not null;default:0" json:"likes"`
	IsExplicit   bool      `gorm:"default:false" json:"isExplicit"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Artist *Artist `gorm:"foreignKey:ArtistID" json:"-"`

	// Back reference, derived from Song.AlbumID.
	Songs      []uuid.UUID    `gorm:"-" json:"songs"`
	ArtistInfo *ArtistSummary `gorm:"-" json:"artistInfo,omitempty"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CoverImage == "" {
		a.CoverImage = DefaultAlbumCover
	}
	if a.ReleasedDate.IsZero() {
		a.ReleasedDate = time.Now().UTC()
	}
	return nil
}

// AlbumSummary is the projection embedded in songs.
type AlbumSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	CoverImage   string    `json:"coverImage"`
	ReleasedDate time.Time `json:"releasedDate"`
}

func (a *Album) Summary() *AlbumSummary {
	if a == nil {
		return nil
	}
	return &AlbumSummary{ID: a.ID, Title: a.Title, CoverImage: a.CoverImage, ReleasedDate: a.ReleasedDate}
}
