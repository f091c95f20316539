package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultSongCover = "https://cdn.pixabay.com/photo/2024/07/02/06/19/rain-8866774_1280.png"

type Song struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	ArtistID     uuid.UUID  `gorm:"type:char(36);not null;index" json:"artist"`
	AlbumID      *uuid.UUID `gorm:"type:char(36);index" json:"album"`
	Duration     int        `gorm:"not null" json:"duration"` // seconds
	AudioURL     string     `gorm:"size:512;not null" json:"audioUrl"`
	CoverImage   string     `gorm:"size:512" json:"coverImage"`
	ReleasedDate time.Time  `json:"releasedDate"`
	Genre        string     `gorm:"size:120;index" json:"genre"`
	Lyrics       string     `gorm:"type:text" json:"lyrics,omitempty"`
	Plays        int64      `gorm:"not null;default:0" json:"plays"`
	Likes        int64      `gorm:"not null;default:0" json:"likes"`
	IsExplicit   bool       `gorm:"default:false" json:"isExplicit"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Artist *Artist `gorm:"foreignKey:ArtistID" json:"-"`
	Album  *Album  `gorm:"foreignKey:AlbumID" json:"-"`

	FeaturedArtists []uuid.UUID    `gorm:"-" json:"featuredArtists"`
	ArtistInfo      *ArtistSummary `gorm:"-" json:"artistInfo,omitempty"`
	AlbumInfo       *AlbumSummary  `gorm:"-" json:"albumInfo,omitempty"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CoverImage == "" {
		s.CoverImage = DefaultSongCover
	}
	if s.ReleasedDate.IsZero() {
		s.ReleasedDate = time.Now().UTC()
	}
	return nil
}
