package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultArtistImage = "https://cdn.pixabay.com/photo/2024/07/02/06/19/rain-8866774_1280.png"

type Artist struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name       string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Bio        string    `gorm:"size:2000" json:"bio"`
	Genres     []string  `gorm:"type:text;serializer:json" json:"genres"`
	Image      string    `gorm:"size:512" json:"image"`
	Followers  int64     `gorm:"not null;default:0" json:"followers"`
	IsVerified bool      `gorm:"default:false" json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Back references, derived from Album.ArtistID and Song.ArtistID.
	Albums []uuid.UUID `gorm:"-" json:"albums"`
	Songs  []uuid.UUID `gorm:"-" json:"songs"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Image == "" {
		a.Image = DefaultArtistImage
	}
	if a.Genres == nil {
		a.Genres = []string{}
	}
	return nil
}

// ArtistSummary is the projection embedded in songs and albums.
type ArtistSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
	Bio   string    `json:"bio,omitempty"`
}

func (a *Artist) Summary() *ArtistSummary {
	if a == nil {
		return nil
	}
	return &ArtistSummary{ID: a.ID, Name: a.Name, Image: a.Image, Bio: a.Bio}
}
