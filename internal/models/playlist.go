package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPlaylistCover = "https://cdn.pixabay.com/photo/2024/07/02/06/19/rain-8866774_1280.png"

// Playlist is owned by its creator for its whole lifetime; CreatorID is never
// updated after insert.
type Playlist struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:idx_playlist_creator_name" json:"name"`
	Description string    `gorm:"size:2000" json:"description"`
	CoverImage  string    `gorm:"size:512" json:"coverImage"`
	CreatorID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_playlist_creator_name;index" json:"creator"`
	IsPublic    bool      `gorm:"default:false;index" json:"isPublic"`
	Followers   int64     `gorm:"not null;default:0" json:"followers"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Creator *User `gorm:"foreignKey:CreatorID" json:"-"`

	Songs         []uuid.UUID  `gorm:"-" json:"songs"` // ordered by position
	Collaborators []uuid.UUID  `gorm:"-" json:"collaborators"`
	CreatorInfo   *UserSummary `gorm:"-" json:"creatorInfo,omitempty"`
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CoverImage == "" {
		p.CoverImage = DefaultPlaylistCover
	}
	return nil
}
