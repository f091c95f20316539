package models

import (
	"time"

	"github.com/google/uuid"
)

// Link tables. Each row is one membership; the composite primary key keeps
// every set free of duplicates.

type UserLikedSong struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	SongID    uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

type UserLikedAlbum struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	AlbumID   uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

type UserFollowedArtist struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	ArtistID  uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

type UserFollowedPlaylist struct {
	UserID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlaylistID uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt  time.Time
}

type SongFeaturedArtist struct {
	SongID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	ArtistID  uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}

// PlaylistSong keeps the playlist order in Position.
type PlaylistSong struct {
	PlaylistID uuid.UUID `gorm:"type:char(36);primaryKey"`
	SongID     uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	Position   int       `gorm:"not null"`
	CreatedAt  time.Time
}

type PlaylistCollaborator struct {
	PlaylistID uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt  time.Time
}
