package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultProfilePicture = "https://media.istockphoto.com/id/1781141610/photo/blacky.jpg?s=612x612&w=0&k=20&c=iJp3EM4mdh6GsFBq6MgRtUjbLInuKqgY6IEYkwt_798="

type User struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	ProfilePicture string    `gorm:"size:512" json:"profilePicture"`
	IsAdmin        bool      `gorm:"default:false" json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Membership sets, loaded from the link tables.
	LikedSongs        []uuid.UUID `gorm:"-" json:"likedSongs"`
	LikedAlbums       []uuid.UUID `gorm:"-" json:"likedAlbums"`
	FollowedArtists   []uuid.UUID `gorm:"-" json:"followedArtists"`
	FollowedPlaylists []uuid.UUID `gorm:"-" json:"followedPlaylists"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ProfilePicture == "" {
		u.ProfilePicture = DefaultProfilePicture
	}
	return nil
}

// UserSummary is the public projection used when a user is embedded in
// another resource.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profilePicture"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, ProfilePicture: u.ProfilePicture}
}
