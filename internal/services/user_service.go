package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/pkg/crypto"
	"github.com/synesthesie/catalog/pkg/validation"
	"gorm.io/gorm"
)

type UserService struct {
	db    *gorm.DB
	media MediaStore
	cfg   *config.Config
}

func NewUserService(db *gorm.DB, media MediaStore, cfg *config.Config) *UserService {
	return &UserService{db: db, media: media, cfg: cfg}
}

type UpdateProfileInput struct {
	Name     *string `json:"name" form:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" form:"email" validate:"omitempty,email"`
	Password *string `json:"password" form:"password" validate:"omitempty,min=6"`
}

// ToggleResult is the outcome of a like or follow toggle: the caller's
// updated set and a human readable message.
type ToggleResult struct {
	Added   bool
	Message string
	IDs     []uuid.UUID
}

// GetProfile returns the user with all membership sets loaded.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, dbError(err, "user")
	}
	if err := loadUserSets(db, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes name, email, password and picture. picturePath is
// an optional staged upload.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput, picturePath string) (*models.User, error) {
	if in.Name != nil {
		*in.Name = validation.SanitizeString(*in.Name)
	}
	if in.Email != nil {
		*in.Email = validation.NormalizeEmail(*in.Email)
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, dbError(err, "user")
	}

	var cols []string
	if in.Name != nil {
		user.Name = *in.Name
		cols = append(cols, "name")
	}
	if in.Email != nil && *in.Email != user.Email {
		var n int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", *in.Email, userID).Count(&n).Error; err != nil {
			return nil, UpstreamError("failed to look up user", err)
		}
		if n > 0 {
			return nil, AlreadyExistsError("email already registered")
		}
		user.Email = *in.Email
		cols = append(cols, "email")
	}
	if in.Password != nil {
		hashed, err := crypto.HashPassword(*in.Password, s.cfg.BcryptCost)
		if err != nil {
			return nil, UpstreamError("failed to hash password", err)
		}
		user.Password = hashed
		cols = append(cols, "password")
	}
	if picturePath != "" {
		url, err := s.media.Upload(ctx, picturePath, FolderUsers)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = url
		cols = append(cols, "profile_picture")
	}

	if len(cols) > 0 {
		if err := db.Model(&user).Select(cols).Updates(&user).Error; err != nil {
			return nil, UpstreamError("failed to update profile", err)
		}
	}
	return s.GetProfile(ctx, userID)
}

// ListUsers returns registered users, newest first.
func (s *UserService) ListUsers(ctx context.Context, q ListQuery) (*Page[models.User], error) {
	q = q.normalized()
	query := s.db.WithContext(ctx).Model(&models.User{})
	if q.Search != "" {
		pattern := likePattern(q.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var users []models.User
	total, err := paginate(query, q, "created_at DESC", &users)
	if err != nil {
		return nil, UpstreamError("failed to list users", err)
	}
	return newPage(users, q, total), nil
}

// ToggleLikeSong likes or unlikes a song.
func (s *UserService) ToggleLikeSong(ctx context.Context, userID uuid.UUID, rawSongID string) (*ToggleResult, error) {
	songID, err := parseID(rawSongID, "song")
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleSpec{
		target: &models.Song{},
		what:   "song",
		m: membership{
			row:     &models.UserLikedSong{UserID: userID, SongID: songID},
			table:   &models.UserLikedSong{},
			keys:    map[string]interface{}{"user_id": userID, "song_id": songID},
			object:  &models.Song{},
			id:      songID,
			counter: "likes",
		},
		setColumn: "song_id",
		added:     "Song added to liked songs",
		removed:   "Song removed from liked songs",
	}, userID)
}

// ToggleLikeAlbum likes or unlikes an album.
func (s *UserService) ToggleLikeAlbum(ctx context.Context, userID uuid.UUID, rawAlbumID string) (*ToggleResult, error) {
	albumID, err := parseID(rawAlbumID, "album")
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleSpec{
		target: &models.Album{},
		what:   "album",
		m: membership{
			row:     &models.UserLikedAlbum{UserID: userID, AlbumID: albumID},
			table:   &models.UserLikedAlbum{},
			keys:    map[string]interface{}{"user_id": userID, "album_id": albumID},
			object:  &models.Album{},
			id:      albumID,
			counter: "likes",
		},
		setColumn: "album_id",
		added:     "Album added to liked albums",
		removed:   "Album removed from liked albums",
	}, userID)
}

// ToggleFollowArtist follows or unfollows an artist.
func (s *UserService) ToggleFollowArtist(ctx context.Context, userID uuid.UUID, rawArtistID string) (*ToggleResult, error) {
	artistID, err := parseID(rawArtistID, "artist")
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleSpec{
		target: &models.Artist{},
		what:   "artist",
		m: membership{
			row:     &models.UserFollowedArtist{UserID: userID, ArtistID: artistID},
			table:   &models.UserFollowedArtist{},
			keys:    map[string]interface{}{"user_id": userID, "artist_id": artistID},
			object:  &models.Artist{},
			id:      artistID,
			counter: "followers",
		},
		setColumn: "artist_id",
		added:     "Artist followed",
		removed:   "Artist unfollowed",
	}, userID)
}

// ToggleFollowPlaylist follows or unfollows a playlist the caller can see.
func (s *UserService) ToggleFollowPlaylist(ctx context.Context, userID uuid.UUID, rawPlaylistID string) (*ToggleResult, error) {
	playlistID, err := parseID(rawPlaylistID, "playlist")
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleSpec{
		target: &models.Playlist{},
		what:   "playlist",
		check: func(tx *gorm.DB) error {
			var p models.Playlist
			if err := tx.First(&p, "id = ?", playlistID).Error; err != nil {
				return dbError(err, "playlist")
			}
			// unfollowing is always allowed, following needs visibility
			var n int64
			if err := tx.Model(&models.UserFollowedPlaylist{}).Where("user_id = ? AND playlist_id = ?", userID, playlistID).Count(&n).Error; err != nil {
				return UpstreamError("failed to read membership", err)
			}
			if n > 0 {
				return nil
			}
			role, err := playlistRole(tx, &p, &userID)
			if err != nil {
				return err
			}
			return AuthorizePlaylist(role, ActionView, p.IsPublic)
		},
		m: membership{
			row:     &models.UserFollowedPlaylist{UserID: userID, PlaylistID: playlistID},
			table:   &models.UserFollowedPlaylist{},
			keys:    map[string]interface{}{"user_id": userID, "playlist_id": playlistID},
			object:  &models.Playlist{},
			id:      playlistID,
			counter: "followers",
		},
		setColumn: "playlist_id",
		added:     "Playlist followed",
		removed:   "Playlist unfollowed",
	}, userID)
}

type toggleSpec struct {
	target    interface{}
	what      string
	check     func(tx *gorm.DB) error // replaces the existence check when set
	m         membership
	setColumn string
	added     string
	removed   string
}

func (s *UserService) toggle(ctx context.Context, spec toggleSpec, userID uuid.UUID) (*ToggleResult, error) {
	result := &ToggleResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.User{}, userID, "user"); err != nil {
			return err
		}
		if spec.check != nil {
			if err := spec.check(tx); err != nil {
				return err
			}
		} else if err := ensureExists(tx, spec.target, spec.m.id, spec.what); err != nil {
			return err
		}

		added, err := spec.m.toggle(tx)
		if err != nil {
			return err
		}
		result.Added = added

		ids, err := pluckIDs(tx, spec.m.table, spec.setColumn, "created_at", "user_id = ?", userID)
		if err != nil {
			return UpstreamError("failed to load updated set", err)
		}
		result.IDs = ids
		return nil
	})
	if err != nil {
		return nil, dbError(err, spec.what)
	}

	result.Message = spec.removed
	if result.Added {
		result.Message = spec.added
	}
	log.Debug().Str("user_id", userID.String()).Str(spec.what, spec.m.id.String()).Bool("added", result.Added).Msg("membership toggled")
	return result, nil
}
