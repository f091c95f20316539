package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/pkg/validation"
	"gorm.io/gorm"
)

type PlaylistService struct {
	db    *gorm.DB
	media MediaStore
}

func NewPlaylistService(db *gorm.DB, media MediaStore) *PlaylistService {
	return &PlaylistService{db: db, media: media}
}

type CreatePlaylistInput struct {
	Name        string `json:"name" form:"name" validate:"required,min=3,max=50"`
	Description string `json:"description" form:"description" validate:"omitempty,min=10,max=200"`
	IsPublic    bool   `json:"isPublic" form:"isPublic"`
}

type UpdatePlaylistInput struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,min=3,max=50"`
	Description *string `json:"description" form:"description" validate:"omitempty,min=10,max=200"`
	IsPublic    *bool   `json:"isPublic" form:"isPublic"`
}

type CollaboratorInput struct {
	UserID string `json:"userId" form:"userId" validate:"required"`
}

// Create adds a playlist owned by creatorID. Names are unique per creator.
func (s *PlaylistService) Create(ctx context.Context, creatorID uuid.UUID, in CreatePlaylistInput, coverPath string) (*models.Playlist, error) {
	in.Name = validation.SanitizeString(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureNameFree(db, creatorID, in.Name, uuid.Nil); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		Name:        in.Name,
		Description: in.Description,
		CreatorID:   creatorID,
		IsPublic:    in.IsPublic,
	}
	if coverPath != "" {
		url, err := s.media.Upload(ctx, coverPath, FolderPlaylists)
		if err != nil {
			return nil, err
		}
		playlist.CoverImage = url
	}

	if err := db.Create(playlist).Error; err != nil {
		return nil, UpstreamError("failed to create playlist", err)
	}

	log.Info().Str("playlist_id", playlist.ID.String()).Str("creator_id", creatorID.String()).Msg("playlist created")
	return s.get(db, playlist.ID)
}

// ListPublic returns public playlists by follower count.
func (s *PlaylistService) ListPublic(ctx context.Context, q ListQuery) (*Page[models.Playlist], error) {
	q = q.normalized()
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Playlist{}).Where("is_public = ?", true)
	if q.Search != "" {
		pattern := likePattern(q.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var playlists []models.Playlist
	total, err := paginate(query, q, "followers DESC, name", &playlists, "Creator")
	if err != nil {
		return nil, UpstreamError("failed to list playlists", err)
	}
	if err := loadPlaylistRefs(db, pointers(playlists)...); err != nil {
		return nil, err
	}
	return newPage(playlists, q, total), nil
}

// Featured returns the most followed public playlists.
func (s *PlaylistService) Featured(ctx context.Context) ([]models.Playlist, error) {
	db := s.db.WithContext(ctx)
	playlists := []models.Playlist{}
	err := db.Preload("Creator").
		Where("is_public = ?", true).
		Order("followers DESC, name").
		Limit(topLimit).
		Find(&playlists).Error
	if err != nil {
		return nil, UpstreamError("failed to load featured playlists", err)
	}
	if err := loadPlaylistRefs(db, pointers(playlists)...); err != nil {
		return nil, err
	}
	return playlists, nil
}

// ListForUser returns the playlists userID created or collaborates on.
func (s *PlaylistService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Playlist, error) {
	db := s.db.WithContext(ctx)
	collaborating := db.Model(&models.PlaylistCollaborator{}).Select("playlist_id").Where("user_id = ?", userID)

	playlists := []models.Playlist{}
	err := db.Preload("Creator").
		Where("creator_id = ? OR id IN (?)", userID, collaborating).
		Order("updated_at DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, UpstreamError("failed to load playlists", err)
	}
	if err := loadPlaylistRefs(db, pointers(playlists)...); err != nil {
		return nil, err
	}
	return playlists, nil
}

// Get returns a playlist if viewerID may see it. A nil viewerID is an
// anonymous caller.
func (s *PlaylistService) Get(ctx context.Context, rawID string, viewerID *uuid.UUID) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if _, err := s.authorize(db, id, viewerID, ActionView); err != nil {
		return nil, err
	}
	return s.get(db, id)
}

func (s *PlaylistService) get(db *gorm.DB, id uuid.UUID) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := db.Preload("Creator").First(&playlist, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "playlist")
	}
	if err := loadPlaylistRefs(db, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// authorize loads the playlist and checks that userID may perform action.
func (s *PlaylistService) authorize(db *gorm.DB, id uuid.UUID, userID *uuid.UUID, action PlaylistAction) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := db.First(&playlist, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "playlist")
	}
	role, err := playlistRole(db, &playlist, userID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizePlaylist(role, action, playlist.IsPublic); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Update changes details and privacy. Both are reserved to the creator.
func (s *PlaylistService) Update(ctx context.Context, rawID string, userID uuid.UUID, in UpdatePlaylistInput, coverPath string) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		*in.Name = validation.SanitizeString(*in.Name)
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	action := ActionEditDetails
	if in.IsPublic != nil {
		action = ActionManagePrivacy
	}
	playlist, err := s.authorize(db, id, &userID, action)
	if err != nil {
		return nil, err
	}

	var cols []string
	if in.Name != nil && *in.Name != playlist.Name {
		if err := s.ensureNameFree(db, playlist.CreatorID, *in.Name, id); err != nil {
			return nil, err
		}
		playlist.Name = *in.Name
		cols = append(cols, "name")
	}
	if in.Description != nil {
		playlist.Description = *in.Description
		cols = append(cols, "description")
	}
	if in.IsPublic != nil {
		playlist.IsPublic = *in.IsPublic
		cols = append(cols, "is_public")
	}
	if coverPath != "" {
		url, err := s.media.Upload(ctx, coverPath, FolderPlaylists)
		if err != nil {
			return nil, err
		}
		playlist.CoverImage = url
		cols = append(cols, "cover_image")
	}

	if len(cols) > 0 {
		if err := db.Model(playlist).Select(cols).Updates(playlist).Error; err != nil {
			return nil, UpstreamError("failed to update playlist", err)
		}
	}
	return s.get(db, id)
}

// Delete removes the playlist, its entries, collaborators and followers.
func (s *PlaylistService) Delete(ctx context.Context, rawID string, userID uuid.UUID) error {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.authorize(tx, id, &userID, ActionDelete); err != nil {
			return err
		}
		links := []struct {
			model interface{}
			what  string
		}{
			{&models.PlaylistSong{}, "playlist entries"},
			{&models.PlaylistCollaborator{}, "collaborators"},
			{&models.UserFollowedPlaylist{}, "playlist followers"},
		}
		for _, l := range links {
			if err := tx.Where("playlist_id = ?", id).Delete(l.model).Error; err != nil {
				return UpstreamError("failed to remove "+l.what, err)
			}
		}
		if err := tx.Delete(&models.Playlist{}, "id = ?", id).Error; err != nil {
			return UpstreamError("failed to delete playlist", err)
		}
		return nil
	})
	if err != nil {
		return dbError(err, "playlist")
	}

	log.Info().Str("playlist_id", id.String()).Msg("playlist deleted")
	return nil
}

// AddSongs appends songs to the end of the playlist. Ids that are already
// on the playlist or do not resolve to a song are skipped.
func (s *PlaylistService) AddSongs(ctx context.Context, rawID string, userID uuid.UUID, in SongIDsInput) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	songIDs, err := parseIDs(in.SongIDs, "song")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.authorize(tx, id, &userID, ActionEditSongs); err != nil {
			return err
		}

		existing, err := pluckIDs(tx, &models.Song{}, "id", "id", "id IN ?", songIDs)
		if err != nil {
			return UpstreamError("failed to look up songs", err)
		}
		present, err := pluckIDs(tx, &models.PlaylistSong{}, "song_id", "position", "playlist_id = ?", id)
		if err != nil {
			return UpstreamError("failed to load playlist songs", err)
		}

		resolvable := make(map[uuid.UUID]bool, len(existing))
		for _, sid := range existing {
			resolvable[sid] = true
		}
		member := make(map[uuid.UUID]bool, len(present))
		for _, sid := range present {
			member[sid] = true
		}

		var last struct{ LastPosition int }
		if err := tx.Model(&models.PlaylistSong{}).Select("COALESCE(MAX(position), 0) AS last_position").Where("playlist_id = ?", id).Scan(&last).Error; err != nil {
			return UpstreamError("failed to load playlist order", err)
		}

		var rows []models.PlaylistSong
		for _, sid := range songIDs {
			if !resolvable[sid] || member[sid] {
				continue
			}
			last.LastPosition++
			rows = append(rows, models.PlaylistSong{PlaylistID: id, SongID: sid, Position: last.LastPosition})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return UpstreamError("failed to add songs to playlist", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "playlist")
	}
	return s.get(db, id)
}

// RemoveSong takes a song off the playlist.
func (s *PlaylistService) RemoveSong(ctx context.Context, rawID string, userID uuid.UUID, rawSongID string) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	songID, err := parseID(rawSongID, "song")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.authorize(tx, id, &userID, ActionEditSongs); err != nil {
			return err
		}
		res := tx.Where("playlist_id = ? AND song_id = ?", id, songID).Delete(&models.PlaylistSong{})
		if res.Error != nil {
			return UpstreamError("failed to remove song from playlist", res.Error)
		}
		if res.RowsAffected == 0 {
			return ValidationError("song is not in this playlist")
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "playlist")
	}
	return s.get(db, id)
}

// AddCollaborator grants another user song editing rights. Adding an
// existing collaborator is an error, unlike adding an existing song.
func (s *PlaylistService) AddCollaborator(ctx context.Context, rawID string, userID uuid.UUID, in CollaboratorInput) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	collaboratorID, err := parseID(in.UserID, "user")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		playlist, err := s.authorize(tx, id, &userID, ActionManageCollaborators)
		if err != nil {
			return err
		}
		if collaboratorID == playlist.CreatorID {
			return ValidationError("the creator cannot be a collaborator")
		}
		if err := ensureExists(tx, &models.User{}, collaboratorID, "user"); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.PlaylistCollaborator{}).Where("playlist_id = ? AND user_id = ?", id, collaboratorID).Count(&n).Error; err != nil {
			return UpstreamError("failed to look up collaborators", err)
		}
		if n > 0 {
			return AlreadyExistsError("user is already a collaborator")
		}
		if err := tx.Create(&models.PlaylistCollaborator{PlaylistID: id, UserID: collaboratorID}).Error; err != nil {
			return UpstreamError("failed to add collaborator", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "playlist")
	}

	log.Info().Str("playlist_id", id.String()).Str("user_id", collaboratorID.String()).Msg("collaborator added")
	return s.get(db, id)
}

// RemoveCollaborator revokes a collaborator.
func (s *PlaylistService) RemoveCollaborator(ctx context.Context, rawID string, userID uuid.UUID, in CollaboratorInput) (*models.Playlist, error) {
	id, err := parseID(rawID, "playlist")
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	collaboratorID, err := parseID(in.UserID, "user")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.authorize(tx, id, &userID, ActionManageCollaborators); err != nil {
			return err
		}
		res := tx.Where("playlist_id = ? AND user_id = ?", id, collaboratorID).Delete(&models.PlaylistCollaborator{})
		if res.Error != nil {
			return UpstreamError("failed to remove collaborator", res.Error)
		}
		if res.RowsAffected == 0 {
			return ValidationError("user is not a collaborator")
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "playlist")
	}
	return s.get(db, id)
}

func (s *PlaylistService) ensureNameFree(db *gorm.DB, creatorID uuid.UUID, name string, self uuid.UUID) error {
	var n int64
	err := db.Model(&models.Playlist{}).
		Where("creator_id = ? AND name = ? AND id <> ?", creatorID, name, self).
		Count(&n).Error
	if err != nil {
		return UpstreamError("failed to look up playlist", err)
	}
	if n > 0 {
		return AlreadyExistsError("you already have a playlist named %q", name)
	}
	return nil
}
