package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/pkg/validation"
	"gorm.io/gorm"
)

type AlbumService struct {
	db    *gorm.DB
	media MediaStore
}

func NewAlbumService(db *gorm.DB, media MediaStore) *AlbumService {
	return &AlbumService{db: db, media: media}
}

type CreateAlbumInput struct {
	Title        string     `json:"title" form:"title" validate:"required,min=3,max=100"`
	Artist       string     `json:"artist" form:"artist" validate:"required"`
	ReleasedDate *time.Time `json:"releasedDate" form:"releasedDate" time_format:"2006-01-02"`
	Genre        string     `json:"genre" form:"genre" validate:"max=120"`
	Description  string     `json:"description" form:"description" validate:"omitempty,min=10,max=200"`
	IsExplicit   bool       `json:"isExplicit" form:"isExplicit"`
}

type UpdateAlbumInput struct {
	Title        *string    `json:"title" form:"title" validate:"omitempty,min=3,max=100"`
	Artist       *string    `json:"artist" form:"artist"`
	ReleasedDate *time.Time `json:"releasedDate" form:"releasedDate" time_format:"2006-01-02"`
	Genre        *string    `json:"genre" form:"genre" validate:"omitempty,max=120"`
	Description  *string    `json:"description" form:"description" validate:"omitempty,min=10,max=200"`
	IsExplicit   *bool      `json:"isExplicit" form:"isExplicit"`
}

type SongIDsInput struct {
	SongIDs []string `json:"songIds" form:"songIds" validate:"required,min=1"`
}

// Create adds an album under an existing artist. coverPath is an optional
// staged upload.
func (s *AlbumService) Create(ctx context.Context, in CreateAlbumInput, coverPath string) (*models.Album, error) {
	in.Title = validation.SanitizeString(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	artistID, err := parseID(in.Artist, "artist")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := ensureExists(db, &models.Artist{}, artistID, "artist"); err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(db, in.Title, uuid.Nil); err != nil {
		return nil, err
	}

	album := &models.Album{
		Title:       in.Title,
		ArtistID:    artistID,
		Genre:       in.Genre,
		Description: in.Description,
		IsExplicit:  in.IsExplicit,
	}
	if in.ReleasedDate != nil {
		album.ReleasedDate = in.ReleasedDate.UTC()
	}
	if coverPath != "" {
		url, err := s.media.Upload(ctx, coverPath, FolderAlbums)
		if err != nil {
			return nil, err
		}
		album.CoverImage = url
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// the artist may have gone away while the cover was uploading
		if err := ensureExists(tx, &models.Artist{}, artistID, "artist"); err != nil {
			return err
		}
		if err := tx.Create(album).Error; err != nil {
			return UpstreamError("failed to create album", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "album")
	}

	log.Info().Str("album_id", album.ID.String()).Str("artist_id", artistID.String()).Msg("album created")
	return s.get(db, album.ID)
}

// List returns albums, newest first.
func (s *AlbumService) List(ctx context.Context, q ListQuery) (*Page[models.Album], error) {
	q = q.normalized()
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Album{})
	if q.Genre != "" {
		query = query.Where("LOWER(genre) = ?", strings.ToLower(q.Genre))
	}
	if q.Artist != "" {
		artistID, err := parseID(q.Artist, "artist")
		if err != nil {
			return nil, err
		}
		query = query.Where("artist_id = ?", artistID)
	}
	if q.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(q.Search))
	}

	var albums []models.Album
	total, err := paginate(query, q, "released_date DESC, title", &albums, "Artist")
	if err != nil {
		return nil, UpstreamError("failed to list albums", err)
	}
	if err := loadAlbumRefs(db, pointers(albums)...); err != nil {
		return nil, err
	}
	return newPage(albums, q, total), nil
}

// NewReleases returns the most recently released albums.
func (s *AlbumService) NewReleases(ctx context.Context) ([]models.Album, error) {
	db := s.db.WithContext(ctx)
	albums := []models.Album{}
	if err := db.Preload("Artist").Order("released_date DESC, title").Limit(topLimit).Find(&albums).Error; err != nil {
		return nil, UpstreamError("failed to load new releases", err)
	}
	if err := loadAlbumRefs(db, pointers(albums)...); err != nil {
		return nil, err
	}
	return albums, nil
}

func (s *AlbumService) Get(ctx context.Context, rawID string) (*models.Album, error) {
	id, err := parseID(rawID, "album")
	if err != nil {
		return nil, err
	}
	return s.get(s.db.WithContext(ctx), id)
}

func (s *AlbumService) get(db *gorm.DB, id uuid.UUID) (*models.Album, error) {
	var album models.Album
	if err := db.Preload("Artist").First(&album, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "album")
	}
	if err := loadAlbumRefs(db, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Update changes the fields present in in. Moving an album to another
// artist requires that artist to exist.
func (s *AlbumService) Update(ctx context.Context, rawID string, in UpdateAlbumInput, coverPath string) (*models.Album, error) {
	id, err := parseID(rawID, "album")
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		*in.Title = validation.SanitizeString(*in.Title)
	}
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	var album models.Album
	if err := db.First(&album, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "album")
	}

	var cols []string
	if in.Title != nil && *in.Title != album.Title {
		if err := s.ensureTitleFree(db, *in.Title, id); err != nil {
			return nil, err
		}
		album.Title = *in.Title
		cols = append(cols, "title")
	}
	if in.Artist != nil {
		artistID, err := parseID(*in.Artist, "artist")
		if err != nil {
			return nil, err
		}
		if err := ensureExists(db, &models.Artist{}, artistID, "artist"); err != nil {
			return nil, err
		}
		album.ArtistID = artistID
		cols = append(cols, "artist_id")
	}
	if in.ReleasedDate != nil {
		album.ReleasedDate = in.ReleasedDate.UTC()
		cols = append(cols, "released_date")
	}
	if in.Genre != nil {
		album.Genre = *in.Genre
		cols = append(cols, "genre")
	}
	if in.Description != nil {
		album.Description = *in.Description
		cols = append(cols, "description")
	}
	if in.IsExplicit != nil {
		album.IsExplicit = *in.IsExplicit
		cols = append(cols, "is_explicit")
	}
	if coverPath != "" {
		url, err := s.media.Upload(ctx, coverPath, FolderAlbums)
		if err != nil {
			return nil, err
		}
		album.CoverImage = url
		cols = append(cols, "cover_image")
	}

	if len(cols) > 0 {
		if err := db.Model(&album).Select(cols).Updates(&album).Error; err != nil {
			return nil, UpstreamError("failed to update album", err)
		}
	}
	return s.get(db, id)
}

// AddSongs moves the given songs into the album. Ids that do not resolve or
// are already on the album are skipped.
func (s *AlbumService) AddSongs(ctx context.Context, rawID string, in SongIDsInput) (*models.Album, error) {
	id, err := parseID(rawID, "album")
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
		if err := ensureExists(tx, &models.Album{}, id, "album"); err != nil {
			return err
		}
		res := tx.Model(&models.Song{}).
			Where("id IN ? AND (album_id IS NULL OR album_id <> ?)", songIDs, id).
			Update("album_id", id)
		if res.Error != nil {
			return UpstreamError("failed to add songs to album", res.Error)
		}
		log.Debug().Str("album_id", id.String()).Int64("added", res.RowsAffected).Msg("songs added to album")
		return nil
	})
	if err != nil {
		return nil, dbError(err, "album")
	}
	return s.get(db, id)
}

// RemoveSong takes a song off the album. The song itself is kept.
func (s *AlbumService) RemoveSong(ctx context.Context, rawID, rawSongID string) (*models.Album, error) {
	id, err := parseID(rawID, "album")
	if err != nil {
		return nil, err
	}
	songID, err := parseID(rawSongID, "song")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Album{}, id, "album"); err != nil {
			return err
		}
		res := tx.Model(&models.Song{}).
			Where("id = ? AND album_id = ?", songID, id).
			Update("album_id", nil)
		if res.Error != nil {
			return UpstreamError("failed to remove song from album", res.Error)
		}
		if res.RowsAffected == 0 {
			return ValidationError("song is not in this album")
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "album")
	}
	return s.get(db, id)
}

// Delete removes an album. Its songs survive with no album set.
func (s *AlbumService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "album")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Album{}, id, "album"); err != nil {
			return err
		}
		return deleteAlbums(tx, []uuid.UUID{id})
	})
	if err != nil {
		return dbError(err, "album")
	}

	log.Info().Str("album_id", id.String()).Msg("album deleted")
	return nil
}

func (s *AlbumService) ensureTitleFree(db *gorm.DB, title string, self uuid.UUID) error {
	var n int64
	if err := db.Model(&models.Album{}).Where("title = ? AND id <> ?", title, self).Count(&n).Error; err != nil {
		return UpstreamError("failed to look up album", err)
	}
	if n > 0 {
		return AlreadyExistsError("album %q already exists", title)
	}
	return nil
}

// deleteAlbums unlinks songs and likes from the albums, then removes them.
func deleteAlbums(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.Song{}).Where("album_id IN ?", ids).Update("album_id", nil).Error; err != nil {
		return UpstreamError("failed to unlink album songs", err)
	}
	if err := tx.Where("album_id IN ?", ids).Delete(&models.UserLikedAlbum{}).Error; err != nil {
		return UpstreamError("failed to remove album likes", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Album{}).Error; err != nil {
		return UpstreamError("failed to delete album", err)
	}
	return nil
}
