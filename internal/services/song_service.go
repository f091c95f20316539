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

type SongService struct {
	db    *gorm.DB
	media MediaStore
}

func NewSongService(db *gorm.DB, media MediaStore) *SongService {
	return &SongService{db: db, media: media}
}

type CreateSongInput struct {
	Title           string     `json:"title" form:"title" validate:"required,max=200"`
	Artist          string     `json:"artist" form:"artist" validate:"required"`
	Album           string     `json:"album" form:"album"`
	FeaturedArtists []string   `json:"featuredArtists" form:"featuredArtists"`
	Duration        int        `json:"duration" form:"duration" validate:"required,gt=0"`
	ReleasedDate    *time.Time `json:"releasedDate" form:"releasedDate" time_format:"2006-01-02"`
	Genre           string     `json:"genre" form:"genre" validate:"max=120"`
	Lyrics          string     `json:"lyrics" form:"lyrics"`
	IsExplicit      bool       `json:"isExplicit" form:"isExplicit"`
}

// UpdateSongInput changes a song. An empty Album clears the album reference.
type UpdateSongInput struct {
	Title           *string    `json:"title" form:"title" validate:"omitempty,min=1,max=200"`
	Artist          *string    `json:"artist" form:"artist"`
	Album           *string    `json:"album" form:"album"`
	FeaturedArtists []string   `json:"featuredArtists" form:"featuredArtists"`
	Duration        *int       `json:"duration" form:"duration" validate:"omitempty,gt=0"`
	ReleasedDate    *time.Time `json:"releasedDate" form:"releasedDate" time_format:"2006-01-02"`
	Genre           *string    `json:"genre" form:"genre" validate:"omitempty,max=120"`
	Lyrics          *string    `json:"lyrics" form:"lyrics"`
	IsExplicit      *bool      `json:"isExplicit" form:"isExplicit"`
}

// refs are the resolved references of a song write.
type songRefs struct {
	artist   uuid.UUID
	album    *uuid.UUID
	featured []uuid.UUID
}

// resolve checks that every referenced artist and album exists.
func (r songRefs) resolve(tx *gorm.DB) error {
	if err := ensureExists(tx, &models.Artist{}, r.artist, "artist"); err != nil {
		return err
	}
	if r.album != nil {
		if err := ensureExists(tx, &models.Album{}, *r.album, "album"); err != nil {
			return err
		}
	}
	for _, id := range r.featured {
		if err := ensureExists(tx, &models.Artist{}, id, "featured artist"); err != nil {
			return err
		}
	}
	return nil
}

// Create adds a song under an existing artist and, optionally, album.
// audioPath is required, coverPath is optional.
func (s *SongService) Create(ctx context.Context, in CreateSongInput, audioPath, coverPath string) (*models.Song, error) {
	in.Title = validation.SanitizeString(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	if audioPath == "" {
		return nil, ValidationError("audio file is required")
	}

	refs := songRefs{}
	var err error
	if refs.artist, err = parseID(in.Artist, "artist"); err != nil {
		return nil, err
	}
	if album := strings.TrimSpace(in.Album); album != "" {
		albumID, err := parseID(album, "album")
		if err != nil {
			return nil, err
		}
		refs.album = &albumID
	}
	if refs.featured, err = parseIDs(in.FeaturedArtists, "featured artist"); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := refs.resolve(db); err != nil {
		return nil, err
	}

	song := &models.Song{
		Title:      in.Title,
		ArtistID:   refs.artist,
		AlbumID:    refs.album,
		Duration:   in.Duration,
		Genre:      in.Genre,
		Lyrics:     in.Lyrics,
		IsExplicit: in.IsExplicit,
	}
	if in.ReleasedDate != nil {
		song.ReleasedDate = in.ReleasedDate.UTC()
	}

	if song.AudioURL, err = s.media.Upload(ctx, audioPath, FolderSongs); err != nil {
		return nil, err
	}
	if coverPath != "" {
		if song.CoverImage, err = s.media.Upload(ctx, coverPath, FolderCovers); err != nil {
			return nil, err
		}
	} else if refs.album != nil {
		var album models.Album
		if err := db.Select("cover_image").First(&album, "id = ?", *refs.album).Error; err == nil {
			song.CoverImage = album.CoverImage
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := refs.resolve(tx); err != nil {
			return err
		}
		if err := tx.Create(song).Error; err != nil {
			return UpstreamError("failed to create song", err)
		}
		return setFeaturedArtists(tx, song.ID, refs.featured)
	})
	if err != nil {
		return nil, dbError(err, "song")
	}

	log.Info().Str("song_id", song.ID.String()).Str("artist_id", refs.artist.String()).Msg("song created")
	return s.get(db, song.ID)
}

// List returns songs, newest first.
func (s *SongService) List(ctx context.Context, q ListQuery) (*Page[models.Song], error) {
	q = q.normalized()
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Song{})
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

	var songs []models.Song
	total, err := paginate(query, q, "released_date DESC, title", &songs, "Artist", "Album")
	if err != nil {
		return nil, UpstreamError("failed to list songs", err)
	}
	if err := loadSongRefs(db, pointers(songs)...); err != nil {
		return nil, err
	}
	return newPage(songs, q, total), nil
}

// Top returns the most played songs.
func (s *SongService) Top(ctx context.Context) ([]models.Song, error) {
	return s.ranked(ctx, "plays DESC, title", "failed to load top songs")
}

// NewReleases returns the most recently released songs. An empty catalog
// is reported as NotFound.
func (s *SongService) NewReleases(ctx context.Context) ([]models.Song, error) {
	songs, err := s.ranked(ctx, "released_date DESC, title", "failed to load new releases")
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, NotFoundError("new releases")
	}
	return songs, nil
}

func (s *SongService) ranked(ctx context.Context, order, failure string) ([]models.Song, error) {
	db := s.db.WithContext(ctx)
	songs := []models.Song{}
	if err := db.Preload("Artist").Preload("Album").Order(order).Limit(topLimit).Find(&songs).Error; err != nil {
		return nil, UpstreamError(failure, err)
	}
	if err := loadSongRefs(db, pointers(songs)...); err != nil {
		return nil, err
	}
	return songs, nil
}

// Get returns a song and counts the play.
func (s *SongService) Get(ctx context.Context, rawID string) (*models.Song, error) {
	id, err := parseID(rawID, "song")
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.Song{}).Where("id = ?", id).UpdateColumn("plays", gorm.Expr("plays + ?", 1))
	if res.Error != nil {
		return nil, UpstreamError("failed to count play", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFoundError("song")
	}
	return s.get(db, id)
}

func (s *SongService) get(db *gorm.DB, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	if err := db.Preload("Artist").Preload("Album").First(&song, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "song")
	}
	if err := loadSongRefs(db, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// Update changes the fields present in in. A non-nil FeaturedArtists
// replaces the whole set.
func (s *SongService) Update(ctx context.Context, rawID string, in UpdateSongInput, audioPath, coverPath string) (*models.Song, error) {
	id, err := parseID(rawID, "song")
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
	var song models.Song
	if err := db.First(&song, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "song")
	}

	var cols []string
	refs := songRefs{artist: song.ArtistID, album: song.AlbumID}
	if in.Artist != nil {
		if refs.artist, err = parseID(*in.Artist, "artist"); err != nil {
			return nil, err
		}
		song.ArtistID = refs.artist
		cols = append(cols, "artist_id")
	}
	if in.Album != nil {
		refs.album = nil
		if album := strings.TrimSpace(*in.Album); album != "" {
			albumID, err := parseID(album, "album")
			if err != nil {
				return nil, err
			}
			refs.album = &albumID
		}
		song.AlbumID = refs.album
		cols = append(cols, "album_id")
	}
	if in.FeaturedArtists != nil {
		if refs.featured, err = parseIDs(in.FeaturedArtists, "featured artist"); err != nil {
			return nil, err
		}
	}
	if err := refs.resolve(db); err != nil {
		return nil, err
	}

	if in.Title != nil {
		song.Title = *in.Title
		cols = append(cols, "title")
	}
	if in.Duration != nil {
		song.Duration = *in.Duration
		cols = append(cols, "duration")
	}
	if in.ReleasedDate != nil {
		song.ReleasedDate = in.ReleasedDate.UTC()
		cols = append(cols, "released_date")
	}
	if in.Genre != nil {
		song.Genre = *in.Genre
		cols = append(cols, "genre")
	}
	if in.Lyrics != nil {
		song.Lyrics = *in.Lyrics
		cols = append(cols, "lyrics")
	}
	if in.IsExplicit != nil {
		song.IsExplicit = *in.IsExplicit
		cols = append(cols, "is_explicit")
	}
	if audioPath != "" {
		if song.AudioURL, err = s.media.Upload(ctx, audioPath, FolderSongs); err != nil {
			return nil, err
		}
		cols = append(cols, "audio_url")
	}
	if coverPath != "" {
		if song.CoverImage, err = s.media.Upload(ctx, coverPath, FolderCovers); err != nil {
			return nil, err
		}
		cols = append(cols, "cover_image")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := refs.resolve(tx); err != nil {
			return err
		}
		if len(cols) > 0 {
			if err := tx.Model(&song).Select(cols).Updates(&song).Error; err != nil {
				return UpstreamError("failed to update song", err)
			}
		}
		if in.FeaturedArtists != nil {
			if err := tx.Where("song_id = ?", id).Delete(&models.SongFeaturedArtist{}).Error; err != nil {
				return UpstreamError("failed to replace featured artists", err)
			}
			return setFeaturedArtists(tx, id, refs.featured)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "song")
	}
	return s.get(db, id)
}

// Delete removes a song from albums, playlists, likes and featured credits,
// then removes the song.
func (s *SongService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "song")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Song{}, id, "song"); err != nil {
			return err
		}
		return deleteSongs(tx, []uuid.UUID{id})
	})
	if err != nil {
		return dbError(err, "song")
	}

	log.Info().Str("song_id", id.String()).Msg("song deleted")
	return nil
}

func setFeaturedArtists(tx *gorm.DB, songID uuid.UUID, artists []uuid.UUID) error {
	if len(artists) == 0 {
		return nil
	}
	links := make([]models.SongFeaturedArtist, len(artists))
	for i, a := range artists {
		links[i] = models.SongFeaturedArtist{SongID: songID, ArtistID: a}
	}
	if err := tx.Create(&links).Error; err != nil {
		return UpstreamError("failed to link featured artists", err)
	}
	return nil
}

// deleteSongs drops every link row pointing at the songs, then the songs.
func deleteSongs(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	links := []struct {
		model interface{}
		what  string
	}{
		{&models.PlaylistSong{}, "playlist entries"},
		{&models.UserLikedSong{}, "song likes"},
		{&models.SongFeaturedArtist{}, "featured credits"},
	}
	for _, l := range links {
		if err := tx.Where("song_id IN ?", ids).Delete(l.model).Error; err != nil {
			return UpstreamError("failed to remove "+l.what, err)
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Song{}).Error; err != nil {
		return UpstreamError("failed to delete songs", err)
	}
	return nil
}
