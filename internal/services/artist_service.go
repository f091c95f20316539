package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/pkg/validation"
	"gorm.io/gorm"
)

type ArtistService struct {
	db    *gorm.DB
	media MediaStore
}

func NewArtistService(db *gorm.DB, media MediaStore) *ArtistService {
	return &ArtistService{db: db, media: media}
}

type CreateArtistInput struct {
	Name       string   `json:"name" form:"name" validate:"required,max=100"`
	Bio        string   `json:"bio" form:"bio" validate:"max=2000"`
	Genres     []string `json:"genres" form:"genres"`
	IsVerified bool     `json:"isVerified" form:"isVerified"`
}

type UpdateArtistInput struct {
	Name       *string  `json:"name" form:"name" validate:"omitempty,min=1,max=100"`
	Bio        *string  `json:"bio" form:"bio" validate:"omitempty,max=2000"`
	Genres     []string `json:"genres" form:"genres"`
	IsVerified *bool    `json:"isVerified" form:"isVerified"`
}

// Create adds an artist. imagePath is an optional staged upload.
func (s *ArtistService) Create(ctx context.Context, in CreateArtistInput, imagePath string) (*models.Artist, error) {
	in.Name = validation.SanitizeString(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureNameFree(db, in.Name, uuid.Nil); err != nil {
		return nil, err
	}

	artist := &models.Artist{
		Name:       in.Name,
		Bio:        in.Bio,
		Genres:     cleanGenres(in.Genres),
		IsVerified: in.IsVerified,
	}
	if imagePath != "" {
		url, err := s.media.Upload(ctx, imagePath, FolderArtists)
		if err != nil {
			return nil, err
		}
		artist.Image = url
	}

	if err := db.Create(artist).Error; err != nil {
		return nil, UpstreamError("failed to create artist", err)
	}
	artist.Albums, artist.Songs = []uuid.UUID{}, []uuid.UUID{}

	log.Info().Str("artist_id", artist.ID.String()).Str("name", artist.Name).Msg("artist created")
	return artist, nil
}

// List returns artists by follower count. Genre matches one entry of the
// genres list, search matches the name.
func (s *ArtistService) List(ctx context.Context, q ListQuery) (*Page[models.Artist], error) {
	q = q.normalized()
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Artist{})
	if q.Genre != "" {
		query = query.Where("LOWER(genres) LIKE ?", likePattern(`"`+q.Genre+`"`))
	}
	if q.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(q.Search))
	}

	var artists []models.Artist
	total, err := paginate(query, q, "followers DESC, name", &artists)
	if err != nil {
		return nil, UpstreamError("failed to list artists", err)
	}
	if err := loadArtistRefs(db, pointers(artists)...); err != nil {
		return nil, err
	}
	return newPage(artists, q, total), nil
}

// Top returns the most followed artists.
func (s *ArtistService) Top(ctx context.Context) ([]models.Artist, error) {
	db := s.db.WithContext(ctx)
	artists := []models.Artist{}
	if err := db.Order("followers DESC, name").Limit(topLimit).Find(&artists).Error; err != nil {
		return nil, UpstreamError("failed to load top artists", err)
	}
	if err := loadArtistRefs(db, pointers(artists)...); err != nil {
		return nil, err
	}
	return artists, nil
}

// TopSongs returns the most played songs of an artist.
func (s *ArtistService) TopSongs(ctx context.Context, rawID string) ([]models.Song, error) {
	id, err := parseID(rawID, "artist")
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := ensureExists(db, &models.Artist{}, id, "artist"); err != nil {
		return nil, err
	}

	songs := []models.Song{}
	err = db.Preload("Artist").Preload("Album").
		Where("artist_id = ?", id).
		Order("plays DESC, title").
		Limit(topLimit).
		Find(&songs).Error
	if err != nil {
		return nil, UpstreamError("failed to load top songs", err)
	}
	if err := loadSongRefs(db, pointers(songs)...); err != nil {
		return nil, err
	}
	return songs, nil
}

// Get returns one artist with its albums and songs.
func (s *ArtistService) Get(ctx context.Context, rawID string) (*models.Artist, error) {
	id, err := parseID(rawID, "artist")
	if err != nil {
		return nil, err
	}
	return s.get(s.db.WithContext(ctx), id)
}

func (s *ArtistService) get(db *gorm.DB, id uuid.UUID) (*models.Artist, error) {
	var artist models.Artist
	if err := db.First(&artist, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "artist")
	}
	if err := loadArtistRefs(db, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Update changes the fields present in in. imagePath replaces the image.
func (s *ArtistService) Update(ctx context.Context, rawID string, in UpdateArtistInput, imagePath string) (*models.Artist, error) {
	id, err := parseID(rawID, "artist")
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
	var artist models.Artist
	if err := db.First(&artist, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "artist")
	}

	var cols []string
	if in.Name != nil && *in.Name != artist.Name {
		if err := s.ensureNameFree(db, *in.Name, id); err != nil {
			return nil, err
		}
		artist.Name = *in.Name
		cols = append(cols, "name")
	}
	if in.Bio != nil {
		artist.Bio = *in.Bio
		cols = append(cols, "bio")
	}
	if in.Genres != nil {
		artist.Genres = cleanGenres(in.Genres)
		cols = append(cols, "genres")
	}
	if in.IsVerified != nil {
		artist.IsVerified = *in.IsVerified
		cols = append(cols, "is_verified")
	}
	if imagePath != "" {
		url, err := s.media.Upload(ctx, imagePath, FolderArtists)
		if err != nil {
			return nil, err
		}
		artist.Image = url
		cols = append(cols, "image")
	}

	if len(cols) > 0 {
		if err := db.Model(&artist).Select(cols).Updates(&artist).Error; err != nil {
			return nil, UpstreamError("failed to update artist", err)
		}
	}
	return s.get(db, id)
}

// Delete removes an artist together with its songs and albums, and drops
// it from followers and featured credits.
func (s *ArtistService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "artist")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Artist{}, id, "artist"); err != nil {
			return err
		}

		songIDs, err := pluckIDs(tx, &models.Song{}, "id", "id", "artist_id = ?", id)
		if err != nil {
			return UpstreamError("failed to load artist songs", err)
		}
		if err := deleteSongs(tx, songIDs); err != nil {
			return err
		}

		albumIDs, err := pluckIDs(tx, &models.Album{}, "id", "id", "artist_id = ?", id)
		if err != nil {
			return UpstreamError("failed to load artist albums", err)
		}
		if err := deleteAlbums(tx, albumIDs); err != nil {
			return err
		}

		if err := tx.Where("artist_id = ?", id).Delete(&models.UserFollowedArtist{}).Error; err != nil {
			return UpstreamError("failed to remove artist followers", err)
		}
		if err := tx.Where("artist_id = ?", id).Delete(&models.SongFeaturedArtist{}).Error; err != nil {
			return UpstreamError("failed to remove featured credits", err)
		}
		if err := tx.Delete(&models.Artist{}, "id = ?", id).Error; err != nil {
			return UpstreamError("failed to delete artist", err)
		}
		return nil
	})
	if err != nil {
		return dbError(err, "artist")
	}

	log.Info().Str("artist_id", id.String()).Msg("artist deleted")
	return nil
}

func (s *ArtistService) ensureNameFree(db *gorm.DB, name string, self uuid.UUID) error {
	var n int64
	if err := db.Model(&models.Artist{}).Where("name = ? AND id <> ?", name, self).Count(&n).Error; err != nil {
		return UpstreamError("failed to look up artist", err)
	}
	if n > 0 {
		return AlreadyExistsError("artist %q already exists", name)
	}
	return nil
}

// cleanGenres trims entries, drops empty ones and keeps the first of any
// repeated genre.
func cleanGenres(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, g := range in {
		g = validation.SanitizeString(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
