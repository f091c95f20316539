package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
	"golang.org/x/time/rate"
)

// Media folders, below MEDIA_FOLDER_PREFIX.
const (
	FolderArtists   = "artists"
	FolderAlbums    = "albums"
	FolderSongs     = "songs"
	FolderCovers    = "covers"
	FolderPlaylists = "playlists"
	FolderUsers     = "users"
)

// MediaStore takes over a staged local file and returns its durable URL.
// The local file is removed whether or not the upload succeeds.
type MediaStore interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
}

// objectUploader is the part of S3Service the media service needs.
type objectUploader interface {
	UploadMedia(ctx context.Context, key string, body io.Reader, ctype string) error
	MediaURL(key string) string
}

var allowedMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"audio/flac",
	"audio/x-m4a",
	"audio/mp4",
}

type MediaService struct {
	cfg      *config.Config
	uploader objectUploader
	limiter  *rate.Limiter
}

func NewMediaService(cfg *config.Config, s3Service *S3Service) *MediaService {
	return newMediaService(cfg, s3Service)
}

func newMediaService(cfg *config.Config, uploader objectUploader) *MediaService {
	limit := rate.Limit(cfg.MediaUploadRate)
	if cfg.MediaUploadRate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.MediaUploadBurst
	if burst < 1 {
		burst = 1
	}
	return &MediaService{
		cfg:      cfg,
		uploader: uploader,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Upload sniffs the staged file, pushes it to the media bucket under folder
// and returns the public URL.
func (s *MediaService) Upload(ctx context.Context, localPath, folder string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", localPath).Msg("failed to remove temp upload")
		}
	}()

	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", ValidationError("could not read uploaded file")
	}
	if !allowedMediaType(mtype) {
		return "", ValidationError("unsupported file type %s", mtype.String())
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", MediaError("upload cancelled", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", UpstreamError("failed to open staged upload", err)
	}
	defer f.Close()

	key := path.Join(s.cfg.MediaFolderPrefix, folder, uuid.New().String()+mtype.Extension())
	if err := s.uploader.UploadMedia(ctx, key, f, mtype.String()); err != nil {
		log.Error().Err(err).Str("key", key).Msg("media upload failed")
		return "", MediaError(fmt.Sprintf("failed to upload %s file", folder), err)
	}

	log.Debug().Str("key", key).Str("type", mtype.String()).Msg("media uploaded")
	return s.uploader.MediaURL(key), nil
}

func allowedMediaType(m *mimetype.MIME) bool {
	for _, t := range allowedMediaTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}
