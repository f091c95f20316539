package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
)

// StorageService stages multipart uploads on local disk until the media
// store has taken them over.
type StorageService struct {
	cfg *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure the staging dir exists
	if err := os.MkdirAll(cfg.UploadTempDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", cfg.UploadTempDir).Msg("could not create upload dir")
	}
	return &StorageService{cfg: cfg}
}

// StageUpload copies fh into the staging dir and returns the local path.
// The name keeps the original extension so the media key can reuse it.
func (s *StorageService) StageUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.cfg.MaxUploadBytes() {
		return "", ValidationError("%s exceeds the %d MB upload limit", fh.Filename, s.cfg.MaxUploadSizeMB)
	}

	src, err := fh.Open()
	if err != nil {
		return "", ValidationError("could not read uploaded file %s", fh.Filename)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(s.cfg.UploadTempDir, fmt.Sprintf("%s%s", uuid.New().String(), ext))

	dst, err := os.Create(path)
	if err != nil {
		return "", UpstreamError("failed to stage upload", err)
	}
	defer dst.Close()

	// one byte past the limit is enough to detect oversized bodies
	n, err := io.Copy(dst, io.LimitReader(src, s.cfg.MaxUploadBytes()+1))
	if err != nil {
		_ = os.Remove(path)
		return "", UpstreamError("failed to stage upload", err)
	}
	if n > s.cfg.MaxUploadBytes() {
		_ = os.Remove(path)
		return "", ValidationError("%s exceeds the %d MB upload limit", fh.Filename, s.cfg.MaxUploadSizeMB)
	}
	return path, nil
}

// Discard removes staged files. Missing files are ignored since the media
// store removes what it consumed.
func (s *StorageService) Discard(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove staged upload")
		}
	}
}
