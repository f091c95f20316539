package services

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/config"
)

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestStageUpload(t *testing.T) {
	cfg := config.New()
	cfg.UploadTempDir = filepath.Join(t.TempDir(), "staging")
	storage := NewStorageService(cfg)

	path, err := storage.StageUpload(fileHeader(t, "Track.MP3", []byte("audio bytes")))
	require.NoError(t, err)
	assert.Equal(t, cfg.UploadTempDir, filepath.Dir(path))
	assert.Equal(t, ".mp3", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))

	storage.Discard(path, "", filepath.Join(cfg.UploadTempDir, "missing"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStageUploadEnforcesLimit(t *testing.T) {
	cfg := config.New()
	cfg.UploadTempDir = t.TempDir()
	cfg.MaxUploadSizeMB = 0
	storage := NewStorageService(cfg)

	_, err := storage.StageUpload(fileHeader(t, "big.png", []byte("more than zero bytes")))
	requireKind(t, err, KindValidation)

	entries, err := os.ReadDir(cfg.UploadTempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
