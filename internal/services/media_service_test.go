package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/config"
)

type fakeUploader struct {
	keys   []string
	types  []string
	bodies [][]byte
	err    error
}

func (f *fakeUploader) UploadMedia(ctx context.Context, key string, body io.Reader, ctype string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	f.types = append(f.types, ctype)
	f.bodies = append(f.bodies, data)
	return nil
}

func (f *fakeUploader) MediaURL(key string) string {
	return "https://cdn.test/" + key
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func stageFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testMediaConfig() *config.Config {
	cfg := config.New()
	cfg.MediaFolderPrefix = "catalog"
	cfg.MediaUploadRate = 0
	return cfg
}

func TestMediaUpload(t *testing.T) {
	uploader := &fakeUploader{}
	svc := newMediaService(testMediaConfig(), uploader)
	path := stageFile(t, "cover.bin", pngHeader)

	url, err := svc.Upload(context.Background(), path, FolderAlbums)
	require.NoError(t, err)

	require.Len(t, uploader.keys, 1)
	key := uploader.keys[0]
	assert.True(t, strings.HasPrefix(key, "catalog/albums/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "image/png", uploader.types[0])
	assert.True(t, bytes.Equal(pngHeader, uploader.bodies[0]))
	assert.Equal(t, "https://cdn.test/"+key, url)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "staged file should be removed")
}

func TestMediaUploadRejectsUnsupportedType(t *testing.T) {
	uploader := &fakeUploader{}
	svc := newMediaService(testMediaConfig(), uploader)
	path := stageFile(t, "notes.mp3", []byte("just some text, not audio"))

	_, err := svc.Upload(context.Background(), path, FolderSongs)
	requireKind(t, err, KindValidation)
	assert.Contains(t, err.Error(), "unsupported file type")
	assert.Empty(t, uploader.keys)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "staged file should be removed")
}

func TestMediaUploadHostFailure(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("503 slow down")}
	svc := newMediaService(testMediaConfig(), uploader)
	path := stageFile(t, "cover.png", pngHeader)

	_, err := svc.Upload(context.Background(), path, FolderCovers)
	requireKind(t, err, KindUpstream)
	assert.ErrorIs(t, err, ErrMediaHost)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "staged file should be removed")
}

func TestMediaUploadHonoursCancellation(t *testing.T) {
	cfg := testMediaConfig()
	cfg.MediaUploadRate = 0.001
	cfg.MediaUploadBurst = 1
	uploader := &fakeUploader{}
	svc := newMediaService(cfg, uploader)

	_, err := svc.Upload(context.Background(), stageFile(t, "a.png", pngHeader), FolderCovers)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Upload(ctx, stageFile(t, "b.png", pngHeader), FolderCovers)
	requireKind(t, err, KindUpstream)
	assert.ErrorIs(t, err, ErrMediaHost)
	assert.Len(t, uploader.keys, 1)
}

func TestS3MediaURL(t *testing.T) {
	cfg := config.New()
	cfg.MediaBucket = "media"
	cfg.MediaS3Region = "eu-central-1"
	cfg.MediaS3AccessKeyID = "key"
	cfg.MediaS3SecretAccessKey = "secret"

	cfg.MediaS3Endpoint = ""
	cfg.MediaPublicURL = ""
	s3Service, err := NewS3Service(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/catalog/a%20b.png", s3Service.MediaURL("catalog/a b.png"))

	cfg.MediaS3Endpoint = "http://minio:9000/"
	s3Service, err = NewS3Service(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/media/catalog/x.png", s3Service.MediaURL("catalog/x.png"))

	cfg.MediaPublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/catalog/x.png", s3Service.MediaURL("catalog/x.png"))
}
