package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/config"
	"github.com/synesthesie/catalog/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeMedia records uploads instead of talking to a media host.
type fakeMedia struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeMedia) Upload(ctx context.Context, localPath, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, localPath)
	return fmt.Sprintf("https://media.test/%s/%d", folder, len(f.uploads)), nil
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	media     *fakeMedia
	auth      *AuthService
	users     *UserService
	artists   *ArtistService
	albums    *AlbumService
	songs     *SongService
	playlists *PlaylistService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := config.New()
	cfg.BcryptCost = 4
	cfg.JWTSecret = "test-secret"
	media := &fakeMedia{}

	return &testEnv{
		db:        db,
		cfg:       cfg,
		media:     media,
		auth:      NewAuthService(db, nil, cfg),
		users:     NewUserService(db, media, cfg),
		artists:   NewArtistService(db, media),
		albums:    NewAlbumService(db, media),
		songs:     NewSongService(db, media),
		playlists: NewPlaylistService(db, media),
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "secret123",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) artist(t *testing.T, name string, genres ...string) *models.Artist {
	t.Helper()
	a, err := e.artists.Create(context.Background(), CreateArtistInput{Name: name, Genres: genres}, "")
	require.NoError(t, err)
	return a
}

func (e *testEnv) album(t *testing.T, title string, artistID uuid.UUID) *models.Album {
	t.Helper()
	a, err := e.albums.Create(context.Background(), CreateAlbumInput{Title: title, Artist: artistID.String()}, "")
	require.NoError(t, err)
	return a
}

func (e *testEnv) song(t *testing.T, title string, artistID uuid.UUID, albumID *uuid.UUID) *models.Song {
	t.Helper()
	in := CreateSongInput{Title: title, Artist: artistID.String(), Duration: 180}
	if albumID != nil {
		in.Album = albumID.String()
	}
	s, err := e.songs.Create(context.Background(), in, "/tmp/staged.mp3", "")
	require.NoError(t, err)
	return s
}

func (e *testEnv) playlist(t *testing.T, creatorID uuid.UUID, name string, public bool) *models.Playlist {
	t.Helper()
	p, err := e.playlists.Create(context.Background(), creatorID, CreatePlaylistInput{Name: name, IsPublic: public}, "")
	require.NoError(t, err)
	return p
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
