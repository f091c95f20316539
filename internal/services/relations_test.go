package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/models"
	"gorm.io/gorm"
)

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := parseIDs([]string{a.String(), " " + b.String(), a.String()}, "song")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	_, err = parseIDs([]string{a.String(), "nope"}, "song")
	requireKind(t, err, KindValidation)
	assert.EqualError(t, err, "invalid song id")
}

func TestDBErrorTranslation(t *testing.T) {
	requireKind(t, dbError(gorm.ErrRecordNotFound, "album"), KindNotFound)
	assert.EqualError(t, dbError(gorm.ErrRecordNotFound, "album"), "album not found")

	forbidden := ForbiddenError("no")
	assert.Same(t, forbidden, dbError(forbidden, "playlist"))

	requireKind(t, dbError(errors.New("disk full"), "song"), KindUpstream)
	assert.NoError(t, dbError(nil, "song"))
}

func TestReconcileCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.user(t, "owner")
	fans := []*models.User{env.user(t, "fan1"), env.user(t, "fan2")}
	artist := env.artist(t, "Counted")
	album := env.album(t, "Counted Album", artist.ID)
	song := env.song(t, "Counted Song", artist.ID, &album.ID)
	playlist := env.playlist(t, owner.ID, "Counted List", true)

	for _, fan := range fans {
		_, err := env.users.ToggleFollowArtist(ctx, fan.ID, artist.ID.String())
		require.NoError(t, err)
		_, err = env.users.ToggleLikeSong(ctx, fan.ID, song.ID.String())
		require.NoError(t, err)
	}
	_, err := env.users.ToggleLikeAlbum(ctx, fans[0].ID, album.ID.String())
	require.NoError(t, err)
	_, err = env.users.ToggleFollowPlaylist(ctx, fans[1].ID, playlist.ID.String())
	require.NoError(t, err)

	// simulate drift left behind by a crash between the two writes
	require.NoError(t, env.db.Model(&models.Artist{}).Where("id = ?", artist.ID).UpdateColumn("followers", 7).Error)
	require.NoError(t, env.db.Model(&models.Song{}).Where("id = ?", song.ID).UpdateColumn("likes", 0).Error)
	require.NoError(t, env.db.Model(&models.Album{}).Where("id = ?", album.ID).UpdateColumn("likes", 3).Error)
	require.NoError(t, env.db.Model(&models.Playlist{}).Where("id = ?", playlist.ID).UpdateColumn("followers", 0).Error)

	require.NoError(t, NewMaintenanceService(env.db).ReconcileCounters(ctx))

	var a models.Artist
	require.NoError(t, env.db.First(&a, "id = ?", artist.ID).Error)
	assert.EqualValues(t, 2, a.Followers)

	var s models.Song
	require.NoError(t, env.db.First(&s, "id = ?", song.ID).Error)
	assert.EqualValues(t, 2, s.Likes)

	var al models.Album
	require.NoError(t, env.db.First(&al, "id = ?", album.ID).Error)
	assert.EqualValues(t, 1, al.Likes)

	var p models.Playlist
	require.NoError(t, env.db.First(&p, "id = ?", playlist.ID).Error)
	assert.EqualValues(t, 1, p.Followers)
}
