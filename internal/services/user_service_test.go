package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/models"
)

func artistFollowers(t *testing.T, env *testEnv, id uuid.UUID) int64 {
	t.Helper()
	var a models.Artist
	require.NoError(t, env.db.First(&a, "id = ?", id).Error)
	return a.Followers
}

func TestToggleFollowArtist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "listener")
	artist := env.artist(t, "A")
	require.Zero(t, artistFollowers(t, env, artist.ID))

	res, err := env.users.ToggleFollowArtist(ctx, user.ID, artist.ID.String())
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, "Artist followed", res.Message)
	assert.Equal(t, []uuid.UUID{artist.ID}, res.IDs)
	assert.EqualValues(t, 1, artistFollowers(t, env, artist.ID))

	res, err = env.users.ToggleFollowArtist(ctx, user.ID, artist.ID.String())
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, "Artist unfollowed", res.Message)
	assert.Empty(t, res.IDs)
	assert.Zero(t, artistFollowers(t, env, artist.ID))
}

func TestToggleTwiceRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.user(t, "owner")
	user := env.user(t, "user")
	artist := env.artist(t, "Target")
	album := env.album(t, "Target Album", artist.ID)
	song := env.song(t, "Target Song", artist.ID, &album.ID)
	playlist := env.playlist(t, owner.ID, "Target List", true)

	toggles := []struct {
		name    string
		toggle  func(context.Context, uuid.UUID, string) (*ToggleResult, error)
		id      uuid.UUID
		model   interface{}
		counter string
	}{
		{"like song", env.users.ToggleLikeSong, song.ID, &models.Song{}, "likes"},
		{"like album", env.users.ToggleLikeAlbum, album.ID, &models.Album{}, "likes"},
		{"follow artist", env.users.ToggleFollowArtist, artist.ID, &models.Artist{}, "followers"},
		{"follow playlist", env.users.ToggleFollowPlaylist, playlist.ID, &models.Playlist{}, "followers"},
	}
	for _, tc := range toggles {
		t.Run(tc.name, func(t *testing.T) {
			counter := func() int64 {
				var v int64
				require.NoError(t, env.db.Model(tc.model).Where("id = ?", tc.id).Pluck(tc.counter, &v).Error)
				return v
			}
			before := counter()

			first, err := tc.toggle(ctx, user.ID, tc.id.String())
			require.NoError(t, err)
			assert.True(t, first.Added)
			assert.Contains(t, first.IDs, tc.id)
			assert.Equal(t, before+1, counter())

			second, err := tc.toggle(ctx, user.ID, tc.id.String())
			require.NoError(t, err)
			assert.False(t, second.Added)
			assert.NotContains(t, second.IDs, tc.id)
			assert.Equal(t, before, counter())
		})
	}
}

func TestToggleCounterNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "listener")
	artist := env.artist(t, "Drifted")

	_, err := env.users.ToggleFollowArtist(ctx, user.ID, artist.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.Artist{}).Where("id = ?", artist.ID).UpdateColumn("followers", 0).Error)

	res, err := env.users.ToggleFollowArtist(ctx, user.ID, artist.ID.String())
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Zero(t, artistFollowers(t, env, artist.ID))
}

func TestToggleCounterMatchesSetSize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	song := env.song(t, "Popular", env.artist(t, "Star").ID, nil)

	users := make([]*models.User, 4)
	for i := range users {
		users[i] = env.user(t, "fan")
	}
	sequence := []int{0, 1, 2, 1, 3, 0, 0, 2, 1}
	for _, i := range sequence {
		_, err := env.users.ToggleLikeSong(ctx, users[i].ID, song.ID.String())
		require.NoError(t, err)
	}

	var s models.Song
	require.NoError(t, env.db.First(&s, "id = ?", song.ID).Error)
	assert.Equal(t, countRows(t, env.db, &models.UserLikedSong{}, "song_id = ?", song.ID), s.Likes)
	assert.EqualValues(t, 3, s.Likes)
}

func TestToggleRejectsUnknownTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "listener")

	_, err := env.users.ToggleLikeSong(ctx, user.ID, uuid.NewString())
	requireKind(t, err, KindNotFound)
	_, err = env.users.ToggleFollowPlaylist(ctx, user.ID, uuid.NewString())
	requireKind(t, err, KindNotFound)
	_, err = env.users.ToggleLikeAlbum(ctx, user.ID, "not-an-id")
	requireKind(t, err, KindValidation)
	_, err = env.users.ToggleFollowArtist(ctx, uuid.New(), env.artist(t, "Real").ID.String())
	requireKind(t, err, KindNotFound)
}

func TestToggleFollowPrivatePlaylist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	fan := env.user(t, "fan")
	playlist := env.playlist(t, owner.ID, "Was Public", true)

	_, err := env.users.ToggleFollowPlaylist(ctx, fan.ID, playlist.ID.String())
	require.NoError(t, err)

	private := false
	_, err = env.playlists.Update(ctx, playlist.ID.String(), owner.ID, UpdatePlaylistInput{IsPublic: &private}, "")
	require.NoError(t, err)

	res, err := env.users.ToggleFollowPlaylist(ctx, fan.ID, playlist.ID.String())
	require.NoError(t, err)
	assert.False(t, res.Added)

	_, err = env.users.ToggleFollowPlaylist(ctx, fan.ID, playlist.ID.String())
	requireKind(t, err, KindForbidden)

	res, err = env.users.ToggleFollowPlaylist(ctx, owner.ID, playlist.ID.String())
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, "Playlist followed", res.Message)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "before")
	other := env.user(t, "other")

	name := "After"
	email := "  New@Example.com "
	updated, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Email: &email}, "/tmp/me.png")
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "https://media.test/users/1", updated.ProfilePicture)
	assert.NotNil(t, updated.LikedSongs)

	taken := other.Email
	_, err = env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Email: &taken}, "")
	requireKind(t, err, KindAlreadyExists)

	short := "123"
	_, err = env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Password: &short}, "")
	requireKind(t, err, KindValidation)

	password := "another-secret"
	_, err = env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Password: &password}, "")
	require.NoError(t, err)
	_, _, err = env.auth.Login(ctx, LoginInput{Email: "new@example.com", Password: password})
	require.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")
	env.user(t, "bob")

	page, err := env.users.ListUsers(context.Background(), ListQuery{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice", page.Items[0].Name)
	assert.Equal(t, 1, page.Pages)
}
