package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synesthesie/catalog/internal/models"
)

func TestArtistCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	artist, err := env.artists.Create(ctx, CreateArtistInput{
		Name:   "  Nina Simone ",
		Genres: []string{"Jazz", " ", "Soul", "Jazz"},
	}, "/tmp/portrait.png")
	require.NoError(t, err)

	assert.Equal(t, "Nina Simone", artist.Name)
	assert.Equal(t, []string{"Jazz", "Soul"}, artist.Genres)
	assert.Equal(t, "https://media.test/artists/1", artist.Image)
	assert.Empty(t, artist.Albums)
	assert.Empty(t, artist.Songs)

	_, err = env.artists.Create(ctx, CreateArtistInput{Name: "Nina Simone"}, "")
	requireKind(t, err, KindAlreadyExists)

	_, err = env.artists.Create(ctx, CreateArtistInput{Name: ""}, "")
	requireKind(t, err, KindValidation)
}

func TestArtistListFiltersAndPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.artist(t, "Rock One", "Rock")
	env.artist(t, "Rock Two", "Rock", "Blues")
	env.artist(t, "Jazz Trio", "Jazz")

	page, err := env.artists.List(ctx, ListQuery{Genre: "rock"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	page, err = env.artists.List(ctx, ListQuery{Search: "TRIO"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Jazz Trio", page.Items[0].Name)

	page, err = env.artists.List(ctx, ListQuery{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)

	page, err = env.artists.List(ctx, ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pages)
}

func TestArtistUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	artist := env.artist(t, "Old Name", "Pop")
	env.artist(t, "Taken")

	name := "New Name"
	verified := true
	updated, err := env.artists.Update(ctx, artist.ID.String(), UpdateArtistInput{
		Name:       &name,
		Genres:     []string{"Electronic"},
		IsVerified: &verified,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, []string{"Electronic"}, updated.Genres)
	assert.True(t, updated.IsVerified)

	taken := "Taken"
	_, err = env.artists.Update(ctx, artist.ID.String(), UpdateArtistInput{Name: &taken}, "")
	requireKind(t, err, KindAlreadyExists)

	_, err = env.artists.Update(ctx, "not-a-uuid", UpdateArtistInput{}, "")
	requireKind(t, err, KindValidation)
}

func TestArtistDeleteRemovesOwnedAndLinkedRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	artist := env.artist(t, "Doomed")
	other := env.artist(t, "Survivor")
	album := env.album(t, "Doomed Album", artist.ID)
	own := env.song(t, "Own Song", artist.ID, &album.ID)
	loose := env.song(t, "Loose Song", artist.ID, nil)

	featuring, err := env.songs.Create(ctx, CreateSongInput{
		Title:           "Feature",
		Artist:          other.ID.String(),
		FeaturedArtists: []string{artist.ID.String()},
		Duration:        200,
	}, "/tmp/a.mp3", "")
	require.NoError(t, err)

	fan := env.user(t, "fan")
	_, err = env.users.ToggleFollowArtist(ctx, fan.ID, artist.ID.String())
	require.NoError(t, err)
	_, err = env.users.ToggleLikeSong(ctx, fan.ID, own.ID.String())
	require.NoError(t, err)
	_, err = env.users.ToggleLikeAlbum(ctx, fan.ID, album.ID.String())
	require.NoError(t, err)

	playlist := env.playlist(t, fan.ID, "Mixed", true)
	_, err = env.playlists.AddSongs(ctx, playlist.ID.String(), fan.ID, SongIDsInput{
		SongIDs: []string{own.ID.String(), featuring.ID.String()},
	})
	require.NoError(t, err)

	require.NoError(t, env.artists.Delete(ctx, artist.ID.String()))

	_, err = env.artists.Get(ctx, artist.ID.String())
	requireKind(t, err, KindNotFound)
	_, err = env.albums.Get(ctx, album.ID.String())
	requireKind(t, err, KindNotFound)
	for _, id := range []string{own.ID.String(), loose.ID.String()} {
		_, err = env.songs.Get(ctx, id)
		requireKind(t, err, KindNotFound)
	}

	assert.Zero(t, countRows(t, env.db, &models.Song{}, "artist_id = ?", artist.ID))
	assert.Zero(t, countRows(t, env.db, &models.Album{}, "artist_id = ?", artist.ID))
	assert.Zero(t, countRows(t, env.db, &models.SongFeaturedArtist{}, "artist_id = ?", artist.ID))
	assert.Zero(t, countRows(t, env.db, &models.UserFollowedArtist{}, "artist_id = ?", artist.ID))
	assert.Zero(t, countRows(t, env.db, &models.UserLikedAlbum{}, "album_id = ?", album.ID))

	survivor, err := env.songs.Get(ctx, featuring.ID.String())
	require.NoError(t, err)
	assert.Empty(t, survivor.FeaturedArtists)

	profile, err := env.users.GetProfile(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.LikedSongs)
	assert.Empty(t, profile.LikedAlbums)
	assert.Empty(t, profile.FollowedArtists)

	got, err := env.playlists.Get(ctx, playlist.ID.String(), &fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{featuring.ID.String()}, idStrings(got.Songs))
}

func TestArtistTopSongs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	artist := env.artist(t, "Charted")
	quiet := env.song(t, "Quiet", artist.ID, nil)
	hit := env.song(t, "Hit", artist.ID, nil)

	for i := 0; i < 3; i++ {
		_, err := env.songs.Get(ctx, hit.ID.String())
		require.NoError(t, err)
	}

	songs, err := env.artists.TopSongs(ctx, artist.ID.String())
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, hit.ID, songs[0].ID)
	assert.EqualValues(t, 3, songs[0].Plays)
	assert.Equal(t, quiet.ID, songs[1].ID)
	require.NotNil(t, songs[0].ArtistInfo)
	assert.Equal(t, "Charted", songs[0].ArtistInfo.Name)

	_, err = env.artists.TopSongs(ctx, "00000000-0000-0000-0000-000000000001")
	requireKind(t, err, KindNotFound)
}
