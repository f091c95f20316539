package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestAlbumCreateValidatesReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	artist := env.artist(t, "Writer")

	_, err := env.albums.Create(ctx, CreateAlbumInput{Title: "Ghost", Artist: uuid.NewString()}, "")
	requireKind(t, err, KindNotFound)

	_, err = env.albums.Create(ctx, CreateAlbumInput{Title: "Ghost", Artist: "nope"}, "")
	requireKind(t, err, KindValidation)

	_, err = env.albums.Create(ctx, CreateAlbumInput{Title: "AB", Artist: artist.ID.String()}, "")
	requireKind(t, err, KindValidation)

	_, err = env.albums.Create(ctx, CreateAlbumInput{Title: "Fine Title", Artist: artist.ID.String(), Description: "short"}, "")
	requireKind(t, err, KindValidation)

	released := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	album, err := env.albums.Create(ctx, CreateAlbumInput{
		Title:        "Fine Title",
		Artist:       artist.ID.String(),
		ReleasedDate: &released,
		Genre:        "Folk",
	}, "/tmp/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, artist.ID, album.ArtistID)
	assert.Equal(t, "https://media.test/albums/1", album.CoverImage)
	assert.True(t, released.Equal(album.ReleasedDate))
	require.NotNil(t, album.ArtistInfo)
	assert.Equal(t, "Writer", album.ArtistInfo.Name)

	_, err = env.albums.Create(ctx, CreateAlbumInput{Title: "Fine Title", Artist: artist.ID.String()}, "")
	requireKind(t, err, KindAlreadyExists)

	got, err := env.artists.Get(ctx, artist.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{album.ID}, got.Albums)
}

func TestAlbumDeleteKeepsSongs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	artist := env.artist(t, "A")
	album := env.album(t, "Album B", artist.ID)
	song := env.song(t, "C", artist.ID, &album.ID)

	require.NoError(t, env.albums.Delete(ctx, album.ID.String()))

	got, err := env.songs.Get(ctx, song.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.AlbumID)
	assert.Nil(t, got.AlbumInfo)

	a, err := env.artists.Get(ctx, artist.ID.String())
	require.NoError(t, err)
	assert.Contains(t, a.Songs, song.ID)
	assert.Empty(t, a.Albums)

	err = env.albums.Delete(ctx, album.ID.String())
	requireKind(t, err, KindNotFound)
}

func TestAlbumAddAndRemoveSongs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	artist := env.artist(t, "Compiler")
	album := env.album(t, "Collected", artist.ID)
	first := env.song(t, "First", artist.ID, nil)
	second := env.song(t, "Second", artist.ID, nil)

	got, err := env.albums.AddSongs(ctx, album.ID.String(), SongIDsInput{
		SongIDs: []string{first.ID.String(), second.ID.String(), first.ID.String(), uuid.NewString()},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, got.Songs)

	got, err = env.albums.AddSongs(ctx, album.ID.String(), SongIDsInput{SongIDs: []string{first.ID.String()}})
	require.NoError(t, err)
	assert.Len(t, got.Songs, 2)

	got, err = env.albums.RemoveSong(ctx, album.ID.String(), first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, got.Songs)

	_, err = env.albums.RemoveSong(ctx, album.ID.String(), first.ID.String())
	requireKind(t, err, KindValidation)

	_, err = env.albums.AddSongs(ctx, album.ID.String(), SongIDsInput{})
	requireKind(t, err, KindValidation)

	song, err := env.songs.Get(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Nil(t, song.AlbumID)
}

func TestAlbumListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	one := env.artist(t, "One")
	two := env.artist(t, "Two")
	env.album(t, "Blue Notes", one.ID)
	env.album(t, "Red Notes", two.ID)
	env.album(t, "Green Things", two.ID)

	page, err := env.albums.List(ctx, ListQuery{Artist: two.ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = env.albums.List(ctx, ListQuery{Search: "notes"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, a := range page.Items {
		assert.NotNil(t, a.ArtistInfo)
	}

	_, err = env.albums.List(ctx, ListQuery{Artist: "bad"})
	requireKind(t, err, KindValidation)

	releases, err := env.albums.NewReleases(ctx)
	require.NoError(t, err)
	assert.Len(t, releases, 3)
}
