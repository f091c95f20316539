package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/synesthesie/catalog/internal/models"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	topLimit         = 10
)

// ListQuery carries the filters shared by every list endpoint. Fields that
// do not apply to a collection are ignored.
type ListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Genre  string `form:"genre"`
	Artist string `form:"artist"`
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Genre = strings.TrimSpace(q.Genre)
	q.Artist = strings.TrimSpace(q.Artist)
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of a list result.
type Page[T any] struct {
	Items []T
	Page  int
	Pages int
	Total int64
}

func newPage[T any](items []T, q ListQuery, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items: items,
		Page:  q.Page,
		Pages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		Total: total,
	}
}

// likePattern builds the pattern for a case-insensitive LOWER(col) LIKE ? match.
func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

// paginate counts q and loads one page of it into dest. Preloads are only
// applied to the page query.
func paginate(q *gorm.DB, lq ListQuery, order string, dest interface{}, preloads ...string) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	page := q.Session(&gorm.Session{})
	for _, p := range preloads {
		page = page.Preload(p)
	}
	err := page.Order(order).Offset(lq.offset()).Limit(lq.Limit).Find(dest).Error
	return total, err
}

type idPair struct {
	Owner uuid.UUID
	ID    uuid.UUID
}

// groupIDs maps each owner to the ids of its rows in model, in order.
func groupIDs(tx *gorm.DB, model interface{}, ownerCol, idCol, order string, owners []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(owners))
	if len(owners) == 0 {
		return out, nil
	}
	var pairs []idPair
	err := tx.Model(model).
		Select(ownerCol+" AS owner, "+idCol+" AS id").
		Where(ownerCol+" IN ?", owners).
		Order(order).
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		out[p.Owner] = append(out[p.Owner], p.ID)
	}
	return out, nil
}

func orEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func loadArtistRefs(tx *gorm.DB, artists ...*models.Artist) error {
	ids := make([]uuid.UUID, len(artists))
	for i, a := range artists {
		ids[i] = a.ID
	}
	albums, err := groupIDs(tx, &models.Album{}, "artist_id", "id", "released_date DESC", ids)
	if err != nil {
		return UpstreamError("failed to load artist albums", err)
	}
	songs, err := groupIDs(tx, &models.Song{}, "artist_id", "id", "released_date DESC", ids)
	if err != nil {
		return UpstreamError("failed to load artist songs", err)
	}
	for _, a := range artists {
		a.Albums = orEmpty(albums[a.ID])
		a.Songs = orEmpty(songs[a.ID])
	}
	return nil
}

func loadAlbumRefs(tx *gorm.DB, albums ...*models.Album) error {
	ids := make([]uuid.UUID, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	songs, err := groupIDs(tx, &models.Song{}, "album_id", "id", "created_at", ids)
	if err != nil {
		return UpstreamError("failed to load album songs", err)
	}
	for _, a := range albums {
		a.Songs = orEmpty(songs[a.ID])
		a.ArtistInfo = a.Artist.Summary()
	}
	return nil
}

func loadSongRefs(tx *gorm.DB, songs ...*models.Song) error {
	ids := make([]uuid.UUID, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	featured, err := groupIDs(tx, &models.SongFeaturedArtist{}, "song_id", "artist_id", "created_at", ids)
	if err != nil {
		return UpstreamError("failed to load featured artists", err)
	}
	for _, s := range songs {
		s.FeaturedArtists = orEmpty(featured[s.ID])
		s.ArtistInfo = s.Artist.Summary()
		s.AlbumInfo = s.Album.Summary()
	}
	return nil
}

func loadPlaylistRefs(tx *gorm.DB, playlists ...*models.Playlist) error {
	ids := make([]uuid.UUID, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	songs, err := groupIDs(tx, &models.PlaylistSong{}, "playlist_id", "song_id", "position", ids)
	if err != nil {
		return UpstreamError("failed to load playlist songs", err)
	}
	collaborators, err := groupIDs(tx, &models.PlaylistCollaborator{}, "playlist_id", "user_id", "created_at", ids)
	if err != nil {
		return UpstreamError("failed to load collaborators", err)
	}
	for _, p := range playlists {
		p.Songs = orEmpty(songs[p.ID])
		p.Collaborators = orEmpty(collaborators[p.ID])
		p.CreatorInfo = p.Creator.Summary()
	}
	return nil
}

func loadUserSets(tx *gorm.DB, u *models.User) error {
	var err error
	if u.LikedSongs, err = pluckIDs(tx, &models.UserLikedSong{}, "song_id", "created_at", "user_id = ?", u.ID); err != nil {
		return UpstreamError("failed to load liked songs", err)
	}
	if u.LikedAlbums, err = pluckIDs(tx, &models.UserLikedAlbum{}, "album_id", "created_at", "user_id = ?", u.ID); err != nil {
		return UpstreamError("failed to load liked albums", err)
	}
	if u.FollowedArtists, err = pluckIDs(tx, &models.UserFollowedArtist{}, "artist_id", "created_at", "user_id = ?", u.ID); err != nil {
		return UpstreamError("failed to load followed artists", err)
	}
	if u.FollowedPlaylists, err = pluckIDs(tx, &models.UserFollowedPlaylist{}, "playlist_id", "created_at", "user_id = ?", u.ID); err != nil {
		return UpstreamError("failed to load followed playlists", err)
	}
	return nil
}

// pointers returns a pointer to every element of s.
func pointers[T any](s []T) []*T {
	out := make([]*T, len(s))
	for i := range s {
		out[i] = &s[i]
	}
	return out
}
