package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// membership is one row of a link table plus the counter that mirrors the
// size of the set on the object side.
type membership struct {
	row     interface{}            // link row to insert when the pair is absent
	table   interface{}            // zero value of the link model
	keys    map[string]interface{} // column values identifying the row
	object  interface{}            // zero value of the counted model
	id      uuid.UUID              // counted object
	counter string                 // counter column on the object table, "" for none
}

// toggle flips the membership inside tx. The link write always happens
// before the counter write and each step reports its own failure.
func (m membership) toggle(tx *gorm.DB) (added bool, err error) {
	var n int64
	if err := tx.Model(m.table).Where(m.keys).Count(&n).Error; err != nil {
		return false, UpstreamError("failed to read membership", err)
	}

	if n == 0 {
		if err := tx.Create(m.row).Error; err != nil {
			return false, UpstreamError("failed to write membership", err)
		}
		if err := m.bump(tx, 1); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := tx.Where(m.keys).Delete(m.table).Error; err != nil {
		return false, UpstreamError("failed to remove membership", err)
	}
	if err := m.bump(tx, -1); err != nil {
		return false, err
	}
	return false, nil
}

func (m membership) bump(tx *gorm.DB, delta int) error {
	if m.counter == "" {
		return nil
	}
	if err := adjustCounter(tx, m.object, m.id, m.counter, delta); err != nil {
		return UpstreamError(fmt.Sprintf("membership changed but %s counter update failed", m.counter), err)
	}
	return nil
}

// adjustCounter moves a counter column by delta, never below zero.
func adjustCounter(tx *gorm.DB, model interface{}, id uuid.UUID, column string, delta int) error {
	var expr clause.Expr
	if delta >= 0 {
		expr = gorm.Expr(column+" + ?", delta)
	} else {
		expr = gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", -delta, -delta)
	}
	return tx.Model(model).Where("id = ?", id).UpdateColumn(column, expr).Error
}

// pluckIDs collects one uuid column of the rows matching query, in order.
func pluckIDs(tx *gorm.DB, model interface{}, column, order string, query interface{}, args ...interface{}) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := tx.Model(model).Where(query, args...).Order(order).Pluck(column, &ids).Error
	return ids, err
}

// parseID parses a client supplied reference.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ValidationError("invalid %s id", what)
	}
	return id, nil
}

// parseIDs parses a list of references, keeping the first occurrence of each.
func parseIDs(raw []string, what string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r, what)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// ensureExists fails with NotFound when no row of model has the given id.
func ensureExists(tx *gorm.DB, model interface{}, id uuid.UUID, what string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return UpstreamError("failed to look up "+what, err)
	}
	if n == 0 {
		return NotFoundError(what)
	}
	return nil
}

// MaintenanceService recomputes denormalized counters from the link tables.
// It is the reconcile step for anything a crash may have left behind.
type MaintenanceService struct {
	db *gorm.DB
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{db: db}
}

// ReconcileCounters rewrites followers and likes so that each equals the size
// of its membership set.
func (s *MaintenanceService) ReconcileCounters(ctx context.Context) error {
	statements := []struct {
		model  interface{}
		column string
		expr   string
	}{
		{&models.Artist{}, "followers", "(SELECT COUNT(*) FROM user_followed_artists WHERE user_followed_artists.artist_id = artists.id)"},
		{&models.Playlist{}, "followers", "(SELECT COUNT(*) FROM user_followed_playlists WHERE user_followed_playlists.playlist_id = playlists.id)"},
		{&models.Song{}, "likes", "(SELECT COUNT(*) FROM user_liked_songs WHERE user_liked_songs.song_id = songs.id)"},
		{&models.Album{}, "likes", "(SELECT COUNT(*) FROM user_liked_albums WHERE user_liked_albums.album_id = albums.id)"},
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range statements {
			res := tx.Model(st.model).Where("1 = 1").UpdateColumn(st.column, gorm.Expr(st.expr))
			if res.Error != nil {
				return UpstreamError("failed to reconcile "+st.column, res.Error)
			}
			log.Debug().Str("column", st.column).Int64("rows", res.RowsAffected).Msg("counters reconciled")
		}
		return nil
	})
}
