package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
)

type playlistRow struct {
	PlaylistKey string `db:"playlist_key"`
	ETag        string `db:"etag"`
	cacheColumns
}

// PlaylistRepository keeps playlist items together with the playlist freshness record.
type PlaylistRepository struct {
	db *sqlx.DB
}

func NewPlaylistRepository(db *sqlx.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

func (r *PlaylistRepository) FindPlaylist(ctx context.Context, id model.PlatformID) (*model.PlaylistWithItems, error) {
	var row playlistRow
	err := r.db.GetContext(ctx, &row, `SELECT playlist_key, etag, fetched_at, max_age_ms FROM playlists WHERE playlist_key=$1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raws [][]byte
	if err := r.db.SelectContext(ctx, &raws, `SELECT data FROM playlist_items WHERE playlist_key=$1 ORDER BY position`, id.String()); err != nil {
		return nil, err
	}
	items := make([]model.PlaylistItem, 0, len(raws))
	for _, raw := range raws {
		var item model.PlaylistItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &model.PlaylistWithItems{
		Playlist: model.Playlist{ID: id, ETag: row.ETag, CacheControl: row.CacheControl()},
		Items:    items,
	}, nil
}

func (r *PlaylistRepository) ReplacePlaylist(ctx context.Context, playlist model.Playlist, items []model.PlaylistItem) error {
	key := playlist.ID.String()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := savePlaylist(ctx, tx, playlist); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_items WHERE playlist_key=$1`, key); err != nil {
			return err
		}
		q := `INSERT INTO playlist_items(playlist_key, item_key, video_key, position, published_at, data) VALUES ($1,$2,$3,$4,$5,$6)`
		for i := range items {
			raw, err := json.Marshal(items[i])
			if err != nil {
				return err
			}
			var publishedAt sql.NullTime
			if !items[i].PublishedAt.IsZero() {
				publishedAt = sql.NullTime{Time: items[i].PublishedAt.UTC(), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, q, key, items[i].ID.String(), items[i].VideoID.String(), i, publishedAt, raw); err != nil {
				return fmt.Errorf("insert playlist item %s: %w", items[i].ID, err)
			}
		}
		return nil
	})
}

// UpdatePlaylist rewrites the freshness record only; the items are kept.
func (r *PlaylistRepository) UpdatePlaylist(ctx context.Context, playlist model.Playlist) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return savePlaylist(ctx, tx, playlist)
	})
}

func savePlaylist(ctx context.Context, tx *sqlx.Tx, playlist model.Playlist) error {
	cc := toCacheColumns(playlist.CacheControl)
	_, err := tx.ExecContext(ctx, `INSERT INTO playlists(playlist_key, etag, fetched_at, max_age_ms)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (playlist_key) DO UPDATE SET etag=EXCLUDED.etag, fetched_at=EXCLUDED.fetched_at, max_age_ms=EXCLUDED.max_age_ms`,
		playlist.ID.String(), playlist.ETag, cc.FetchedAt, cc.MaxAgeMs)
	return err
}
