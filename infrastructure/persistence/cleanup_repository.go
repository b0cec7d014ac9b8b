package persistence

import (
	"context"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
)

// CleanupRepository deletes cached rows that no list refers to.
type CleanupRepository struct {
	db *sqlx.DB
}

func NewCleanupRepository(db *sqlx.DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

// DeleteUnreferencedVideos removes videos that are in no cached playlist.
func (r *CleanupRepository) DeleteUnreferencedVideos(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entity_cache e
        WHERE e.kind=$1
          AND NOT EXISTS (SELECT 1 FROM playlist_items p WHERE p.video_key = e.entity_key)`, KindVideo)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteUnreferencedChannels removes channels no list item, video or following
// points at, and returns their IDs.
func (r *CleanupRepository) DeleteUnreferencedChannels(ctx context.Context) ([]model.PlatformID, error) {
	var keys []string
	q := `DELETE FROM entity_cache c
        WHERE c.kind=$1
          AND NOT EXISTS (SELECT 1 FROM list_items l WHERE l.channel_key = c.entity_key)
          AND NOT EXISTS (SELECT 1 FROM entity_cache v WHERE v.kind=$2 AND v.channel_key = c.entity_key)
          AND NOT EXISTS (
            SELECT 1 FROM followings_snapshot f, jsonb_array_elements(f.data->'items') AS item
            WHERE (item->'broadcaster'->'id'->>'platform') || ':' || (item->'broadcaster'->'id'->>'value') = c.entity_key
          )
        RETURNING c.entity_key`
	if err := r.db.SelectContext(ctx, &keys, q, KindChannel, KindVideo); err != nil {
		return nil, err
	}
	ids := make([]model.PlatformID, 0, len(keys))
	for _, key := range keys {
		id, err := model.ParsePlatformID(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
