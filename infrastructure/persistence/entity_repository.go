package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Entity kinds stored in entity_cache.
const (
	KindChannel = "channel"
	KindVideo   = "video"
)

type entityRow struct {
	Data []byte `db:"data"`
	cacheColumns
}

// EntityRepository keeps entities of one kind as JSONB rows keyed by platform ID.
type EntityRepository[T model.Entity] struct {
	db   *sqlx.DB
	kind string
}

func NewEntityRepository[T model.Entity](db *sqlx.DB, kind string) *EntityRepository[T] {
	return &EntityRepository[T]{db: db, kind: kind}
}

func (r *EntityRepository[T]) Find(ctx context.Context, ids []model.PlatformID) ([]model.Updatable[T], error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []entityRow
	q := `SELECT data, fetched_at, max_age_ms FROM entity_cache WHERE kind=$1 AND entity_key = ANY($2)`
	if err := r.db.SelectContext(ctx, &rows, q, r.kind, pq.Array(model.Keys(ids))); err != nil {
		return nil, err
	}
	return decodeEntities[T](rows)
}

// Upsert writes every item with the same freshness record in one transaction.
func (r *EntityRepository[T]) Upsert(ctx context.Context, items []T, cacheControl model.CacheControl) error {
	if len(items) == 0 {
		return nil
	}
	cc := toCacheColumns(cacheControl)
	q := `INSERT INTO entity_cache(kind, entity_key, platform, channel_key, data, fetched_at, max_age_ms)
          VALUES ($1,$2,$3,$4,$5,$6,$7)
          ON CONFLICT (kind, entity_key) DO UPDATE SET channel_key=EXCLUDED.channel_key, data=EXCLUDED.data, fetched_at=EXCLUDED.fetched_at, max_age_ms=EXCLUDED.max_age_ms`
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range items {
			raw, err := json.Marshal(items[i])
			if err != nil {
				return err
			}
			id := items[i].EntityID()
			if _, err := tx.ExecContext(ctx, q, r.kind, id.String(), string(id.Platform), ownerKey(items[i]), raw, cc.FetchedAt, cc.MaxAgeMs); err != nil {
				return fmt.Errorf("upsert %s %s: %w", r.kind, id, err)
			}
		}
		return nil
	})
}

func (r *EntityRepository[T]) Remove(ctx context.Context, ids []model.PlatformID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM entity_cache WHERE kind=$1 AND entity_key = ANY($2)`, r.kind, pq.Array(model.Keys(ids)))
	return err
}

func (r *EntityRepository[T]) List(ctx context.Context, limit int) ([]model.Updatable[T], error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []entityRow
	q := `SELECT data, fetched_at, max_age_ms FROM entity_cache WHERE kind=$1 ORDER BY fetched_at DESC NULLS LAST, entity_key LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, q, r.kind, limit); err != nil {
		return nil, err
	}
	return decodeEntities[T](rows)
}

func decodeEntities[T any](rows []entityRow) ([]model.Updatable[T], error) {
	out := make([]model.Updatable[T], 0, len(rows))
	for _, row := range rows {
		var item T
		if err := json.Unmarshal(row.Data, &item); err != nil {
			return nil, err
		}
		out = append(out, model.NewUpdatable(item, row.CacheControl()))
	}
	return out, nil
}
