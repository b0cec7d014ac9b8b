package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// EnvelopeRepository stores single JSON values with a freshness record, e.g.
// the signed-in user or a broadcaster schedule.
type EnvelopeRepository struct {
	db *sqlx.DB
}

func NewEnvelopeRepository(db *sqlx.DB) *EnvelopeRepository {
	return &EnvelopeRepository{db: db}
}

func (r *EnvelopeRepository) Load(ctx context.Context, key string, dest any) (model.CacheControl, bool, error) {
	var row entityRow
	err := r.db.GetContext(ctx, &row, `SELECT data, fetched_at, max_age_ms FROM envelope_cache WHERE cache_key=$1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CacheControl{}, false, nil
	}
	if err != nil {
		return model.CacheControl{}, false, err
	}
	if err := json.Unmarshal(row.Data, dest); err != nil {
		return model.CacheControl{}, false, err
	}
	return row.CacheControl(), true, nil
}

func (r *EnvelopeRepository) Save(ctx context.Context, key string, value any, cacheControl model.CacheControl) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cc := toCacheColumns(cacheControl)
	_, err = r.db.ExecContext(ctx, `INSERT INTO envelope_cache(cache_key, data, fetched_at, max_age_ms)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (cache_key) DO UPDATE SET data=EXCLUDED.data, fetched_at=EXCLUDED.fetched_at, max_age_ms=EXCLUDED.max_age_ms`,
		key, raw, cc.FetchedAt, cc.MaxAgeMs)
	return err
}

func (r *EnvelopeRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM envelope_cache WHERE cache_key = ANY($1)`, pq.Array(keys))
	return err
}
