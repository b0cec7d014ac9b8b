package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn in a transaction and rolls back when fn fails.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// cacheColumns is the (fetched_at, max_age_ms) pair every cache table carries.
type cacheColumns struct {
	FetchedAt sql.NullTime  `db:"fetched_at"`
	MaxAgeMs  sql.NullInt64 `db:"max_age_ms"`
}

func toCacheColumns(cc model.CacheControl) cacheColumns {
	var c cacheColumns
	if cc.FetchedAt != nil {
		c.FetchedAt = sql.NullTime{Time: cc.FetchedAt.UTC(), Valid: true}
	}
	if cc.MaxAge != nil {
		c.MaxAgeMs = sql.NullInt64{Int64: cc.MaxAge.Milliseconds(), Valid: true}
	}
	return c
}

func (c cacheColumns) CacheControl() model.CacheControl {
	var cc model.CacheControl
	if c.FetchedAt.Valid {
		t := c.FetchedAt.Time.UTC()
		cc.FetchedAt = &t
	}
	if c.MaxAgeMs.Valid {
		d := time.Duration(c.MaxAgeMs.Int64) * time.Millisecond
		cc.MaxAge = &d
	}
	return cc
}

func ownerKey(item any) string {
	if owned, ok := item.(model.ChannelOwned); ok {
		if id := owned.OwnerChannelID(); !id.IsZero() {
			return id.String()
		}
	}
	return ""
}
