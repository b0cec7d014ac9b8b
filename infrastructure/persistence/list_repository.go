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

type listStateRow struct {
	ListKey       string `db:"list_key"`
	NextPageToken string `db:"next_page_token"`
	cacheColumns
}

// ListRepository keeps a paged remote list and its paging record.
type ListRepository[T model.Entity] struct {
	db *sqlx.DB
}

func NewListRepository[T model.Entity](db *sqlx.DB) *ListRepository[T] {
	return &ListRepository[T]{db: db}
}

func (r *ListRepository[T]) State(ctx context.Context, list string) (*model.ListState, error) {
	var row listStateRow
	err := r.db.GetContext(ctx, &row, `SELECT list_key, next_page_token, fetched_at, max_age_ms FROM list_state WHERE list_key=$1`, list)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.ListState{List: row.ListKey, NextPageToken: row.NextPageToken, CacheControl: row.CacheControl()}, nil
}

func (r *ListRepository[T]) Items(ctx context.Context, list string) ([]T, error) {
	var raws [][]byte
	if err := r.db.SelectContext(ctx, &raws, `SELECT data FROM list_items WHERE list_key=$1 ORDER BY position`, list); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *ListRepository[T]) Count(ctx context.Context, list string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM list_items WHERE list_key=$1`, list)
	return n, err
}

// Replace drops the previous content of the list.
func (r *ListRepository[T]) Replace(ctx context.Context, list string, items []T, state model.ListState) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_key=$1`, list); err != nil {
			return err
		}
		if err := insertListItems(ctx, tx, list, items, 0); err != nil {
			return err
		}
		return saveListState(ctx, tx, list, state)
	})
}

// Append keeps the position of rows already present.
func (r *ListRepository[T]) Append(ctx context.Context, list string, items []T, offset int, state model.ListState) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertListItems(ctx, tx, list, items, offset); err != nil {
			return err
		}
		return saveListState(ctx, tx, list, state)
	})
}

func insertListItems[T model.Entity](ctx context.Context, tx *sqlx.Tx, list string, items []T, offset int) error {
	q := `INSERT INTO list_items(list_key, item_key, channel_key, position, data)
          VALUES ($1,$2,$3,$4,$5)
          ON CONFLICT (list_key, item_key) DO UPDATE SET channel_key=EXCLUDED.channel_key, data=EXCLUDED.data`
	for i := range items {
		raw, err := json.Marshal(items[i])
		if err != nil {
			return err
		}
		key := items[i].EntityID().String()
		if _, err := tx.ExecContext(ctx, q, list, key, ownerKey(items[i]), offset+i, raw); err != nil {
			return fmt.Errorf("insert %s into %s: %w", key, list, err)
		}
	}
	return nil
}

func saveListState(ctx context.Context, tx *sqlx.Tx, list string, state model.ListState) error {
	cc := toCacheColumns(state.CacheControl)
	_, err := tx.ExecContext(ctx, `INSERT INTO list_state(list_key, next_page_token, fetched_at, max_age_ms)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (list_key) DO UPDATE SET next_page_token=EXCLUDED.next_page_token, fetched_at=EXCLUDED.fetched_at, max_age_ms=EXCLUDED.max_age_ms`,
		list, state.NextPageToken, cc.FetchedAt, cc.MaxAgeMs)
	return err
}
