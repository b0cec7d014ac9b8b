package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/jmoiron/sqlx"
)

// FollowingsRepository keeps one followings snapshot per follower as a single row.
type FollowingsRepository struct {
	db *sqlx.DB
}

func NewFollowingsRepository(db *sqlx.DB) *FollowingsRepository {
	return &FollowingsRepository{db: db}
}

func (r *FollowingsRepository) Load(ctx context.Context, followerID model.PlatformID) (*model.FollowingsSnapshot, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT data FROM followings_snapshot WHERE follower_key=$1`, followerID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshot model.FollowingsSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *FollowingsRepository) Save(ctx context.Context, snapshot model.FollowingsSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO followings_snapshot(follower_key, data, updatable_at)
          VALUES ($1,$2,$3)
          ON CONFLICT (follower_key) DO UPDATE SET data=EXCLUDED.data, updatable_at=EXCLUDED.updatable_at`,
		snapshot.FollowerID.String(), raw, snapshot.UpdatableAt.UTC())
	return err
}
