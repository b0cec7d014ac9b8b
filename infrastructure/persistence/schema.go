package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/infrastructure/logger"

	"github.com/jmoiron/sqlx"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS entity_cache (
        kind TEXT NOT NULL,
        entity_key TEXT NOT NULL,
        platform TEXT NOT NULL,
        channel_key TEXT NOT NULL DEFAULT '',
        data JSONB NOT NULL,
        fetched_at TIMESTAMPTZ,
        max_age_ms BIGINT,
        PRIMARY KEY (kind, entity_key)
    )`,
	`CREATE TABLE IF NOT EXISTS list_items (
        list_key TEXT NOT NULL,
        item_key TEXT NOT NULL,
        channel_key TEXT NOT NULL DEFAULT '',
        position INTEGER NOT NULL,
        data JSONB NOT NULL,
        PRIMARY KEY (list_key, item_key)
    )`,
	`CREATE TABLE IF NOT EXISTS list_state (
        list_key TEXT PRIMARY KEY,
        next_page_token TEXT NOT NULL DEFAULT '',
        fetched_at TIMESTAMPTZ,
        max_age_ms BIGINT
    )`,
	`CREATE TABLE IF NOT EXISTS playlists (
        playlist_key TEXT PRIMARY KEY,
        etag TEXT NOT NULL DEFAULT '',
        fetched_at TIMESTAMPTZ,
        max_age_ms BIGINT
    )`,
	`CREATE TABLE IF NOT EXISTS playlist_items (
        playlist_key TEXT NOT NULL REFERENCES playlists(playlist_key) ON DELETE CASCADE,
        item_key TEXT NOT NULL,
        video_key TEXT NOT NULL,
        position INTEGER NOT NULL,
        published_at TIMESTAMPTZ,
        data JSONB NOT NULL,
        PRIMARY KEY (playlist_key, item_key)
    )`,
	`CREATE TABLE IF NOT EXISTS followings_snapshot (
        follower_key TEXT PRIMARY KEY,
        data JSONB NOT NULL,
        updatable_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS envelope_cache (
        cache_key TEXT PRIMARY KEY,
        data JSONB NOT NULL,
        fetched_at TIMESTAMPTZ,
        max_age_ms BIGINT
    )`,
}

var schemaIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_entity_cache_channel_key ON entity_cache(channel_key)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_channel_key ON list_items(channel_key)`,
	`CREATE INDEX IF NOT EXISTS idx_playlist_items_video_key ON playlist_items(video_key)`,
}

// EnsureSchema creates the cache tables if they do not exist. Index failures
// are logged and ignored.
func EnsureSchema(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, ddl := range schemaIndexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed creating index")
		}
	}
	return nil
}
