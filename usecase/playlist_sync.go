package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// PlaylistSync keeps the newest page of a playlist cached with an adaptive TTL.
type PlaylistSync struct {
	remote repository.IYouTube
	store  repository.IPlaylistStore
	policy StalenessPolicy
	clock  repository.Clock
}

func NewPlaylistSync(remote repository.IYouTube, store repository.IPlaylistStore, policy StalenessPolicy, clock repository.Clock) *PlaylistSync {
	return &PlaylistSync{remote: remote, store: store, policy: policy, clock: clock}
}

// PlaylistSyncOutcome is what a playlist sync did.
type PlaylistSyncOutcome struct {
	Added        []model.PlaylistItem
	Skipped      bool
	CacheControl *model.CacheControl
}

// Sync refreshes the playlist when its TTL has run out and returns the items
// that were not cached before. A fresh playlist is left alone.
func (s *PlaylistSync) Sync(ctx context.Context, playlistID model.PlatformID) (*PlaylistSyncOutcome, error) {
	now := s.clock.Now()
	cached, err := s.store.FindPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist %s: %w", playlistID, err)
	}
	if cached != nil && !cached.Playlist.CacheControl.IsUpdatable(now) {
		return &PlaylistSyncOutcome{Skipped: true}, nil
	}

	var prev *ListSnapshot
	etag := ""
	if cached != nil {
		prev = &ListSnapshot{IDs: model.IDsOf(cached.Items), MaxAge: cached.Playlist.CacheControl.MaxAge}
		etag = cached.Playlist.ETag
	}

	page, err := s.remote.FetchPlaylistItems(ctx, playlistID, etag)
	switch {
	case err == nil:
	case cached != nil && errors.Is(err, model.ErrNotModified):
		return s.extend(ctx, cached, prev, now)
	case errors.Is(err, model.ErrNotFound):
		logger.GetLogger().WithField("playlist", playlistID.String()).Info("playlist not found, caching as empty")
		return s.replace(ctx, playlistID, "", nil, prev, cached, now)
	default:
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}
	return s.replace(ctx, playlistID, page.ETag, page.Items, prev, cached, now)
}

// extend keeps the cached items and only renews the freshness record.
func (s *PlaylistSync) extend(ctx context.Context, cached *model.PlaylistWithItems, prev *ListSnapshot, now time.Time) (*PlaylistSyncOutcome, error) {
	ids := model.IDsOf(cached.Items)
	maxAge := s.policy.NextMaxAge(prev, ids, model.LatestPublishedAt(cached.Items), now)
	playlist := cached.Playlist
	playlist.CacheControl = model.NewCacheControl(now, maxAge)
	if err := s.store.UpdatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to extend playlist %s: %w", playlist.ID, err)
	}
	logger.GetLogger().
		WithField("playlist", playlist.ID.String()).
		WithField("maxAge", maxAge.String()).
		Debug("playlist not modified")
	return &PlaylistSyncOutcome{CacheControl: &playlist.CacheControl}, nil
}

func (s *PlaylistSync) replace(
	ctx context.Context,
	playlistID model.PlatformID,
	etag string,
	items []model.PlaylistItem,
	prev *ListSnapshot,
	cached *model.PlaylistWithItems,
	now time.Time,
) (*PlaylistSyncOutcome, error) {
	ids := model.IDsOf(items)
	maxAge := s.policy.NextMaxAge(prev, ids, model.LatestPublishedAt(items), now)
	playlist := model.Playlist{ID: playlistID, ETag: etag, CacheControl: model.NewCacheControl(now, maxAge)}
	if err := s.store.ReplacePlaylist(ctx, playlist, items); err != nil {
		return nil, fmt.Errorf("failed to store playlist %s: %w", playlistID, err)
	}

	var prevIDs []model.PlatformID
	if cached != nil {
		prevIDs = model.IDsOf(cached.Items)
	}
	added := filterByIDs(items, DiffIDs(prevIDs, ids).Added)
	logger.GetLogger().WithFields(map[string]interface{}{
		"playlist": playlistID.String(),
		"items":    len(items),
		"added":    len(added),
		"maxAge":   maxAge.String(),
	}).Info("playlist synced")
	return &PlaylistSyncOutcome{Added: added, CacheControl: &playlist.CacheControl}, nil
}
