package repository

import (
	"context"
	"time"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
)

// IEntityStore is the local cache of ID keyed entities of one kind.
type IEntityStore[T model.Entity] interface {
	// Find returns the cached rows among ids, stale ones included, with their
	// freshness records. Missing ids are simply absent.
	Find(ctx context.Context, ids []model.PlatformID) ([]model.Updatable[T], error)
	// Upsert writes items in one transaction.
	Upsert(ctx context.Context, items []T, cacheControl model.CacheControl) error
	Remove(ctx context.Context, ids []model.PlatformID) error
	// List returns up to limit rows, most recently fetched first.
	List(ctx context.Context, limit int) ([]model.Updatable[T], error)
}

// IPagedListStore keeps a paged remote list together with its paging record.
type IPagedListStore[T model.Entity] interface {
	State(ctx context.Context, list string) (*model.ListState, error)
	Items(ctx context.Context, list string) ([]T, error)
	Count(ctx context.Context, list string) (int, error)
	// Replace swaps the list content and its state in one transaction.
	Replace(ctx context.Context, list string, items []T, state model.ListState) error
	// Append upserts items at positions offset.. and stores state in one
	// transaction. Rows already in the list keep their position.
	Append(ctx context.Context, list string, items []T, offset int, state model.ListState) error
}

// IPlaylistStore keeps playlist items and the playlist freshness record.
type IPlaylistStore interface {
	FindPlaylist(ctx context.Context, id model.PlatformID) (*model.PlaylistWithItems, error)
	// ReplacePlaylist writes the playlist record and its complete item list in
	// one transaction.
	ReplacePlaylist(ctx context.Context, playlist model.Playlist, items []model.PlaylistItem) error
	UpdatePlaylist(ctx context.Context, playlist model.Playlist) error
}

// IFollowingsStore keeps one followings snapshot per follower.
type IFollowingsStore interface {
	Load(ctx context.Context, followerID model.PlatformID) (*model.FollowingsSnapshot, error)
	Save(ctx context.Context, snapshot model.FollowingsSnapshot) error
}

// IEnvelopeStore keeps single values under a key together with a freshness record.
type IEnvelopeStore interface {
	// Load decodes the value stored under key into dest. found is false when
	// nothing is stored.
	Load(ctx context.Context, key string, dest any) (cacheControl model.CacheControl, found bool, err error)
	Save(ctx context.Context, key string, value any, cacheControl model.CacheControl) error
	Delete(ctx context.Context, keys ...string) error
}

// IChannelSectionStore is the injected replacement for a process wide
// channel -> sections map.
type IChannelSectionStore interface {
	Get(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, bool, error)
	Set(ctx context.Context, channelID model.PlatformID, sections []model.ChannelSection, ttl time.Duration) error
	Invalidate(ctx context.Context, channelIDs ...model.PlatformID) error
}

// ICleanupStore deletes cached rows nothing points at any more.
type ICleanupStore interface {
	DeleteUnreferencedVideos(ctx context.Context) (int64, error)
	DeleteUnreferencedChannels(ctx context.Context) ([]model.PlatformID, error)
}

// ISyncNotifier publishes list changes to downstream consumers.
type ISyncNotifier interface {
	Publish(ctx context.Context, event dto.SyncEvent) error
}

// Clock is injected wherever staleness is decided.
type Clock interface {
	Now() time.Time
}
