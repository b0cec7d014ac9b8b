package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

const (
	maxFollowingsPages      = 100
	defaultFollowingsMaxAge = time.Hour
)

// FollowingsSync keeps the signed-in Twitch user's followings snapshot.
type FollowingsSync struct {
	remote repository.ITwitch
	store  repository.IFollowingsStore
	self   *SelfResolver[model.Channel]
	clock  repository.Clock
	maxAge time.Duration
}

func NewFollowingsSync(
	remote repository.ITwitch,
	store repository.IFollowingsStore,
	self *SelfResolver[model.Channel],
	clock repository.Clock,
	maxAge time.Duration,
) *FollowingsSync {
	// a snapshot must always expire after the one it replaces
	if maxAge <= 0 {
		maxAge = defaultFollowingsMaxAge
	}
	return &FollowingsSync{remote: remote, store: store, self: self, clock: clock, maxAge: maxAge}
}

// FollowingsSyncOutcome is the snapshot in effect after a sync plus what changed.
type FollowingsSyncOutcome struct {
	Snapshot model.FollowingsSnapshot
	Diff     IDDiff
	Skipped  bool
}

// Sync fetches every followings page and replaces the snapshot when the stored
// one is due. The returned diff is over broadcaster IDs.
func (s *FollowingsSync) Sync(ctx context.Context) (*FollowingsSyncOutcome, error) {
	me, err := s.self.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve twitch user: %w", err)
	}
	now := s.clock.Now()
	prev, err := s.store.Load(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read followings: %w", err)
	}
	if prev != nil && !prev.IsUpdatable(now) {
		return &FollowingsSyncOutcome{Snapshot: *prev, Skipped: true}, nil
	}

	items, err := s.fetchAll(ctx, me.ID)
	if err != nil {
		return nil, err
	}
	next := model.FollowingsSnapshot{FollowerID: me.ID, Items: items, UpdatableAt: now.Add(s.maxAge)}
	var prevIDs []model.PlatformID
	if prev != nil {
		prevIDs = prev.BroadcasterIDs()
		next = prev.Update(next)
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save followings: %w", err)
	}

	diff := DiffIDs(prevIDs, next.BroadcasterIDs())
	logger.GetLogger().WithFields(map[string]interface{}{
		"follower": me.ID.String(),
		"items":    len(items),
		"added":    len(diff.Added),
		"removed":  len(diff.Removed),
	}).Info("followings synced")
	return &FollowingsSyncOutcome{Snapshot: next, Diff: diff}, nil
}

// Current returns the stored snapshot, syncing first when there is none or it is due.
func (s *FollowingsSync) Current(ctx context.Context) (model.FollowingsSnapshot, error) {
	out, err := s.Sync(ctx)
	if err != nil {
		return model.FollowingsSnapshot{}, err
	}
	return out.Snapshot, nil
}

func (s *FollowingsSync) fetchAll(ctx context.Context, userID model.PlatformID) ([]model.Following, error) {
	var items []model.Following
	cursor := ""
	for page := 0; page < maxFollowingsPages; page++ {
		res, err := s.remote.FetchFollowings(ctx, userID, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch followings: %w", err)
		}
		for _, f := range res.Items {
			f.Order = len(items)
			items = append(items, f)
		}
		if res.NextPageToken == "" || res.NextPageToken == cursor {
			break
		}
		cursor = res.NextPageToken
	}
	return items, nil
}
