package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
	"github.com/akihito104/yttt-sub001/infrastructure/utils"

	"golang.org/x/sync/errgroup"
)

// BatchFetcher loads one batch of entities from a platform.
type BatchFetcher[T model.Entity] func(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]T], error)

// SourceOfTruth resolves ID lookups from the local cache first and fetches only
// what is missing or stale, in concurrent batches.
type SourceOfTruth[T model.Entity] struct {
	store     repository.IEntityStore[T]
	fetch     BatchFetcher[T]
	clock     repository.Clock
	batchSize int
	maxAge    time.Duration
}

func NewSourceOfTruth[T model.Entity](
	store repository.IEntityStore[T],
	fetch BatchFetcher[T],
	clock repository.Clock,
	batchSize int,
	maxAge time.Duration,
) *SourceOfTruth[T] {
	return &SourceOfTruth[T]{store: store, fetch: fetch, clock: clock, batchSize: batchSize, maxAge: maxAge}
}

// Resolve returns the entities for ids, ordered as requested. IDs unknown to the
// platform are left out. When a batch fails the call fails with that batch's
// error; batches already written stay cached.
func (s *SourceOfTruth[T]) Resolve(ctx context.Context, ids []model.PlatformID) ([]T, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	now := s.clock.Now()

	cached, err := s.store.Find(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	found := make(map[model.PlatformID]T, len(ids))
	for _, c := range cached {
		if c.IsUpdatable(now) {
			continue
		}
		found[c.Item.EntityID()] = c.Item
	}

	var missing []model.PlatformID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return orderByIDs(ids, found), nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range utils.Chunk(missing, s.batchSize) {
		g.Go(func() error {
			res, err := s.fetch(gctx, batch)
			if err != nil {
				return err
			}
			cc := res.CacheControl
			if cc.FetchedAt == nil {
				cc = model.NewCacheControl(now, s.maxAge)
			} else if cc.MaxAge == nil {
				cc = cc.OverrideMaxAge(s.maxAge)
			}
			if err := s.store.Upsert(gctx, res.Item, cc); err != nil {
				return fmt.Errorf("failed to cache batch: %w", err)
			}
			mu.Lock()
			for _, item := range res.Item {
				found[item.EntityID()] = item
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("missing", len(missing)).
			Warn("batched lookup failed")
		return nil, err
	}
	return orderByIDs(ids, found), nil
}

// ResolveOne resolves a single ID; ErrNotFound is returned when the platform
// does not know it.
func (s *SourceOfTruth[T]) ResolveOne(ctx context.Context, id model.PlatformID) (T, error) {
	var zero T
	items, err := s.Resolve(ctx, []model.PlatformID{id})
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	return items[0], nil
}

// SelfResolver caches the single entity describing the signed-in account.
type SelfResolver[T any] struct {
	store  repository.IEnvelopeStore
	key    string
	fetch  func(ctx context.Context) (model.Updatable[T], error)
	clock  repository.Clock
	maxAge time.Duration
}

func NewSelfResolver[T any](
	store repository.IEnvelopeStore,
	key string,
	fetch func(ctx context.Context) (model.Updatable[T], error),
	clock repository.Clock,
	maxAge time.Duration,
) *SelfResolver[T] {
	return &SelfResolver[T]{store: store, key: key, fetch: fetch, clock: clock, maxAge: maxAge}
}

// Get returns the cached value while fresh, otherwise fetches and caches it.
func (s *SelfResolver[T]) Get(ctx context.Context) (T, error) {
	var cached T
	now := s.clock.Now()
	cc, found, err := s.store.Load(ctx, s.key, &cached)
	if err != nil {
		return cached, fmt.Errorf("failed to read %s: %w", s.key, err)
	}
	if found && !cc.IsUpdatable(now) {
		return cached, nil
	}

	res, err := s.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	cc = res.CacheControl
	if cc.FetchedAt == nil {
		cc = model.NewCacheControl(now, s.maxAge)
	} else if cc.MaxAge == nil {
		cc = cc.OverrideMaxAge(s.maxAge)
	}
	if err := s.store.Save(ctx, s.key, res.Item, cc); err != nil {
		return res.Item, fmt.Errorf("failed to cache %s: %w", s.key, err)
	}
	return res.Item, nil
}

func uniqueIDs(ids []model.PlatformID) []model.PlatformID {
	seen := make(map[model.PlatformID]struct{}, len(ids))
	out := make([]model.PlatformID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orderByIDs[T any](ids []model.PlatformID, found map[model.PlatformID]T) []T {
	out := make([]T, 0, len(found))
	for _, id := range ids {
		if item, ok := found[id]; ok {
			out = append(out, item)
		}
	}
	return out
}
