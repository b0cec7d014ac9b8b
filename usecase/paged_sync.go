package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// PageFetcher loads one page of a remote list. An empty token asks for the first page.
type PageFetcher[T model.Entity] func(ctx context.Context, pageToken string) (*dto.Page[T], error)

// Replacement describes what a refresh changed in the cached list.
type Replacement[T model.Entity] struct {
	List    string
	Diff    IDDiff
	Removed []T
	Current []T
}

// PagedSyncConfig wires a PagedSyncCoordinator to one list.
type PagedSyncConfig[T model.Entity] struct {
	List  string
	Fetch PageFetcher[T]
	Store repository.IPagedListStore[T]
	Clock repository.Clock
	// MaxAge is used when the remote page carries no TTL.
	MaxAge time.Duration
	// WithOrder stamps the list position on an item. Optional.
	WithOrder func(item T, order int) T
	// OnReplaced runs once a refresh has walked the list to its last page.
	// A failure is logged and does not undo the refresh. Optional.
	OnReplaced func(ctx context.Context, r Replacement[T]) error
	// MaxPages stops SyncAll on a runaway cursor.
	MaxPages int
}

// PagedSyncCoordinator drives a paged remote list into the local store with
// refresh, append and prepend requests. A refresh that spans several pages is
// only diffed against the previous list after the last page has been stored.
type PagedSyncCoordinator[T model.Entity] struct {
	cfg PagedSyncConfig[T]

	// baseline holds the list as it was before a multi-page refresh.
	baseline []T
	pending  bool
}

func NewPagedSyncCoordinator[T model.Entity](cfg PagedSyncConfig[T]) *PagedSyncCoordinator[T] {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1000
	}
	return &PagedSyncCoordinator[T]{cfg: cfg}
}

// Initialize decides whether the cached list can be served without a refresh.
func (c *PagedSyncCoordinator[T]) Initialize(ctx context.Context) (dto.InitializeAction, error) {
	state, err := c.cfg.Store.State(ctx, c.cfg.List)
	if err != nil {
		return dto.LaunchInitialRefresh, fmt.Errorf("failed to read %s state: %w", c.cfg.List, err)
	}
	if state == nil || state.CacheControl.IsUpdatable(c.cfg.Clock.Now()) {
		return dto.LaunchInitialRefresh, nil
	}
	return dto.SkipInitialRefresh, nil
}

// Load serves one load request.
func (c *PagedSyncCoordinator[T]) Load(ctx context.Context, loadType dto.LoadType) (dto.PageResult, error) {
	switch loadType {
	case dto.LoadRefresh:
		return c.refresh(ctx)
	case dto.LoadAppend:
		return c.append(ctx)
	case dto.LoadPrepend:
		return dto.PageResult{EndOfPaginationReached: true}, nil
	}
	return dto.PageResult{}, fmt.Errorf("unknown load type %d", loadType)
}

// SyncAll refreshes the list and appends pages until the remote runs out.
func (c *PagedSyncCoordinator[T]) SyncAll(ctx context.Context) (dto.PageResult, error) {
	res, err := c.Load(ctx, dto.LoadRefresh)
	for page := 1; err == nil && !res.EndOfPaginationReached; page++ {
		if page >= c.cfg.MaxPages {
			logger.GetLogger().WithField("list", c.cfg.List).Warn("page limit reached, stopping pagination")
			c.baseline, c.pending = nil, false
			break
		}
		res, err = c.Load(ctx, dto.LoadAppend)
	}
	return res, err
}

func (c *PagedSyncCoordinator[T]) refresh(ctx context.Context) (dto.PageResult, error) {
	now := c.cfg.Clock.Now()
	page, err := c.cfg.Fetch(ctx, "")
	if err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to refresh %s: %w", c.cfg.List, err)
	}

	prev, err := c.cfg.Store.Items(ctx, c.cfg.List)
	if err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to read %s: %w", c.cfg.List, err)
	}
	items := c.ordered(page.Items, 0)
	state := model.ListState{
		List:          c.cfg.List,
		NextPageToken: page.NextPageToken,
		CacheControl:  c.cacheControl(page, now),
	}
	if err := c.cfg.Store.Replace(ctx, c.cfg.List, items, state); err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to replace %s: %w", c.cfg.List, err)
	}

	if page.NextPageToken == "" {
		c.reconcile(ctx, prev, items)
		return dto.PageResult{EndOfPaginationReached: true}, nil
	}
	c.baseline, c.pending = prev, true
	logger.GetLogger().WithFields(map[string]interface{}{
		"list":     c.cfg.List,
		"loadType": dto.LoadRefresh.String(),
		"items":    len(items),
	}).Info("list refresh started")
	return dto.PageResult{}, nil
}

// reconcile diffs a completed refresh against the list it replaced.
func (c *PagedSyncCoordinator[T]) reconcile(ctx context.Context, prev, current []T) {
	c.baseline, c.pending = nil, false
	diff := DiffIDs(model.IDsOf(prev), model.IDsOf(current))
	logger.GetLogger().WithFields(map[string]interface{}{
		"list":    c.cfg.List,
		"items":   len(current),
		"added":   len(diff.Added),
		"removed": len(diff.Removed),
	}).Info("list refreshed")
	if c.cfg.OnReplaced == nil {
		return
	}
	r := Replacement[T]{List: c.cfg.List, Diff: diff, Removed: filterByIDs(prev, diff.Removed), Current: current}
	if err := c.cfg.OnReplaced(ctx, r); err != nil {
		logger.GetLogger().
			WithField("list", c.cfg.List).
			WithField("error", err).
			Error("dependent rows not reconciled")
	}
}

func (c *PagedSyncCoordinator[T]) append(ctx context.Context) (dto.PageResult, error) {
	state, err := c.cfg.Store.State(ctx, c.cfg.List)
	if err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to read %s state: %w", c.cfg.List, err)
	}
	if state == nil || state.CacheControl.IsUpdatable(c.cfg.Clock.Now()) {
		return c.refresh(ctx)
	}
	if state.NextPageToken == "" {
		return dto.PageResult{EndOfPaginationReached: true}, nil
	}

	page, err := c.cfg.Fetch(ctx, state.NextPageToken)
	if err != nil {
		logger.GetLogger().
			WithField("list", c.cfg.List).
			WithField("error", err).
			Warn("append failed, ending pagination")
		c.baseline, c.pending = nil, false
		return dto.PageResult{EndOfPaginationReached: true}, nil
	}

	offset, err := c.cfg.Store.Count(ctx, c.cfg.List)
	if err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to count %s: %w", c.cfg.List, err)
	}
	next := model.ListState{
		List:          c.cfg.List,
		NextPageToken: page.NextPageToken,
		CacheControl:  state.CacheControl,
	}
	if page.NextPageToken == state.NextPageToken {
		next.NextPageToken = ""
	}
	if err := c.cfg.Store.Append(ctx, c.cfg.List, c.ordered(page.Items, offset), offset, next); err != nil {
		return dto.PageResult{}, fmt.Errorf("failed to append %s: %w", c.cfg.List, err)
	}
	if next.NextPageToken != "" {
		return dto.PageResult{}, nil
	}
	if c.pending {
		current, err := c.cfg.Store.Items(ctx, c.cfg.List)
		if err != nil {
			return dto.PageResult{}, fmt.Errorf("failed to read %s: %w", c.cfg.List, err)
		}
		c.reconcile(ctx, c.baseline, current)
	}
	return dto.PageResult{EndOfPaginationReached: true}, nil
}

func (c *PagedSyncCoordinator[T]) ordered(items []T, offset int) []T {
	if c.cfg.WithOrder == nil {
		return items
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = c.cfg.WithOrder(item, offset+i)
	}
	return out
}

func (c *PagedSyncCoordinator[T]) cacheControl(page *dto.Page[T], now time.Time) model.CacheControl {
	cc := page.CacheControl
	if cc.FetchedAt == nil {
		return model.NewCacheControl(now, cc.MaxAgeOr(c.cfg.MaxAge))
	}
	if cc.MaxAge == nil {
		return cc.OverrideMaxAge(c.cfg.MaxAge)
	}
	return cc
}
