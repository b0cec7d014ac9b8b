package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// ErrPlatformDisabled is returned when a sync targets a platform without credentials.
var ErrPlatformDisabled = errors.New("platform is not configured")

// ISyncUseCase defines the sync operations exposed to the HTTP and worker layers
type ISyncUseCase interface {
	// Initialize reports whether the cached list can be shown without a refresh.
	Initialize(ctx context.Context, list string) (dto.InitializeAction, error)
	// SyncSubscriptions runs one load request, or every page when all is set.
	SyncSubscriptions(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error)
	SyncFollowedStreams(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error)
	SyncFollowings(ctx context.Context) (*dto.SyncResult, error)
	SyncPlaylist(ctx context.Context, playlistID model.PlatformID) (*dto.PlaylistSyncResult, error)
	// UploadPlaylists lists the uploads playlists of the subscribed channels.
	UploadPlaylists(ctx context.Context) ([]model.PlatformID, error)
	ResolveChannels(ctx context.Context, ids []model.PlatformID) ([]model.Channel, error)
	ChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error)
	Cleanup(ctx context.Context) (*dto.CleanupResult, error)
}

// SyncUseCaseConfig lists the collaborators of SyncUseCase. The YouTube or
// Twitch side may be left nil when the platform is not configured.
type SyncUseCaseConfig struct {
	YouTube       repository.IYouTube
	Twitch        repository.ITwitch
	Subscriptions repository.IPagedListStore[model.Subscription]
	Streams       repository.IPagedListStore[model.TwitchStream]
	ChannelStore  repository.IEntityStore[model.Channel]
	Channels      *ChannelResolver
	Videos        *SourceOfTruth[model.YouTubeVideo]
	TwitchSelf    *SelfResolver[model.Channel]
	Playlists     *PlaylistSync
	Followings    *FollowingsSync
	Schedules     *ScheduleSync
	Sections      *ChannelPlaylists
	Cleanup       *Cleanup
	Notifier      repository.ISyncNotifier
	Clock         repository.Clock

	SubscriptionsMaxAge   time.Duration
	FollowedStreamsMaxAge time.Duration
}

// SyncUseCase implements the sync operations
type SyncUseCase struct {
	cfg SyncUseCaseConfig
}

// NewSyncUseCase creates a new sync use case instance
func NewSyncUseCase(cfg SyncUseCaseConfig) ISyncUseCase {
	return &SyncUseCase{cfg: cfg}
}

func (u *SyncUseCase) Initialize(ctx context.Context, list string) (dto.InitializeAction, error) {
	switch list {
	case model.ListYouTubeSubscriptions:
		if u.cfg.YouTube == nil {
			return dto.SkipInitialRefresh, ErrPlatformDisabled
		}
		return u.subscriptionSync(nil).Initialize(ctx)
	case model.ListTwitchFollowedStream:
		if u.cfg.Twitch == nil {
			return dto.SkipInitialRefresh, ErrPlatformDisabled
		}
		return u.streamSync(model.PlatformID{}, nil).Initialize(ctx)
	}
	return dto.LaunchInitialRefresh, fmt.Errorf("unknown list %q", list)
}

// SyncSubscriptions syncs the YouTube subscription list
func (u *SyncUseCase) SyncSubscriptions(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error) {
	if u.cfg.YouTube == nil {
		return nil, ErrPlatformDisabled
	}
	result := &dto.SyncResult{List: model.ListYouTubeSubscriptions}
	c := u.subscriptionSync(result)
	return u.finish(ctx, result, u.cfg.Subscriptions.Count, func() (dto.PageResult, error) {
		if all {
			return c.SyncAll(ctx)
		}
		return c.Load(ctx, loadType)
	})
}

// SyncFollowedStreams syncs the live streams of the Twitch channels the user follows
func (u *SyncUseCase) SyncFollowedStreams(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error) {
	if u.cfg.Twitch == nil {
		return nil, ErrPlatformDisabled
	}
	me, err := u.cfg.TwitchSelf.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve twitch user: %w", err)
	}
	result := &dto.SyncResult{List: model.ListTwitchFollowedStream}
	c := u.streamSync(me.ID, result)
	return u.finish(ctx, result, u.cfg.Streams.Count, func() (dto.PageResult, error) {
		if all {
			return c.SyncAll(ctx)
		}
		return c.Load(ctx, loadType)
	})
}

// SyncFollowings refreshes the followings snapshot and drops what belonged to
// broadcasters no longer followed.
func (u *SyncUseCase) SyncFollowings(ctx context.Context) (*dto.SyncResult, error) {
	if u.cfg.Twitch == nil {
		return nil, ErrPlatformDisabled
	}
	out, err := u.cfg.Followings.Sync(ctx)
	if err != nil {
		return nil, err
	}
	result := &dto.SyncResult{
		List:                   model.ListTwitchFollowings,
		Added:                  model.Keys(out.Diff.Added),
		Removed:                model.Keys(out.Diff.Removed),
		Total:                  len(out.Snapshot.Items),
		EndOfPaginationReached: true,
	}
	if out.Skipped || out.Diff.IsEmpty() {
		return result, nil
	}
	if len(out.Diff.Removed) > 0 {
		if err := u.cfg.Schedules.Forget(ctx, out.Diff.Removed...); err != nil {
			return nil, fmt.Errorf("failed to drop schedules: %w", err)
		}
		if err := u.cfg.ChannelStore.Remove(ctx, out.Diff.Removed); err != nil {
			return nil, fmt.Errorf("failed to drop channels: %w", err)
		}
	}
	u.publish(ctx, model.ListTwitchFollowings, out.Diff)
	return result, nil
}

// SyncPlaylist syncs one playlist and caches the details of newly listed videos
func (u *SyncUseCase) SyncPlaylist(ctx context.Context, playlistID model.PlatformID) (*dto.PlaylistSyncResult, error) {
	if u.cfg.YouTube == nil {
		return nil, ErrPlatformDisabled
	}
	out, err := u.cfg.Playlists.Sync(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	result := &dto.PlaylistSyncResult{PlaylistID: playlistID.String(), Skipped: out.Skipped, Added: []string{}}
	if len(out.Added) == 0 {
		return result, nil
	}
	videoIDs := make([]model.PlatformID, len(out.Added))
	for i, item := range out.Added {
		videoIDs[i] = item.VideoID
	}
	if _, err := u.cfg.Videos.Resolve(ctx, videoIDs); err != nil {
		return nil, fmt.Errorf("failed to resolve added videos: %w", err)
	}
	result.Added = model.Keys(videoIDs)
	u.publish(ctx, model.ListYouTubePlaylist+":"+playlistID.Value, IDDiff{Added: videoIDs})
	return result, nil
}

func (u *SyncUseCase) UploadPlaylists(ctx context.Context) ([]model.PlatformID, error) {
	if u.cfg.YouTube == nil {
		return nil, ErrPlatformDisabled
	}
	subs, err := u.cfg.Subscriptions.Items(ctx, model.ListYouTubeSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}
	channels, err := u.cfg.Channels.Resolve(ctx, model.OwnerIDsOf(subs))
	if err != nil {
		return nil, err
	}
	playlists := make([]model.PlatformID, 0, len(channels))
	for _, ch := range channels {
		if ch.UploadsPlaylist != "" {
			playlists = append(playlists, model.NewYouTubeID(ch.UploadsPlaylist))
		}
	}
	return playlists, nil
}

// ResolveChannels returns channel details from cache, fetching what is missing or stale
func (u *SyncUseCase) ResolveChannels(ctx context.Context, ids []model.PlatformID) ([]model.Channel, error) {
	return u.cfg.Channels.Resolve(ctx, ids)
}

func (u *SyncUseCase) ChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error) {
	if u.cfg.Sections == nil {
		return nil, ErrPlatformDisabled
	}
	return u.cfg.Sections.Sections(ctx, channelID)
}

func (u *SyncUseCase) Cleanup(ctx context.Context) (*dto.CleanupResult, error) {
	return u.cfg.Cleanup.Run(ctx)
}

func (u *SyncUseCase) subscriptionSync(result *dto.SyncResult) *PagedSyncCoordinator[model.Subscription] {
	return NewPagedSyncCoordinator(PagedSyncConfig[model.Subscription]{
		List:      model.ListYouTubeSubscriptions,
		Fetch:     u.cfg.YouTube.FetchSubscriptions,
		Store:     u.cfg.Subscriptions,
		Clock:     u.cfg.Clock,
		MaxAge:    u.cfg.SubscriptionsMaxAge,
		WithOrder: model.Subscription.WithOrder,
		OnReplaced: func(ctx context.Context, r Replacement[model.Subscription]) error {
			result.Added = model.Keys(r.Diff.Added)
			result.Removed = model.Keys(r.Diff.Removed)
			if owners := model.OwnerIDsOf(r.Removed); len(owners) > 0 {
				if err := u.cfg.ChannelStore.Remove(ctx, owners); err != nil {
					return err
				}
				if u.cfg.Sections != nil {
					if err := u.cfg.Sections.Invalidate(ctx, owners...); err != nil {
						return err
					}
				}
			}
			u.publish(ctx, r.List, r.Diff)
			return nil
		},
	})
}

func (u *SyncUseCase) streamSync(userID model.PlatformID, result *dto.SyncResult) *PagedSyncCoordinator[model.TwitchStream] {
	return NewPagedSyncCoordinator(PagedSyncConfig[model.TwitchStream]{
		List: model.ListTwitchFollowedStream,
		Fetch: func(ctx context.Context, pageToken string) (*dto.Page[model.TwitchStream], error) {
			return u.cfg.Twitch.FetchFollowedStreams(ctx, userID, pageToken)
		},
		Store:     u.cfg.Streams,
		Clock:     u.cfg.Clock,
		MaxAge:    u.cfg.FollowedStreamsMaxAge,
		WithOrder: model.TwitchStream.WithOrder,
		OnReplaced: func(ctx context.Context, r Replacement[model.TwitchStream]) error {
			result.Added = model.Keys(r.Diff.Added)
			result.Removed = model.Keys(r.Diff.Removed)
			u.publish(ctx, r.List, r.Diff)
			return nil
		},
	})
}

func (u *SyncUseCase) finish(
	ctx context.Context,
	result *dto.SyncResult,
	count func(ctx context.Context, list string) (int, error),
	load func() (dto.PageResult, error),
) (*dto.SyncResult, error) {
	page, err := load()
	if err != nil {
		return nil, err
	}
	total, err := count(ctx, result.List)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", result.List, err)
	}
	result.Total = total
	result.EndOfPaginationReached = page.EndOfPaginationReached
	if result.Added == nil {
		result.Added = []string{}
	}
	if result.Removed == nil {
		result.Removed = []string{}
	}
	return result, nil
}

// publish is best effort: a lost event never fails the sync that produced it.
func (u *SyncUseCase) publish(ctx context.Context, list string, diff IDDiff) {
	if u.cfg.Notifier == nil || diff.IsEmpty() {
		return
	}
	event := dto.SyncEvent{
		List:     list,
		Added:    model.Keys(diff.Added),
		Removed:  model.Keys(diff.Removed),
		SyncedAt: u.cfg.Clock.Now(),
	}
	if err := u.cfg.Notifier.Publish(ctx, event); err != nil {
		logger.GetLogger().WithField("list", list).WithField("error", err).Warn("failed to publish sync event")
	}
}
