package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

const scheduleFanOut = 8

// ITimelineUseCase builds the timeline feeds from the local cache
type ITimelineUseCase interface {
	Timeline(ctx context.Context) (*dto.TimelineResponse, error)
}

// TimelineUseCaseConfig lists the sources of the timeline. Nil sources are skipped.
type TimelineUseCaseConfig struct {
	Videos     repository.IEntityStore[model.YouTubeVideo]
	Streams    repository.IPagedListStore[model.TwitchStream]
	Followings *FollowingsSync
	Schedules  *ScheduleSync
	Channels   *ChannelResolver
	VideoLimit int
}

type TimelineUseCase struct {
	cfg TimelineUseCaseConfig
}

func NewTimelineUseCase(cfg TimelineUseCaseConfig) ITimelineUseCase {
	return &TimelineUseCase{cfg: cfg}
}

// Timeline reads every cached source, decorates it with channel details and
// merges the result into the three feeds. Schedules and channel details are
// best effort: a broadcaster whose schedule cannot be loaded is left out.
func (u *TimelineUseCase) Timeline(ctx context.Context) (*dto.TimelineResponse, error) {
	var sources []model.TimelineSource

	if u.cfg.Videos != nil {
		videos, err := u.cfg.Videos.List(ctx, u.cfg.VideoLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}
		for _, v := range videos {
			sources = append(sources, v.Item)
		}
	}
	if u.cfg.Streams != nil {
		streams, err := u.cfg.Streams.Items(ctx, model.ListTwitchFollowedStream)
		if err != nil {
			return nil, fmt.Errorf("failed to list streams: %w", err)
		}
		for _, s := range streams {
			sources = append(sources, s)
		}
	}
	segments, err := u.schedules(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		sources = append(sources, s)
	}

	t := MergeTimeline(u.decorate(ctx, sources)...)
	return &dto.TimelineResponse{
		OnAir:    dto.NewTimelineItems(t.OnAir),
		Upcoming: dto.NewTimelineItems(t.Upcoming),
		FreeChat: dto.NewTimelineItems(t.FreeChat),
	}, nil
}

func (u *TimelineUseCase) schedules(ctx context.Context) ([]model.TwitchScheduleSegment, error) {
	if u.cfg.Followings == nil || u.cfg.Schedules == nil {
		return nil, nil
	}
	snapshot, err := u.cfg.Followings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load followings: %w", err)
	}

	var (
		mu  sync.Mutex
		out []model.TwitchScheduleSegment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scheduleFanOut)
	for _, id := range snapshot.BroadcasterIDs() {
		g.Go(func() error {
			segments, err := u.cfg.Schedules.Schedule(gctx, id)
			if err != nil {
				logger.GetLogger().WithField("broadcaster", id.String()).WithField("error", err).Warn("skipping schedule")
				return nil
			}
			mu.Lock()
			out = append(out, segments...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (u *TimelineUseCase) decorate(ctx context.Context, sources []model.TimelineSource) []model.TimelineSource {
	if u.cfg.Channels == nil || len(sources) == 0 {
		return sources
	}
	ids := make([]model.PlatformID, len(sources))
	for i, s := range sources {
		ids[i] = s.TimelineEntry().Channel.ID
	}
	channels, err := u.cfg.Channels.Resolve(ctx, ids)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("channel details unavailable, using list data")
		return sources
	}
	byID := make(map[model.PlatformID]*model.Channel, len(channels))
	for i := range channels {
		byID[channels[i].ID] = &channels[i]
	}
	out := make([]model.TimelineSource, len(sources))
	for i, s := range sources {
		out[i] = model.LiveVideo{Source: s, ChannelDetail: byID[s.TimelineEntry().Channel.ID]}
	}
	return out
}
