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

// ScheduleSync caches Twitch schedules per broadcaster.
type ScheduleSync struct {
	remote      repository.ITwitch
	store       repository.IEnvelopeStore
	clock       repository.Clock
	maxAge      time.Duration
	emptyMaxAge time.Duration
}

func NewScheduleSync(remote repository.ITwitch, store repository.IEnvelopeStore, clock repository.Clock, maxAge, emptyMaxAge time.Duration) *ScheduleSync {
	return &ScheduleSync{remote: remote, store: store, clock: clock, maxAge: maxAge, emptyMaxAge: emptyMaxAge}
}

func ScheduleKey(broadcasterID model.PlatformID) string {
	return "schedule:" + broadcasterID.String()
}

// Schedule returns the broadcaster's segments, from cache while fresh. A
// broadcaster without a schedule yields an empty list that is cached longer.
func (s *ScheduleSync) Schedule(ctx context.Context, broadcasterID model.PlatformID) ([]model.TwitchScheduleSegment, error) {
	key := ScheduleKey(broadcasterID)
	now := s.clock.Now()
	var cached []model.TwitchScheduleSegment
	cc, found, err := s.store.Load(ctx, key, &cached)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule %s: %w", broadcasterID, err)
	}
	if found && !cc.IsUpdatable(now) {
		return cached, nil
	}

	res, err := s.remote.FetchSchedule(ctx, broadcasterID)
	var segments []model.TwitchScheduleSegment
	switch {
	case err == nil:
		segments = res.Item
		cc = model.NewCacheControl(now, res.CacheControl.MaxAgeOr(s.maxAge))
		if len(segments) == 0 {
			cc = cc.OverrideMaxAge(s.emptyMaxAge)
		}
	case errors.Is(err, model.ErrNotFound):
		logger.GetLogger().WithField("broadcaster", broadcasterID.String()).Debug("no schedule")
		cc = model.NewCacheControl(now, s.emptyMaxAge)
	default:
		return nil, fmt.Errorf("failed to fetch schedule %s: %w", broadcasterID, err)
	}
	if err := s.store.Save(ctx, key, segments, cc); err != nil {
		return nil, fmt.Errorf("failed to cache schedule %s: %w", broadcasterID, err)
	}
	return segments, nil
}

// Forget drops cached schedules, e.g. for broadcasters no longer followed.
func (s *ScheduleSync) Forget(ctx context.Context, broadcasterIDs ...model.PlatformID) error {
	if len(broadcasterIDs) == 0 {
		return nil
	}
	keys := make([]string, len(broadcasterIDs))
	for i, id := range broadcasterIDs {
		keys[i] = ScheduleKey(id)
	}
	return s.store.Delete(ctx, keys...)
}
