package usecase

import (
	"sort"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
)

// Timeline is the three display feeds built from both platforms.
type Timeline struct {
	OnAir    []model.TimelineEntry
	Upcoming []model.TimelineEntry
	FreeChat []model.TimelineEntry
}

// MergeTimeline splits sources into the on-air, upcoming and free chat feeds
// and sorts each one. Ended broadcasts and canceled schedule segments are
// dropped. A source that shows up twice under the same platform ID is kept once.
func MergeTimeline(sources ...model.TimelineSource) Timeline {
	var t Timeline
	seen := make(map[model.PlatformID]struct{}, len(sources))
	for _, s := range sources {
		if c, ok := s.(canceler); ok && c.IsCanceled() {
			continue
		}
		e := s.TimelineEntry()
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		switch {
		case e.IsOnAir():
			t.OnAir = append(t.OnAir, e)
		case e.IsFreeChat():
			t.FreeChat = append(t.FreeChat, e)
		case e.IsUpcoming():
			t.Upcoming = append(t.Upcoming, e)
		}
	}
	SortOnAir(t.OnAir)
	SortUpcoming(t.Upcoming)
	SortFreeChat(t.FreeChat)
	return t
}

type canceler interface {
	IsCanceled() bool
}

// SortOnAir orders by actual start, latest first, then title.
func SortOnAir(entries []model.TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := compareTime(a.ActualStartAt, b.ActualStartAt); c != 0 {
			return c > 0
		}
		return lessByTitleThenID(a, b)
	})
}

// SortUpcoming orders by scheduled start, earliest first, then title.
func SortUpcoming(entries []model.TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := compareTime(a.ScheduledStartAt, b.ScheduledStartAt); c != 0 {
			return c < 0
		}
		return lessByTitleThenID(a, b)
	})
}

// SortFreeChat groups by channel, then orders by scheduled start and title.
func SortFreeChat(entries []model.TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Channel.ID.Value != b.Channel.ID.Value {
			return a.Channel.ID.Value < b.Channel.ID.Value
		}
		if c := compareTime(a.ScheduledStartAt, b.ScheduledStartAt); c != 0 {
			return c < 0
		}
		return lessByTitleThenID(a, b)
	})
}

// lessByTitleThenID breaks ties on the channel ID value, then the raw ID value;
// the platform tag is never a sort key.
func lessByTitleThenID(a, b model.TimelineEntry) bool {
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	if a.Channel.ID.Value != b.Channel.ID.Value {
		return a.Channel.ID.Value < b.Channel.ID.Value
	}
	return a.ID.Value < b.ID.Value
}

// compareTime orders nil after every instant.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
