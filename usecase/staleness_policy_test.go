package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/usecase"
)

func TestDefaultMaxAge(t *testing.T) {
	assert.Equal(t, 11*time.Minute+15*time.Second, usecase.DefaultMaxAge)
}

func TestStalenessPolicy_NextMaxAge(t *testing.T) {
	policy := usecase.NewStalenessPolicy()
	now := baseTime
	ids := ytIDs("a", "b", "c")
	maxAge := func(d time.Duration) *time.Duration { return &d }

	tests := []struct {
		name      string
		prev      *usecase.ListSnapshot
		fetched   []model.PlatformID
		published *time.Time
		want      time.Duration
	}{
		{
			name:    "empty result uses the ceiling",
			prev:    &usecase.ListSnapshot{IDs: ids},
			fetched: nil,
			want:    usecase.MaxAgeCeiling,
		},
		{
			name:      "first fetch uses the default",
			fetched:   ids,
			published: ptrTime(now.Add(-10 * 24 * time.Hour)),
			want:      usecase.DefaultMaxAge,
		},
		{
			name:      "changed content resets to the default",
			prev:      &usecase.ListSnapshot{IDs: ytIDs("a", "b"), MaxAge: maxAge(12 * time.Hour)},
			fetched:   ids,
			published: ptrTime(now.Add(-10 * 24 * time.Hour)),
			want:      usecase.DefaultMaxAge,
		},
		{
			name:      "unchanged and idle for ten days reaches one day",
			prev:      &usecase.ListSnapshot{IDs: ids},
			fetched:   ids,
			published: ptrTime(now.Add(-10 * 24 * time.Hour)),
			want:      24 * time.Hour,
		},
		{
			name:      "unchanged and idle for five days backs off by 2^5",
			prev:      &usecase.ListSnapshot{IDs: ids},
			fetched:   ids,
			published: ptrTime(now.Add(-5*24*time.Hour - time.Hour)),
			want:      usecase.DefaultMaxAge * 32,
		},
		{
			name:      "unchanged doubles the previous value",
			prev:      &usecase.ListSnapshot{IDs: ids, MaxAge: maxAge(4 * time.Hour)},
			fetched:   ids,
			published: ptrTime(now.Add(-5 * 24 * time.Hour)),
			want:      8 * time.Hour,
		},
		{
			name:      "recent publication caps at thirty minutes",
			prev:      &usecase.ListSnapshot{IDs: ids, MaxAge: maxAge(25 * time.Minute)},
			fetched:   ids,
			published: ptrTime(now.Add(-2 * 24 * time.Hour)),
			want:      usecase.RecentlyActiveCeiling,
		},
		{
			name:      "recent publication with no history stays at the default floor",
			prev:      &usecase.ListSnapshot{IDs: ids},
			fetched:   ids,
			published: ptrTime(now.Add(-time.Hour)),
			want:      usecase.DefaultMaxAge,
		},
		{
			name:    "unknown publication counts as fully idle",
			prev:    &usecase.ListSnapshot{IDs: ids},
			fetched: ids,
			want:    24 * time.Hour,
		},
		{
			name:      "doubling never exceeds the ceiling",
			prev:      &usecase.ListSnapshot{IDs: ids, MaxAge: maxAge(20 * time.Hour)},
			fetched:   ids,
			published: ptrTime(now.Add(-6 * 24 * time.Hour)),
			want:      usecase.MaxAgeCeiling,
		},
		{
			name:      "order does not matter for equality",
			prev:      &usecase.ListSnapshot{IDs: ytIDs("c", "a", "b")},
			fetched:   ids,
			published: ptrTime(now.Add(-10 * 24 * time.Hour)),
			want:      24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.NextMaxAge(tt.prev, tt.fetched, tt.published, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStalenessPolicy_StrictDoublingAcrossCycles(t *testing.T) {
	policy := usecase.NewStalenessPolicy()
	ids := ytIDs("a")
	published := baseTime.Add(-5 * 24 * time.Hour)

	var prev *time.Duration
	got := []time.Duration{}
	for i := 0; i < 4; i++ {
		d := policy.NextMaxAge(&usecase.ListSnapshot{IDs: ids, MaxAge: prev}, ids, &published, baseTime)
		got = append(got, d)
		prev = &d
	}
	assert.Equal(t, []time.Duration{
		usecase.DefaultMaxAge * 32,
		usecase.DefaultMaxAge * 64,
		usecase.DefaultMaxAge * 128,
		usecase.MaxAgeCeiling,
	}, got)
}
