package usecase

import (
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
)

const (
	// DefaultMaxAge is one day divided by 2^7.
	DefaultMaxAge = 24 * time.Hour / (1 << maxInactionDays)
	// MaxAgeCeiling bounds every adaptive TTL.
	MaxAgeCeiling = 24 * time.Hour
	// RecentlyActiveCeiling bounds the TTL of lists that published recently.
	RecentlyActiveCeiling = 30 * time.Minute
	// RecentlyActiveWindow is how long after a publication a list counts as active.
	RecentlyActiveWindow = 4 * 24 * time.Hour

	maxInactionDays = 7
)

// ListSnapshot is what is known about a cached list before a fetch.
type ListSnapshot struct {
	IDs    []model.PlatformID
	MaxAge *time.Duration
}

// StalenessPolicy computes the next TTL of an incrementally synced list.
type StalenessPolicy struct {
	Default        time.Duration
	Ceiling        time.Duration
	RecentCeiling  time.Duration
	RecentWindow   time.Duration
	MaxBackoffDays int
}

func NewStalenessPolicy() StalenessPolicy {
	return StalenessPolicy{
		Default:        DefaultMaxAge,
		Ceiling:        MaxAgeCeiling,
		RecentCeiling:  RecentlyActiveCeiling,
		RecentWindow:   RecentlyActiveWindow,
		MaxBackoffDays: maxInactionDays,
	}
}

// NextMaxAge returns the TTL for a list fetched at now. prev is nil when the
// list was never cached. latestPublished is the newest publication among
// fetched, nil when unknown.
func (p StalenessPolicy) NextMaxAge(prev *ListSnapshot, fetched []model.PlatformID, latestPublished *time.Time, now time.Time) time.Duration {
	if len(fetched) == 0 {
		return p.Ceiling
	}
	if prev == nil {
		return p.Default
	}
	if !sameIDs(prev.IDs, fetched) {
		return p.Default
	}

	days := p.MaxBackoffDays
	ceiling := p.Ceiling
	if latestPublished != nil {
		since := now.Sub(*latestPublished)
		days = clamp(int(since/(24*time.Hour)), 0, p.MaxBackoffDays)
		if since < p.RecentWindow {
			ceiling = p.RecentCeiling
		}
	}
	maxAge := p.Default * time.Duration(1<<days)
	if prev.MaxAge != nil && 2*(*prev.MaxAge) > maxAge {
		maxAge = 2 * (*prev.MaxAge)
	}
	if maxAge > ceiling {
		maxAge = ceiling
	}
	if maxAge < p.Default {
		maxAge = p.Default
	}
	return maxAge
}

func sameIDs(a, b []model.PlatformID) bool {
	d := DiffIDs(a, b)
	return len(d.Added) == 0 && len(d.Removed) == 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
