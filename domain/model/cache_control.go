package model

import "time"

// CacheControl is the freshness record attached to a fetched value. A record
// missing either field is always stale.
type CacheControl struct {
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
	MaxAge    *time.Duration `json:"max_age,omitempty"`
}

func NewCacheControl(fetchedAt time.Time, maxAge time.Duration) CacheControl {
	return CacheControl{FetchedAt: &fetchedAt, MaxAge: &maxAge}
}

// IsUpdatable reports whether the value must be re-fetched at now.
func (c CacheControl) IsUpdatable(now time.Time) bool {
	if c.FetchedAt == nil || c.MaxAge == nil {
		return true
	}
	return !now.Before(c.FetchedAt.Add(*c.MaxAge))
}

// UpdatableAt is the instant the value turns stale, or nil when it is stale already
// by construction.
func (c CacheControl) UpdatableAt() *time.Time {
	if c.FetchedAt == nil || c.MaxAge == nil {
		return nil
	}
	at := c.FetchedAt.Add(*c.MaxAge)
	return &at
}

// OverrideMaxAge returns a copy with a new TTL; FetchedAt is kept as is.
func (c CacheControl) OverrideMaxAge(maxAge time.Duration) CacheControl {
	out := CacheControl{MaxAge: &maxAge}
	if c.FetchedAt != nil {
		fetchedAt := *c.FetchedAt
		out.FetchedAt = &fetchedAt
	}
	return out
}

// MaxAgeOr returns the TTL or fallback when it is unset.
func (c CacheControl) MaxAgeOr(fallback time.Duration) time.Duration {
	if c.MaxAge == nil {
		return fallback
	}
	return *c.MaxAge
}

// Updatable pairs a value with its freshness record.
type Updatable[T any] struct {
	Item         T            `json:"item"`
	CacheControl CacheControl `json:"cache_control"`
}

func NewUpdatable[T any](item T, cacheControl CacheControl) Updatable[T] {
	return Updatable[T]{Item: item, CacheControl: cacheControl}
}

func (u Updatable[T]) IsUpdatable(now time.Time) bool {
	return u.CacheControl.IsUpdatable(now)
}

// Latest picks whichever envelope was fetched last. It panics when neither side
// carries a FetchedAt, since there is nothing to compare.
func Latest[T any](u1, u2 Updatable[T]) Updatable[T] {
	f1, f2 := u1.CacheControl.FetchedAt, u2.CacheControl.FetchedAt
	switch {
	case f1 == nil && f2 == nil:
		panic("model.Latest: both envelopes lack fetched_at")
	case f1 == nil:
		return u2
	case f2 == nil:
		return u1
	case f2.After(*f1):
		return u2
	default:
		return u1
	}
}
