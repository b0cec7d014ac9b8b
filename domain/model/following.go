package model

import (
	"fmt"
	"time"
)

// Following is a Twitch broadcaster followed by a user.
type Following struct {
	ID          PlatformID `json:"id"`
	Broadcaster ChannelRef `json:"broadcaster"`
	FollowedAt  time.Time  `json:"followed_at"`
	Order       int        `json:"order"`
}

func (f Following) EntityID() PlatformID       { return f.ID }
func (f Following) OwnerChannelID() PlatformID { return f.Broadcaster.ID }

// FollowingsSnapshot is everything one user follows, replaced as a whole.
type FollowingsSnapshot struct {
	FollowerID  PlatformID  `json:"follower_id"`
	Items       []Following `json:"items"`
	UpdatableAt time.Time   `json:"updatable_at"`
}

func (s FollowingsSnapshot) IsUpdatable(now time.Time) bool {
	return !now.Before(s.UpdatableAt)
}

func (s FollowingsSnapshot) BroadcasterIDs() []PlatformID {
	ids := make([]PlatformID, len(s.Items))
	for i, f := range s.Items {
		ids[i] = f.Broadcaster.ID
	}
	return ids
}

// Update replaces s with next. Applying a snapshot of another follower or one
// that is not strictly newer is a sync ordering bug and panics.
func (s FollowingsSnapshot) Update(next FollowingsSnapshot) FollowingsSnapshot {
	if s.FollowerID != next.FollowerID {
		panic(fmt.Sprintf("followings snapshot: follower mismatch %s != %s", s.FollowerID, next.FollowerID))
	}
	if !s.UpdatableAt.Before(next.UpdatableAt) {
		panic(fmt.Sprintf("followings snapshot: %s is not newer than %s",
			next.UpdatableAt.Format(time.RFC3339Nano), s.UpdatableAt.Format(time.RFC3339Nano)))
	}
	return next
}
