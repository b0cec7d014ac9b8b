package model

import (
	"fmt"
	"strings"
)

// Platform identifies the remote service an entity was fetched from.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTwitch  Platform = "twitch"
)

func (p Platform) Valid() bool {
	return p == PlatformYouTube || p == PlatformTwitch
}

// PlatformID is an entity ID tagged with its platform. Two IDs are equal only
// when both the raw value and the platform match, so the struct is safe to use
// as a map key across platforms.
type PlatformID struct {
	Value    string   `json:"value"`
	Platform Platform `json:"platform"`
}

func NewYouTubeID(value string) PlatformID {
	return PlatformID{Value: value, Platform: PlatformYouTube}
}

func NewTwitchID(value string) PlatformID {
	return PlatformID{Value: value, Platform: PlatformTwitch}
}

func (id PlatformID) IsZero() bool {
	return id.Value == ""
}

// String renders the storage key form "<platform>:<value>".
func (id PlatformID) String() string {
	return string(id.Platform) + ":" + id.Value
}

// ParsePlatformID is the inverse of PlatformID.String.
func ParsePlatformID(key string) (PlatformID, error) {
	platform, value, ok := strings.Cut(key, ":")
	if !ok || value == "" || !Platform(platform).Valid() {
		return PlatformID{}, fmt.Errorf("malformed platform id %q", key)
	}
	return PlatformID{Value: value, Platform: Platform(platform)}, nil
}

// Keys maps ids to their storage keys.
func Keys(ids []PlatformID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return keys
}

// Values returns the raw values of ids, dropping the platform tag.
func Values(ids []PlatformID) []string {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.Value
	}
	return values
}

// Entity is implemented by everything stored in the entity cache.
type Entity interface {
	EntityID() PlatformID
}

// ChannelOwned is implemented by entities that belong to a channel. The owner is
// used to decide whether a cached channel is still referenced.
type ChannelOwned interface {
	OwnerChannelID() PlatformID
}

// IDsOf collects the entity IDs of items in order.
func IDsOf[T Entity](items []T) []PlatformID {
	ids := make([]PlatformID, len(items))
	for i, item := range items {
		ids[i] = item.EntityID()
	}
	return ids
}

// OwnerIDsOf collects the distinct owner channels of items in order.
func OwnerIDsOf[T ChannelOwned](items []T) []PlatformID {
	seen := make(map[PlatformID]struct{}, len(items))
	var ids []PlatformID
	for _, item := range items {
		id := item.OwnerChannelID()
		if _, ok := seen[id]; ok || id.IsZero() {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
