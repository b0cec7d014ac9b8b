package model

import "time"

// PlaylistItem is one entry of a YouTube playlist.
type PlaylistItem struct {
	ID          PlatformID `json:"id"`
	PlaylistID  PlatformID `json:"playlist_id"`
	VideoID     PlatformID `json:"video_id"`
	ChannelID   PlatformID `json:"channel_id"`
	Title       string     `json:"title"`
	PublishedAt time.Time  `json:"published_at"`
}

func (i PlaylistItem) EntityID() PlatformID { return i.ID }

// Playlist is the freshness record of a playlist's cached item list. ETag is the
// validator sent back on the next conditional fetch.
type Playlist struct {
	ID           PlatformID   `json:"id"`
	ETag         string       `json:"etag,omitempty"`
	CacheControl CacheControl `json:"cache_control"`
}

type PlaylistWithItems struct {
	Playlist Playlist       `json:"playlist"`
	Items    []PlaylistItem `json:"items"`
}

// LatestPublishedAt returns the newest item publication, or nil for an empty list.
func LatestPublishedAt(items []PlaylistItem) *time.Time {
	var latest *time.Time
	for i := range items {
		p := items[i].PublishedAt
		if p.IsZero() {
			continue
		}
		if latest == nil || p.After(*latest) {
			latest = &p
		}
	}
	return latest
}
