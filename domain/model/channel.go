package model

import "time"

// ChannelRef is the slice of channel data embedded in other entities.
type ChannelRef struct {
	ID      PlatformID `json:"id"`
	Title   string     `json:"title"`
	IconURL string     `json:"icon_url,omitempty"`
}

// Channel is a YouTube channel or a Twitch broadcaster.
type Channel struct {
	ID              PlatformID `json:"id"`
	Title           string     `json:"title"`
	LoginName       string     `json:"login_name,omitempty"`
	Description     string     `json:"description,omitempty"`
	CustomURL       string     `json:"custom_url,omitempty"`
	IconURL         string     `json:"icon_url,omitempty"`
	BannerURL       string     `json:"banner_url,omitempty"`
	PublishedAt     time.Time  `json:"published_at"`
	UploadsPlaylist string     `json:"uploads_playlist,omitempty"`
	ViewCount       int64      `json:"view_count,omitempty"`
	SubscriberCount int64      `json:"subscriber_count,omitempty"`
	VideoCount      int64      `json:"video_count,omitempty"`
}

func (c Channel) EntityID() PlatformID { return c.ID }

// ChannelSection is a YouTube channel shelf listing playlists.
type ChannelSection struct {
	ID          string   `json:"id"`
	ChannelID   string   `json:"channel_id"`
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	Position    int64    `json:"position"`
	PlaylistIDs []string `json:"playlist_ids,omitempty"`
}
