package dto

import "time"

// SyncResult is returned by the list sync endpoints.
type SyncResult struct {
	List                   string   `json:"list"`
	Added                  []string `json:"added"`
	Removed                []string `json:"removed"`
	Total                  int      `json:"total"`
	EndOfPaginationReached bool     `json:"end_of_pagination_reached"`
}

// PlaylistSyncResult lists the playlist items that were not cached before.
type PlaylistSyncResult struct {
	PlaylistID string   `json:"playlist_id"`
	Added      []string `json:"added"`
	Skipped    bool     `json:"skipped"`
}

// CleanupResult reports what the unreferenced-row cleanup removed.
type CleanupResult struct {
	Videos   int64    `json:"videos"`
	Channels []string `json:"channels"`
}

// SyncEvent is published after a list was replaced with remote content.
type SyncEvent struct {
	List     string    `json:"list"`
	Added    []string  `json:"added"`
	Removed  []string  `json:"removed"`
	SyncedAt time.Time `json:"synced_at"`
}

// ChannelListRequest is bound from GET /api/channels.
type ChannelListRequest struct {
	YouTube []string `form:"youtube"`
	Twitch  []string `form:"twitch"`
}
