package model

// ListState is the paging record kept next to a locally cached paged list.
type ListState struct {
	List          string       `json:"list"`
	NextPageToken string       `json:"next_page_token,omitempty"`
	CacheControl  CacheControl `json:"cache_control"`
}

// Well known list keys.
const (
	ListYouTubeSubscriptions = "youtube:subscriptions"
	ListTwitchFollowedStream = "twitch:followed_streams"
	ListTwitchFollowings     = "twitch:followings"
	ListYouTubePlaylist      = "youtube:playlist"
)
