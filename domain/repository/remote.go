package repository

import (
	"context"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
)

// Platform clients return *model.NetworkError for every non-2xx response.

// IYouTube is the YouTube Data API surface the sync engine needs.
type IYouTube interface {
	// FetchSubscriptions returns one page of the signed-in account's subscriptions
	// in relevance order. An empty pageToken asks for the first page.
	FetchSubscriptions(ctx context.Context, pageToken string) (*dto.Page[model.Subscription], error)
	FetchChannels(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error)
	FetchVideos(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.YouTubeVideo], error)
	// FetchPlaylistItems returns the newest page of a playlist. A non-empty etag
	// makes the request conditional; an unchanged playlist yields a 304 NetworkError.
	FetchPlaylistItems(ctx context.Context, playlistID model.PlatformID, etag string) (*dto.Page[model.PlaylistItem], error)
	FetchChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error)
}

// ITwitch is the Twitch Helix surface the sync engine needs.
type ITwitch interface {
	// FetchMe returns the user the access token belongs to.
	FetchMe(ctx context.Context) (model.Updatable[model.Channel], error)
	FetchUsers(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error)
	FetchFollowings(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.Following], error)
	FetchFollowedStreams(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.TwitchStream], error)
	FetchSchedule(ctx context.Context, broadcasterID model.PlatformID) (model.Updatable[[]model.TwitchScheduleSegment], error)
}

// Batch size limits of the remote ID lookups.
const (
	YouTubeMaxIDsPerRequest = 50
	TwitchMaxIDsPerRequest  = 100
)
