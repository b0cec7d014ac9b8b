package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/clients/httpcache"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const maxResults = 50

// Client represents YouTube API client
type Client struct {
	service *youtube.Service
	now     func() time.Time
}

// Config represents YouTube API configuration
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	APIKey       string `json:"api_key"`
}

// NewYouTubeClient creates a new YouTube API client. Without a refresh token the
// client runs in API key mode, which cannot list subscriptions.
func NewYouTubeClient(ctx context.Context, config *Config, opts ...option.ClientOption) (*Client, error) {
	if config.RefreshToken == "" && config.APIKey != "" {
		service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(config.APIKey)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
		}
		return NewClient(service), nil
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       []string{youtube.YoutubeReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-1 * time.Minute), // Force refresh on first use
	}

	// The oauth2 transport refreshes the token whenever it expires.
	httpClient := oauth2Config.Client(ctx, token)
	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return NewClient(service), nil
}

// NewClient wraps an already configured service.
func NewClient(service *youtube.Service) *Client {
	return &Client{service: service, now: time.Now}
}

// FetchSubscriptions lists the signed-in account's subscriptions in relevance order.
func (c *Client) FetchSubscriptions(ctx context.Context, pageToken string) (*dto.Page[model.Subscription], error) {
	call := c.service.Subscriptions.List([]string{"snippet"}).
		Mine(true).
		Order("relevance").
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return nil, toNetworkError("subscriptions.list", err)
	}

	items := make([]model.Subscription, 0, len(res.Items))
	for _, s := range res.Items {
		if s.Snippet == nil || s.Snippet.ResourceId == nil {
			continue
		}
		items = append(items, model.Subscription{
			ID: model.NewYouTubeID(s.Id),
			Channel: model.ChannelRef{
				ID:      model.NewYouTubeID(s.Snippet.ResourceId.ChannelId),
				Title:   s.Snippet.Title,
				IconURL: thumbnailURL(s.Snippet.Thumbnails),
			},
			SubscribeSince: parseTime(s.Snippet.PublishedAt),
		})
	}
	return &dto.Page[model.Subscription]{
		Items:         items,
		NextPageToken: res.NextPageToken,
		ETag:          res.Etag,
		CacheControl:  c.cacheControl(res.ServerResponse),
	}, nil
}

// FetchChannels looks up to 50 channels by ID. Unknown IDs are absent from the result.
func (c *Client) FetchChannels(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
	res, err := c.service.Channels.List([]string{"snippet", "statistics", "contentDetails", "brandingSettings"}).
		Id(model.Values(ids)...).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return model.Updatable[[]model.Channel]{}, toNetworkError("channels.list", err)
	}

	channels := make([]model.Channel, 0, len(res.Items))
	for _, ch := range res.Items {
		channels = append(channels, convertChannel(ch))
	}
	return model.NewUpdatable(channels, c.cacheControl(res.ServerResponse)), nil
}

func convertChannel(ch *youtube.Channel) model.Channel {
	out := model.Channel{ID: model.NewYouTubeID(ch.Id)}
	if ch.Snippet != nil {
		out.Title = ch.Snippet.Title
		out.Description = ch.Snippet.Description
		out.CustomURL = ch.Snippet.CustomUrl
		out.IconURL = thumbnailURL(ch.Snippet.Thumbnails)
		out.PublishedAt = parseTime(ch.Snippet.PublishedAt)
	}
	if ch.Statistics != nil {
		out.ViewCount = int64(ch.Statistics.ViewCount)
		out.SubscriberCount = int64(ch.Statistics.SubscriberCount)
		out.VideoCount = int64(ch.Statistics.VideoCount)
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		out.UploadsPlaylist = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	if ch.BrandingSettings != nil && ch.BrandingSettings.Image != nil {
		out.BannerURL = ch.BrandingSettings.Image.BannerExternalUrl
	}
	return out
}

// FetchVideos looks up to 50 videos by ID, live streaming details included.
func (c *Client) FetchVideos(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.YouTubeVideo], error) {
	res, err := c.service.Videos.List([]string{"snippet", "liveStreamingDetails"}).
		Id(model.Values(ids)...).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return model.Updatable[[]model.YouTubeVideo]{}, toNetworkError("videos.list", err)
	}

	videos := make([]model.YouTubeVideo, 0, len(res.Items))
	for _, v := range res.Items {
		videos = append(videos, convertVideo(v))
	}
	return model.NewUpdatable(videos, c.cacheControl(res.ServerResponse)), nil
}

func convertVideo(v *youtube.Video) model.YouTubeVideo {
	out := model.YouTubeVideo{ID: model.NewYouTubeID(v.Id)}
	if v.Snippet != nil {
		out.Title = v.Snippet.Title
		out.Description = v.Snippet.Description
		out.Channel = model.ChannelRef{
			ID:    model.NewYouTubeID(v.Snippet.ChannelId),
			Title: v.Snippet.ChannelTitle,
		}
		out.ThumbnailURL = thumbnailURL(v.Snippet.Thumbnails)
		out.PublishedAt = parseTime(v.Snippet.PublishedAt)
		out.LiveBroadcastContent = v.Snippet.LiveBroadcastContent
	}
	if d := v.LiveStreamingDetails; d != nil {
		out.ScheduledStartAt = parseTimePtr(d.ScheduledStartTime)
		out.ActualStartAt = parseTimePtr(d.ActualStartTime)
		out.ActualEndAt = parseTimePtr(d.ActualEndTime)
	}
	return out
}

// FetchPlaylistItems returns the first page of a playlist, newest first. With a
// non-empty etag the request is conditional.
func (c *Client) FetchPlaylistItems(ctx context.Context, playlistID model.PlatformID, etag string) (*dto.Page[model.PlaylistItem], error) {
	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID.Value).
		MaxResults(maxResults).
		Context(ctx)
	if etag != "" {
		call.IfNoneMatch(etag)
	}
	res, err := call.Do()
	if err != nil {
		return nil, toNetworkError("playlistItems.list", err)
	}

	items := make([]model.PlaylistItem, 0, len(res.Items))
	for _, it := range res.Items {
		if it.Snippet == nil {
			continue
		}
		item := model.PlaylistItem{
			ID:          model.NewYouTubeID(it.Id),
			PlaylistID:  playlistID,
			Title:       it.Snippet.Title,
			PublishedAt: parseTime(it.Snippet.PublishedAt),
		}
		owner := it.Snippet.VideoOwnerChannelId
		if owner == "" {
			owner = it.Snippet.ChannelId
		}
		item.ChannelID = model.NewYouTubeID(owner)
		if it.Snippet.ResourceId != nil {
			item.VideoID = model.NewYouTubeID(it.Snippet.ResourceId.VideoId)
		}
		if cd := it.ContentDetails; cd != nil {
			if cd.VideoId != "" {
				item.VideoID = model.NewYouTubeID(cd.VideoId)
			}
			if t := parseTime(cd.VideoPublishedAt); !t.IsZero() {
				item.PublishedAt = t
			}
		}
		items = append(items, item)
	}
	return &dto.Page[model.PlaylistItem]{
		Items:         items,
		NextPageToken: res.NextPageToken,
		ETag:          res.Etag,
		CacheControl:  c.cacheControl(res.ServerResponse),
	}, nil
}

// FetchChannelSections lists the shelves of a channel.
func (c *Client) FetchChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error) {
	res, err := c.service.ChannelSections.List([]string{"snippet", "contentDetails"}).
		ChannelId(channelID.Value).
		Context(ctx).
		Do()
	if err != nil {
		return nil, toNetworkError("channelSections.list", err)
	}

	sections := make([]model.ChannelSection, 0, len(res.Items))
	for _, s := range res.Items {
		section := model.ChannelSection{ID: s.Id, ChannelID: channelID.Value}
		if s.Snippet != nil {
			section.Type = s.Snippet.Type
			section.Title = s.Snippet.Title
			section.Position = s.Snippet.Position
			if s.Snippet.ChannelId != "" {
				section.ChannelID = s.Snippet.ChannelId
			}
		}
		if s.ContentDetails != nil {
			section.PlaylistIDs = s.ContentDetails.Playlists
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (c *Client) cacheControl(res googleapi.ServerResponse) model.CacheControl {
	return httpcache.FromHeader(res.Header, c.now().UTC())
}

// quotaReasons are the googleapi error reasons that mean the daily or per-user
// quota ran out.
var quotaReasons = map[string]bool{
	"quotaExceeded":          true,
	"dailyLimitExceeded":     true,
	"rateLimitExceeded":      true,
	"userRateLimitExceeded":  true,
	"rateLimitExceededUnreg": true,
}

func toNetworkError(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("youtube %s: %w", op, err)
	}
	ne := &model.NetworkError{StatusCode: gerr.Code, Err: fmt.Errorf("youtube %s: %s", op, gerr.Message)}
	if gerr.Code == http.StatusTooManyRequests {
		ne.QuotaExceeded = true
	}
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			ne.QuotaExceeded = true
		}
	}
	if gerr.Header != nil {
		ne.CacheControl = httpcache.FromHeader(gerr.Header, time.Now().UTC())
	}
	if ne.QuotaExceeded {
		logger.GetLogger().WithField("op", op).Warn("YouTube quota exhausted")
	}
	return ne
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
