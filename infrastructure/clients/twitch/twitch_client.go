package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	twitchoauth "golang.org/x/oauth2/twitch"
	"golang.org/x/time/rate"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/clients/httpcache"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

const pageSize = 100

// Config represents Twitch Helix configuration
type Config struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	AccessToken       string
	RefreshToken      string
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the Helix API. Every request waits on the limiter first.
type Client struct {
	baseURL  *url.URL
	clientID string
	http     *http.Client
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewTwitchClient builds a client authenticated with the user token when one is
// configured, else with an app token from the client credentials flow. An app
// token cannot read followings.
func NewTwitchClient(ctx context.Context, config *Config) (*Client, error) {
	var ts oauth2.TokenSource
	if config.AccessToken != "" {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     twitchoauth.Endpoint,
		}
		ts = oauthConfig.TokenSource(ctx, &oauth2.Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	} else {
		cc := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     twitchoauth.Endpoint.TokenURL,
		}
		ts = cc.TokenSource(ctx)
	}
	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	return NewClient(config.BaseURL, config.ClientID, oauth2.NewClient(ctx, ts), limiter)
}

// NewClient wraps an http client that already sets the Authorization header.
func NewClient(baseURL, clientID string, httpClient *http.Client, limiter *rate.Limiter) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse twitch base url %q: %w", baseURL, err)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{baseURL: u, clientID: clientID, http: httpClient, limiter: limiter, now: time.Now}, nil
}

type pagination struct {
	Cursor string `json:"cursor"`
}

type envelope[T any] struct {
	Data       T          `json:"data"`
	Pagination pagination `json:"pagination"`
}

type user struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	ViewCount       int64     `json:"view_count"`
	CreatedAt       time.Time `json:"created_at"`
}

func (u user) channel() model.Channel {
	return model.Channel{
		ID:          model.NewTwitchID(u.ID),
		Title:       u.DisplayName,
		LoginName:   u.Login,
		Description: u.Description,
		IconURL:     u.ProfileImageURL,
		BannerURL:   u.OfflineImageURL,
		PublishedAt: u.CreatedAt,
		ViewCount:   u.ViewCount,
	}
}

type usersQuery struct {
	ID []string `url:"id,omitempty"`
}

type followedQuery struct {
	UserID string `url:"user_id"`
	First  int    `url:"first,omitempty"`
	After  string `url:"after,omitempty"`
}

type scheduleQuery struct {
	BroadcasterID string `url:"broadcaster_id"`
	First         int    `url:"first,omitempty"`
}

// FetchMe returns the user the token belongs to.
func (c *Client) FetchMe(ctx context.Context) (model.Updatable[model.Channel], error) {
	var res envelope[[]user]
	cc, err := c.get(ctx, "/users", usersQuery{}, &res)
	if err != nil {
		return model.Updatable[model.Channel]{}, err
	}
	if len(res.Data) == 0 {
		return model.Updatable[model.Channel]{}, &model.NetworkError{StatusCode: http.StatusNotFound, Err: fmt.Errorf("twitch /users: token has no user")}
	}
	return model.NewUpdatable(res.Data[0].channel(), cc), nil
}

// FetchUsers looks up to 100 users by ID.
func (c *Client) FetchUsers(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
	if len(ids) == 0 {
		return model.NewUpdatable([]model.Channel{}, model.CacheControl{}), nil
	}
	var res envelope[[]user]
	cc, err := c.get(ctx, "/users", usersQuery{ID: model.Values(ids)}, &res)
	if err != nil {
		return model.Updatable[[]model.Channel]{}, err
	}
	channels := make([]model.Channel, len(res.Data))
	for i, u := range res.Data {
		channels[i] = u.channel()
	}
	return model.NewUpdatable(channels, cc), nil
}

type followedChannel struct {
	BroadcasterID    string    `json:"broadcaster_id"`
	BroadcasterLogin string    `json:"broadcaster_login"`
	BroadcasterName  string    `json:"broadcaster_name"`
	FollowedAt       time.Time `json:"followed_at"`
}

// FetchFollowings returns one page of the broadcasters userID follows.
func (c *Client) FetchFollowings(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.Following], error) {
	var res envelope[[]followedChannel]
	cc, err := c.get(ctx, "/channels/followed", followedQuery{UserID: userID.Value, First: pageSize, After: cursor}, &res)
	if err != nil {
		return nil, err
	}
	items := make([]model.Following, len(res.Data))
	for i, f := range res.Data {
		items[i] = model.Following{
			ID: model.NewTwitchID(userID.Value + ":" + f.BroadcasterID),
			Broadcaster: model.ChannelRef{
				ID:    model.NewTwitchID(f.BroadcasterID),
				Title: f.BroadcasterName,
			},
			FollowedAt: f.FollowedAt,
		}
	}
	return &dto.Page[model.Following]{Items: items, NextPageToken: res.Pagination.Cursor, CacheControl: cc}, nil
}

type stream struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	GameID       string    `json:"game_id"`
	GameName     string    `json:"game_name"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	StartedAt    time.Time `json:"started_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// FetchFollowedStreams returns one page of live streams of the broadcasters
// userID follows.
func (c *Client) FetchFollowedStreams(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.TwitchStream], error) {
	var res envelope[[]stream]
	cc, err := c.get(ctx, "/streams/followed", followedQuery{UserID: userID.Value, First: pageSize, After: cursor}, &res)
	if err != nil {
		return nil, err
	}
	items := make([]model.TwitchStream, len(res.Data))
	for i, s := range res.Data {
		items[i] = model.TwitchStream{
			ID:           model.NewTwitchID(s.ID),
			Title:        s.Title,
			Channel:      model.ChannelRef{ID: model.NewTwitchID(s.UserID), Title: s.UserName},
			GameID:       s.GameID,
			GameName:     s.GameName,
			ThumbnailURL: thumbnail(s.ThumbnailURL),
			ViewerCount:  s.ViewerCount,
			StartedAt:    s.StartedAt,
		}
	}
	return &dto.Page[model.TwitchStream]{Items: items, NextPageToken: res.Pagination.Cursor, CacheControl: cc}, nil
}

// thumbnail fills the size placeholders Helix returns in stream thumbnails.
func thumbnail(u string) string {
	return strings.NewReplacer("{width}", "640", "{height}", "360").Replace(u)
}

type schedule struct {
	Segments []struct {
		ID            string     `json:"id"`
		StartTime     time.Time  `json:"start_time"`
		EndTime       *time.Time `json:"end_time"`
		Title         string     `json:"title"`
		CanceledUntil *time.Time `json:"canceled_until"`
		IsRecurring   bool       `json:"is_recurring"`
		Category      *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
	} `json:"segments"`
	BroadcasterID   string `json:"broadcaster_id"`
	BroadcasterName string `json:"broadcaster_name"`
}

// FetchSchedule returns the upcoming segments of a broadcaster. Helix answers
// 404 for a broadcaster without a schedule.
func (c *Client) FetchSchedule(ctx context.Context, broadcasterID model.PlatformID) (model.Updatable[[]model.TwitchScheduleSegment], error) {
	var res envelope[schedule]
	cc, err := c.get(ctx, "/schedule", scheduleQuery{BroadcasterID: broadcasterID.Value, First: 25}, &res)
	if err != nil {
		return model.Updatable[[]model.TwitchScheduleSegment]{}, err
	}
	owner := model.ChannelRef{ID: broadcasterID, Title: res.Data.BroadcasterName}
	segments := make([]model.TwitchScheduleSegment, 0, len(res.Data.Segments))
	for _, s := range res.Data.Segments {
		seg := model.TwitchScheduleSegment{
			ID:            model.NewTwitchID(s.ID),
			Title:         s.Title,
			Channel:       owner,
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			IsRecurring:   s.IsRecurring,
			CanceledUntil: s.CanceledUntil,
		}
		if s.Category != nil {
			seg.CategoryID = s.Category.ID
			seg.CategoryName = s.Category.Name
		}
		segments = append(segments, seg)
	}
	return model.NewUpdatable(segments, cc), nil
}

type apiError struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, params any, dest any) (model.CacheControl, error) {
	values, err := query.Values(params)
	if err != nil {
		return model.CacheControl{}, fmt.Errorf("encode twitch %s query: %w", path, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return model.CacheControl{}, fmt.Errorf("twitch %s: %w", path, err)
	}

	reqURL := *c.baseURL
	reqURL.Path += path
	reqURL.RawQuery = values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), http.NoBody)
	if err != nil {
		return model.CacheControl{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.CacheControl{}, fmt.Errorf("twitch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	cc := httpcache.FromHeader(resp.Header, c.now().UTC())
	if resp.StatusCode >= http.StatusBadRequest {
		return model.CacheControl{}, c.networkError(path, resp, cc)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return model.CacheControl{}, fmt.Errorf("decode twitch %s: %w", path, err)
	}
	return cc, nil
}

func (c *Client) networkError(path string, resp *http.Response, cc model.CacheControl) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	ne := &model.NetworkError{
		StatusCode:    resp.StatusCode,
		CacheControl:  cc,
		QuotaExceeded: resp.StatusCode == http.StatusTooManyRequests,
		Err:           fmt.Errorf("twitch %s: %s", path, msg),
	}
	if ne.QuotaExceeded {
		logger.GetLogger().
			WithField("path", path).
			WithField("reset", resp.Header.Get("Ratelimit-Reset")).
			Warn("Twitch rate limit exhausted")
	}
	return ne
}
