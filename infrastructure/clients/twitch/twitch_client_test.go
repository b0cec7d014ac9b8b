package twitch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/akihito104/yttt-sub001/domain/model"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/helix/", "client-id", srv.Client(), nil)
	require.NoError(t, err)
	c.now = func() time.Time { return now }
	return c
}

func TestClient_FetchMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/helix/users", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		w.Header().Set("Cache-Control", "max-age=30")
		_, _ = w.Write([]byte(`{"data": [{"id": "1000", "login": "viewer", "display_name": "Viewer", "profile_image_url": "https://example.com/p.png", "created_at": "2016-12-14T20:32:28Z"}]}`))
	})

	me, err := c.FetchMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NewTwitchID("1000"), me.Item.ID)
	assert.Equal(t, "viewer", me.Item.LoginName)
	assert.Equal(t, "Viewer", me.Item.Title)
	assert.Equal(t, 30*time.Second, *me.CacheControl.MaxAge)
	assert.Equal(t, now, *me.CacheControl.FetchedAt)
}

func TestClient_FetchUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"1", "2"}, r.URL.Query()["id"])
		_, _ = w.Write([]byte(`{"data": [{"id": "1", "login": "a", "display_name": "A"}, {"id": "2", "login": "b", "display_name": "B"}]}`))
	})

	res, err := c.FetchUsers(context.Background(), []model.PlatformID{model.NewTwitchID("1"), model.NewTwitchID("2")})
	require.NoError(t, err)
	assert.Equal(t, []model.PlatformID{model.NewTwitchID("1"), model.NewTwitchID("2")}, model.IDsOf(res.Item))
}

func TestClient_FetchFollowings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/helix/channels/followed", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("user_id"))
		assert.Equal(t, "100", r.URL.Query().Get("first"))
		assert.Equal(t, "cursor-1", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{
			"data": [{"broadcaster_id": "42", "broadcaster_login": "b", "broadcaster_name": "B", "followed_at": "2022-05-24T22:22:08Z"}],
			"pagination": {"cursor": "cursor-2"}
		}`))
	})

	page, err := c.FetchFollowings(context.Background(), model.NewTwitchID("1000"), "cursor-1")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.NewTwitchID("42"), page.Items[0].Broadcaster.ID)
	assert.Equal(t, "B", page.Items[0].Broadcaster.Title)
	assert.Equal(t, "cursor-2", page.NextPageToken)
}

func TestClient_FetchFollowedStreams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/helix/streams/followed", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{"data": [{
			"id": "s1", "user_id": "42", "user_name": "B", "game_id": "9", "game_name": "Chess",
			"title": "live now", "viewer_count": 12, "started_at": "2024-05-01T11:00:00Z",
			"thumbnail_url": "https://example.com/live_{width}x{height}.jpg"
		}], "pagination": {}}`))
	})

	page, err := c.FetchFollowedStreams(context.Background(), model.NewTwitchID("1000"), "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	s := page.Items[0]
	assert.Equal(t, model.NewTwitchID("42"), s.Channel.ID)
	assert.Equal(t, "https://example.com/live_640x360.jpg", s.ThumbnailURL)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), s.StartedAt)
	assert.Empty(t, page.NextPageToken)
}

func TestClient_FetchSchedule(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/helix/schedule", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("broadcaster_id"))
		_, _ = w.Write([]byte(`{"data": {
			"broadcaster_id": "42", "broadcaster_name": "B",
			"segments": [{"id": "seg-1", "start_time": "2024-05-02T18:00:00Z", "end_time": "2024-05-02T20:00:00Z",
				"title": "weekly", "is_recurring": true, "category": {"id": "9", "name": "Chess"}}]
		}}`))
	})

	res, err := c.FetchSchedule(context.Background(), model.NewTwitchID("42"))
	require.NoError(t, err)
	require.Len(t, res.Item, 1)
	seg := res.Item[0]
	assert.Equal(t, "weekly", seg.Title)
	assert.Equal(t, "B", seg.Channel.Title)
	assert.Equal(t, "Chess", seg.CategoryName)
	assert.True(t, seg.IsRecurring)
	require.NotNil(t, seg.EndTime)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"no schedule", http.StatusNotFound, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, model.ErrNotFound))
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, model.ErrQuotaExceeded))
		}},
		{"server", http.StatusBadGateway, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, model.ErrServer))
			assert.Contains(t, err.Error(), "upstream failed")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": "x", "status": 0, "message": "upstream failed"}`))
			})
			_, err := c.FetchSchedule(context.Background(), model.NewTwitchID("42"))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_LimiterHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.FetchMe(ctx)
	require.Error(t, err)
}
