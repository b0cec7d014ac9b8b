package model_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowingsSnapshot_Update(t *testing.T) {
	follower := model.NewTwitchID("1001")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := model.FollowingsSnapshot{FollowerID: follower, UpdatableAt: at}

	t.Run("newer snapshot replaces", func(t *testing.T) {
		next := model.FollowingsSnapshot{
			FollowerID:  follower,
			UpdatableAt: at.Add(time.Minute),
			Items:       []model.Following{{ID: model.NewTwitchID("f1")}},
		}
		got := old.Update(next)
		assert.Equal(t, next, got)
	})
	t.Run("same instant panics", func(t *testing.T) {
		assert.Panics(t, func() {
			old.Update(model.FollowingsSnapshot{FollowerID: follower, UpdatableAt: at})
		})
	})
	t.Run("older snapshot panics", func(t *testing.T) {
		assert.Panics(t, func() {
			old.Update(model.FollowingsSnapshot{FollowerID: follower, UpdatableAt: at.Add(-time.Second)})
		})
	})
	t.Run("other follower panics", func(t *testing.T) {
		assert.Panics(t, func() {
			old.Update(model.FollowingsSnapshot{FollowerID: model.NewTwitchID("2002"), UpdatableAt: at.Add(time.Hour)})
		})
	})
}

func TestPlatformID(t *testing.T) {
	yt := model.NewYouTubeID("abc")
	tw := model.NewTwitchID("abc")

	assert.NotEqual(t, yt, tw)
	set := map[model.PlatformID]bool{yt: true}
	assert.False(t, set[tw])

	parsed, err := model.ParsePlatformID(yt.String())
	require.NoError(t, err)
	assert.Equal(t, yt, parsed)

	_, err = model.ParsePlatformID("nope")
	assert.Error(t, err)
	_, err = model.ParsePlatformID("vimeo:1")
	assert.Error(t, err)
}

func TestNetworkError_Is(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("fetch videos: %w", err) }

	assert.True(t, errors.Is(wrap(&model.NetworkError{StatusCode: http.StatusNotFound}), model.ErrNotFound))
	assert.True(t, errors.Is(wrap(&model.NetworkError{StatusCode: http.StatusNotModified}), model.ErrNotModified))
	assert.True(t, errors.Is(wrap(&model.NetworkError{StatusCode: http.StatusBadGateway}), model.ErrServer))
	assert.True(t, errors.Is(wrap(&model.NetworkError{StatusCode: http.StatusTooManyRequests, QuotaExceeded: true}), model.ErrQuotaExceeded))
	assert.False(t, errors.Is(wrap(&model.NetworkError{StatusCode: http.StatusBadRequest}), model.ErrServer))

	ne, ok := model.AsNetworkError(wrap(&model.NetworkError{StatusCode: http.StatusForbidden}))
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, ne.StatusCode)
}

func TestLiveVideo_ChannelOverride(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	video := model.YouTubeVideo{
		ID:            model.NewYouTubeID("v1"),
		Title:         "morning stream",
		Channel:       model.ChannelRef{ID: model.NewYouTubeID("c1"), Title: "old title"},
		ActualStartAt: &start,
	}

	plain := model.LiveVideo{Source: video}
	assert.Equal(t, "old title", plain.TimelineEntry().Channel.Title)

	detailed := model.LiveVideo{Source: video, ChannelDetail: &model.Channel{ID: video.Channel.ID, Title: "new title", IconURL: "https://example.com/icon.png"}}
	entry := detailed.TimelineEntry()
	assert.Equal(t, "new title", entry.Channel.Title)
	assert.Equal(t, "https://example.com/icon.png", entry.Channel.IconURL)
	assert.True(t, entry.IsOnAir())
}

func TestYouTubeVideo_IsFreeChat(t *testing.T) {
	assert.True(t, model.YouTubeVideo{Title: "Free Chat room"}.IsFreeChat())
	assert.True(t, model.YouTubeVideo{Title: "【フリーチャット】"}.IsFreeChat())
	assert.False(t, model.YouTubeVideo{Title: "Minecraft"}.IsFreeChat())
}
