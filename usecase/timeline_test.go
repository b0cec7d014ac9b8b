package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/usecase"
)

func entryIDs(entries []model.TimelineEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID.String()
	}
	return out
}

func TestMergeTimeline_Buckets(t *testing.T) {
	start := baseTime.Add(-time.Hour)
	end := baseTime.Add(-time.Minute)
	sources := []model.TimelineSource{
		model.YouTubeVideo{ID: model.NewYouTubeID("live"), Title: "live", ActualStartAt: &start},
		model.YouTubeVideo{ID: model.NewYouTubeID("ended"), Title: "ended", ActualStartAt: &start, ActualEndAt: &end},
		model.YouTubeVideo{ID: model.NewYouTubeID("soon"), Title: "soon", ScheduledStartAt: ptrTime(baseTime.Add(time.Hour))},
		model.YouTubeVideo{ID: model.NewYouTubeID("chat"), Title: "Free Chat", ScheduledStartAt: ptrTime(baseTime.Add(24 * time.Hour))},
		model.YouTubeVideo{ID: model.NewYouTubeID("upload"), Title: "plain upload"},
		model.TwitchStream{ID: model.NewTwitchID("s1"), Title: "stream", StartedAt: baseTime},
		model.TwitchScheduleSegment{ID: model.NewTwitchID("seg"), Title: "segment", StartTime: baseTime.Add(2 * time.Hour)},
		model.YouTubeVideo{ID: model.NewYouTubeID("live"), Title: "live duplicate", ActualStartAt: &start},
	}

	got := usecase.MergeTimeline(sources...)
	assert.Equal(t, []string{"twitch:s1", "youtube:live"}, entryIDs(got.OnAir))
	assert.Equal(t, []string{"youtube:soon", "twitch:seg"}, entryIDs(got.Upcoming))
	assert.Equal(t, []string{"youtube:chat"}, entryIDs(got.FreeChat))
	assert.Equal(t, "live", got.OnAir[1].Title)
}

func TestSortOnAir(t *testing.T) {
	early := baseTime.Add(-2 * time.Hour)
	late := baseTime.Add(-time.Hour)
	entries := []model.TimelineEntry{
		{ID: model.NewYouTubeID("b"), Title: "same", ActualStartAt: &early},
		{ID: model.NewTwitchID("a"), Title: "same", ActualStartAt: &early},
		{ID: model.NewYouTubeID("z"), Title: "alpha", ActualStartAt: &early},
		{ID: model.NewYouTubeID("new"), Title: "zulu", ActualStartAt: &late},
	}
	usecase.SortOnAir(entries)
	assert.Equal(t, []string{"youtube:new", "youtube:z", "twitch:a", "youtube:b"}, entryIDs(entries))
}

func TestSortUpcoming(t *testing.T) {
	entries := []model.TimelineEntry{
		{ID: model.NewYouTubeID("nil"), Title: "a"},
		{ID: model.NewYouTubeID("late"), Title: "a", ScheduledStartAt: ptrTime(baseTime.Add(2 * time.Hour))},
		{ID: model.NewYouTubeID("early-b"), Title: "b", ScheduledStartAt: ptrTime(baseTime.Add(time.Hour))},
		{ID: model.NewYouTubeID("early-a"), Title: "a", ScheduledStartAt: ptrTime(baseTime.Add(time.Hour))},
	}
	usecase.SortUpcoming(entries)
	assert.Equal(t, []string{"youtube:early-a", "youtube:early-b", "youtube:late", "youtube:nil"}, entryIDs(entries))
}

func TestSortFreeChat(t *testing.T) {
	chA := model.ChannelRef{ID: model.NewYouTubeID("UCa")}
	chB := model.ChannelRef{ID: model.NewYouTubeID("UCb")}
	entries := []model.TimelineEntry{
		{ID: model.NewYouTubeID("b1"), Title: "x", Channel: chB, ScheduledStartAt: ptrTime(baseTime)},
		{ID: model.NewYouTubeID("a2"), Title: "x", Channel: chA, ScheduledStartAt: ptrTime(baseTime.Add(time.Hour))},
		{ID: model.NewYouTubeID("a1"), Title: "y", Channel: chA, ScheduledStartAt: ptrTime(baseTime)},
	}
	usecase.SortFreeChat(entries)
	assert.Equal(t, []string{"youtube:a1", "youtube:a2", "youtube:b1"}, entryIDs(entries))
}

func TestSortOnAir_IsTotalOrderRegardlessOfInput(t *testing.T) {
	at := baseTime
	forward := []model.TimelineEntry{
		{ID: model.NewYouTubeID("1"), Title: "t", ActualStartAt: &at},
		{ID: model.NewTwitchID("2"), Title: "t", ActualStartAt: &at},
		{ID: model.NewYouTubeID("3"), Title: "t", ActualStartAt: &at},
	}
	backward := []model.TimelineEntry{forward[2], forward[1], forward[0]}
	usecase.SortOnAir(forward)
	usecase.SortOnAir(backward)
	require.Equal(t, entryIDs(forward), entryIDs(backward))
	assert.Equal(t, []string{"youtube:1", "twitch:2", "youtube:3"}, entryIDs(forward))
}

func TestMergeTimeline_DropsCanceledSegments(t *testing.T) {
	until := baseTime.Add(48 * time.Hour)
	got := usecase.MergeTimeline(
		model.TwitchScheduleSegment{ID: model.NewTwitchID("off"), Title: "vacation", StartTime: baseTime.Add(time.Hour), CanceledUntil: &until},
		model.TwitchScheduleSegment{ID: model.NewTwitchID("on"), Title: "regular", StartTime: baseTime.Add(2 * time.Hour)},
	)
	assert.Equal(t, []string{"twitch:on"}, entryIDs(got.Upcoming))
	assert.Empty(t, got.OnAir)
	assert.Empty(t, got.FreeChat)
}

func TestSort_TieBreaksOnChannelBeforeRawID(t *testing.T) {
	at := baseTime.Add(time.Hour)
	yt := model.TimelineEntry{ID: model.NewYouTubeID("42"), Title: "same", Channel: model.ChannelRef{ID: model.NewYouTubeID("UCz")}, ScheduledStartAt: &at}
	tw := model.TimelineEntry{ID: model.NewTwitchID("42"), Title: "same", Channel: model.ChannelRef{ID: model.NewTwitchID("100")}, ScheduledStartAt: &at}

	forward := []model.TimelineEntry{yt, tw}
	backward := []model.TimelineEntry{tw, yt}
	usecase.SortUpcoming(forward)
	usecase.SortUpcoming(backward)
	assert.Equal(t, []string{"twitch:42", "youtube:42"}, entryIDs(forward))
	assert.Equal(t, entryIDs(forward), entryIDs(backward))

	onAirForward := []model.TimelineEntry{{ID: yt.ID, Title: yt.Title, Channel: yt.Channel, ActualStartAt: &at}, {ID: tw.ID, Title: tw.Title, Channel: tw.Channel, ActualStartAt: &at}}
	onAirBackward := []model.TimelineEntry{onAirForward[1], onAirForward[0]}
	usecase.SortOnAir(onAirForward)
	usecase.SortOnAir(onAirBackward)
	assert.Equal(t, entryIDs(onAirForward), entryIDs(onAirBackward))
}
