package dto

import (
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
)

// TimelineItem is the wire form of one timeline row.
type TimelineItem struct {
	ID               string     `json:"id"`
	Platform         string     `json:"platform"`
	Title            string     `json:"title"`
	ChannelID        string     `json:"channel_id"`
	ChannelTitle     string     `json:"channel_title"`
	ChannelIconURL   string     `json:"channel_icon_url,omitempty"`
	ThumbnailURL     string     `json:"thumbnail_url,omitempty"`
	ScheduledStartAt *time.Time `json:"scheduled_start_at,omitempty"`
	ActualStartAt    *time.Time `json:"actual_start_at,omitempty"`
}

// TimelineResponse holds the three display feeds.
type TimelineResponse struct {
	OnAir    []TimelineItem `json:"on_air"`
	Upcoming []TimelineItem `json:"upcoming"`
	FreeChat []TimelineItem `json:"free_chat"`
}

func NewTimelineItem(e model.TimelineEntry) TimelineItem {
	return TimelineItem{
		ID:               e.ID.Value,
		Platform:         string(e.ID.Platform),
		Title:            e.Title,
		ChannelID:        e.Channel.ID.Value,
		ChannelTitle:     e.Channel.Title,
		ChannelIconURL:   e.Channel.IconURL,
		ThumbnailURL:     e.ThumbnailURL,
		ScheduledStartAt: e.ScheduledStartAt,
		ActualStartAt:    e.ActualStartAt,
	}
}

func NewTimelineItems(entries []model.TimelineEntry) []TimelineItem {
	out := make([]TimelineItem, len(entries))
	for i, e := range entries {
		out[i] = NewTimelineItem(e)
	}
	return out
}
