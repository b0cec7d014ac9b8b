package model

import (
	"regexp"
	"time"
)

var freeChatTitle = regexp.MustCompile(`(?i)free\s*chat|フリー\s*チャット|フリチャ`)

// YouTubeVideo is an upload or a scheduled/live broadcast.
type YouTubeVideo struct {
	ID                   PlatformID `json:"id"`
	Title                string     `json:"title"`
	Channel              ChannelRef `json:"channel"`
	Description          string     `json:"description,omitempty"`
	ThumbnailURL         string     `json:"thumbnail_url,omitempty"`
	PublishedAt          time.Time  `json:"published_at"`
	LiveBroadcastContent string     `json:"live_broadcast_content,omitempty"`
	ScheduledStartAt     *time.Time `json:"scheduled_start_at,omitempty"`
	ActualStartAt        *time.Time `json:"actual_start_at,omitempty"`
	ActualEndAt          *time.Time `json:"actual_end_at,omitempty"`
}

func (v YouTubeVideo) EntityID() PlatformID       { return v.ID }
func (v YouTubeVideo) OwnerChannelID() PlatformID { return v.Channel.ID }

func (v YouTubeVideo) IsFreeChat() bool {
	return v.ActualStartAt == nil && freeChatTitle.MatchString(v.Title)
}

func (v YouTubeVideo) TimelineEntry() TimelineEntry {
	return TimelineEntry{
		ID:               v.ID,
		Title:            v.Title,
		Channel:          v.Channel,
		ThumbnailURL:     v.ThumbnailURL,
		ScheduledStartAt: v.ScheduledStartAt,
		ActualStartAt:    v.ActualStartAt,
		ActualEndAt:      v.ActualEndAt,
		FreeChat:         v.IsFreeChat(),
	}
}

// TwitchStream is a broadcast that is currently live.
type TwitchStream struct {
	ID           PlatformID `json:"id"`
	Title        string     `json:"title"`
	Channel      ChannelRef `json:"channel"`
	GameID       string     `json:"game_id,omitempty"`
	GameName     string     `json:"game_name,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	ViewerCount  int        `json:"viewer_count"`
	StartedAt    time.Time  `json:"started_at"`
	Order        int        `json:"order"`
}

func (s TwitchStream) EntityID() PlatformID       { return s.ID }
func (s TwitchStream) OwnerChannelID() PlatformID { return s.Channel.ID }

func (s TwitchStream) WithOrder(order int) TwitchStream {
	s.Order = order
	return s
}

func (s TwitchStream) TimelineEntry() TimelineEntry {
	startedAt := s.StartedAt
	return TimelineEntry{
		ID:            s.ID,
		Title:         s.Title,
		Channel:       s.Channel,
		ThumbnailURL:  s.ThumbnailURL,
		ActualStartAt: &startedAt,
	}
}

// TwitchScheduleSegment is one planned broadcast from a Twitch schedule.
type TwitchScheduleSegment struct {
	ID            PlatformID `json:"id"`
	Title         string     `json:"title"`
	Channel       ChannelRef `json:"channel"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	CategoryID    string     `json:"category_id,omitempty"`
	CategoryName  string     `json:"category_name,omitempty"`
	IsRecurring   bool       `json:"is_recurring"`
	CanceledUntil *time.Time `json:"canceled_until,omitempty"`
}

func (s TwitchScheduleSegment) EntityID() PlatformID       { return s.ID }
func (s TwitchScheduleSegment) OwnerChannelID() PlatformID { return s.Channel.ID }

// IsCanceled reports whether the broadcaster called this occurrence off.
func (s TwitchScheduleSegment) IsCanceled() bool { return s.CanceledUntil != nil }

func (s TwitchScheduleSegment) TimelineEntry() TimelineEntry {
	startTime := s.StartTime
	return TimelineEntry{
		ID:               s.ID,
		Title:            s.Title,
		Channel:          s.Channel,
		ScheduledStartAt: &startTime,
		ActualEndAt:      s.EndTime,
	}
}

// TimelineEntry is the platform neutral row the timeline feeds are built from.
type TimelineEntry struct {
	ID               PlatformID `json:"id"`
	Title            string     `json:"title"`
	Channel          ChannelRef `json:"channel"`
	ThumbnailURL     string     `json:"thumbnail_url,omitempty"`
	ScheduledStartAt *time.Time `json:"scheduled_start_at,omitempty"`
	ActualStartAt    *time.Time `json:"actual_start_at,omitempty"`
	ActualEndAt      *time.Time `json:"actual_end_at,omitempty"`
	FreeChat         bool       `json:"free_chat"`
}

func (e TimelineEntry) IsOnAir() bool {
	return e.ActualStartAt != nil && e.ActualEndAt == nil
}

func (e TimelineEntry) IsUpcoming() bool {
	return e.ActualStartAt == nil && e.ScheduledStartAt != nil && !e.FreeChat
}

func (e TimelineEntry) IsFreeChat() bool {
	return e.ActualStartAt == nil && e.FreeChat
}

// TimelineSource is implemented by every platform entity that can show up on
// the timeline.
type TimelineSource interface {
	TimelineEntry() TimelineEntry
}

// LiveVideo holds a timeline source together with the channel detail fetched
// for it. The detail, when present, replaces the channel title and icon carried
// by the source.
type LiveVideo struct {
	Source        TimelineSource
	ChannelDetail *Channel
}

func (v LiveVideo) Channel() ChannelRef {
	ref := v.Source.TimelineEntry().Channel
	if v.ChannelDetail == nil {
		return ref
	}
	if v.ChannelDetail.Title != "" {
		ref.Title = v.ChannelDetail.Title
	}
	if v.ChannelDetail.IconURL != "" {
		ref.IconURL = v.ChannelDetail.IconURL
	}
	return ref
}

func (v LiveVideo) IsCanceled() bool {
	c, ok := v.Source.(interface{ IsCanceled() bool })
	return ok && c.IsCanceled()
}

func (v LiveVideo) TimelineEntry() TimelineEntry {
	entry := v.Source.TimelineEntry()
	entry.Channel = v.Channel()
	return entry
}
