package model

import "time"

// Subscription is a YouTube channel the signed-in account subscribes to.
// Order is the relevance rank reported by the API.
type Subscription struct {
	ID             PlatformID `json:"id"`
	Channel        ChannelRef `json:"channel"`
	SubscribeSince time.Time  `json:"subscribe_since"`
	Order          int        `json:"order"`
}

func (s Subscription) EntityID() PlatformID       { return s.ID }
func (s Subscription) OwnerChannelID() PlatformID { return s.Channel.ID }

func (s Subscription) WithOrder(order int) Subscription {
	s.Order = order
	return s
}
