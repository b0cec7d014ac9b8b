package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// ChannelPlaylists serves a channel's sections through the injected section store.
type ChannelPlaylists struct {
	remote repository.IYouTube
	store  repository.IChannelSectionStore
	ttl    time.Duration
}

func NewChannelPlaylists(remote repository.IYouTube, store repository.IChannelSectionStore, ttl time.Duration) *ChannelPlaylists {
	return &ChannelPlaylists{remote: remote, store: store, ttl: ttl}
}

// Sections returns the channel's sections. A channel unknown to the platform
// has none, and that answer is cached as well.
func (c *ChannelPlaylists) Sections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error) {
	sections, ok, err := c.store.Get(ctx, channelID)
	if err != nil {
		logger.GetLogger().WithField("channel", channelID.String()).WithField("error", err).Warn("section store read failed")
	} else if ok {
		return sections, nil
	}

	sections, err = c.remote.FetchChannelSections(ctx, channelID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch sections of %s: %w", channelID, err)
		}
		sections = []model.ChannelSection{}
	}
	if err := c.store.Set(ctx, channelID, sections, c.ttl); err != nil {
		logger.GetLogger().WithField("channel", channelID.String()).WithField("error", err).Warn("section store write failed")
	}
	return sections, nil
}

func (c *ChannelPlaylists) Invalidate(ctx context.Context, channelIDs ...model.PlatformID) error {
	return c.store.Invalidate(ctx, channelIDs...)
}
