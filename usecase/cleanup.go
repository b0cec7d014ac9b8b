package usecase

import (
	"context"
	"fmt"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/domain/repository"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// Cleanup prunes cached videos and channels no list refers to any more.
type Cleanup struct {
	store    repository.ICleanupStore
	sections repository.IChannelSectionStore
}

func NewCleanup(store repository.ICleanupStore, sections repository.IChannelSectionStore) *Cleanup {
	return &Cleanup{store: store, sections: sections}
}

func (c *Cleanup) Run(ctx context.Context) (*dto.CleanupResult, error) {
	videos, err := c.store.DeleteUnreferencedVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete unreferenced videos: %w", err)
	}
	channels, err := c.store.DeleteUnreferencedChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete unreferenced channels: %w", err)
	}
	if c.sections != nil && len(channels) > 0 {
		if err := c.sections.Invalidate(ctx, channels...); err != nil {
			return nil, fmt.Errorf("failed to invalidate channel sections: %w", err)
		}
	}
	logger.GetLogger().
		WithField("videos", videos).
		WithField("channels", len(channels)).
		Info("cleanup finished")
	return &dto.CleanupResult{Videos: videos, Channels: model.Keys(channels)}, nil
}
