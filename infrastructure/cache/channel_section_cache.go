package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/akihito104/yttt-sub001/domain/model"

	"github.com/redis/go-redis/v9"
)

const channelSectionPrefix = "channel_sections:"

// ChannelSectionCache stores channel sections as JSON strings with a TTL.
type ChannelSectionCache struct {
	redisClient *redis.Client
}

func NewChannelSectionCache(redisClient *redis.Client) *ChannelSectionCache {
	return &ChannelSectionCache{redisClient: redisClient}
}

func ChannelSectionKey(channelID model.PlatformID) string {
	return channelSectionPrefix + channelID.String()
}

// Get reports ok=false on a miss; an empty slice is a cached answer.
func (c *ChannelSectionCache) Get(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, bool, error) {
	raw, err := c.redisClient.Get(ctx, ChannelSectionKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var sections []model.ChannelSection
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, false, err
	}
	if sections == nil {
		sections = []model.ChannelSection{}
	}
	return sections, true, nil
}

func (c *ChannelSectionCache) Set(ctx context.Context, channelID model.PlatformID, sections []model.ChannelSection, ttl time.Duration) error {
	if sections == nil {
		sections = []model.ChannelSection{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, ChannelSectionKey(channelID), raw, ttl).Err()
}

func (c *ChannelSectionCache) Invalidate(ctx context.Context, channelIDs ...model.PlatformID) error {
	if len(channelIDs) == 0 {
		return nil
	}
	keys := make([]string, len(channelIDs))
	for i, id := range channelIDs {
		keys[i] = ChannelSectionKey(id)
	}
	return c.redisClient.Del(ctx, keys...).Err()
}
