package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

// ChannelResolver looks up channel details on whichever platform an ID
// belongs to. A platform without a resolver is skipped.
type ChannelResolver struct {
	resolvers map[model.Platform]*SourceOfTruth[model.Channel]
}

func NewChannelResolver(youtube, twitch *SourceOfTruth[model.Channel]) *ChannelResolver {
	r := &ChannelResolver{resolvers: map[model.Platform]*SourceOfTruth[model.Channel]{}}
	if youtube != nil {
		r.resolvers[model.PlatformYouTube] = youtube
	}
	if twitch != nil {
		r.resolvers[model.PlatformTwitch] = twitch
	}
	return r
}

// Resolve returns the known channels among ids in request order.
func (r *ChannelResolver) Resolve(ctx context.Context, ids []model.PlatformID) ([]model.Channel, error) {
	ids = uniqueIDs(ids)
	byPlatform := map[model.Platform][]model.PlatformID{}
	for _, id := range ids {
		byPlatform[id.Platform] = append(byPlatform[id.Platform], id)
	}

	var mu sync.Mutex
	found := make(map[model.PlatformID]model.Channel, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for platform, group := range byPlatform {
		resolver, ok := r.resolvers[platform]
		if !ok {
			logger.GetLogger().
				WithField("platform", string(platform)).
				WithField("ids", len(group)).
				Warn("no channel resolver for platform")
			continue
		}
		g.Go(func() error {
			channels, err := resolver.Resolve(gctx, group)
			if err != nil {
				return fmt.Errorf("failed to resolve %s channels: %w", platform, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, c := range channels {
				found[c.ID] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return orderByIDs(ids, found), nil
}

func (r *ChannelResolver) ResolveOne(ctx context.Context, id model.PlatformID) (model.Channel, error) {
	resolver, ok := r.resolvers[id.Platform]
	if !ok {
		return model.Channel{}, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	return resolver.ResolveOne(ctx, id)
}
