package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// SyncPublisher publishes sync events to a Pub/Sub topic. The list name goes
// into the "list" attribute so subscribers can filter.
type SyncPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewSyncPublisher returns a publisher for topicName, creating the topic when it
// does not exist yet.
func NewSyncPublisher(ctx context.Context, client *pubsub.Client, topicName string) (*SyncPublisher, error) {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicName, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicName); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", topicName, err)
		}
	}
	return &SyncPublisher{client: client, topic: topic}, nil
}

func (p *SyncPublisher) Publish(ctx context.Context, event dto.SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	msg := &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"list": event.List},
	}
	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish sync event: %w", err)
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("list", event.List).
		Info("Message published")
	return nil
}

// Close flushes pending messages.
func (p *SyncPublisher) Close() {
	p.topic.Stop()
}
