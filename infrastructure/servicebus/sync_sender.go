package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
)

// NewClient connects with a connection string when one is given, else with the
// default Azure credential chain against namespace
// (e.g. "myns.servicebus.windows.net").
func NewClient(connectionString, namespace string) (*azservicebus.Client, error) {
	if connectionString != "" {
		return azservicebus.NewClientFromConnectionString(connectionString, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// SyncSender sends sync events to a Service Bus queue or topic.
type SyncSender struct {
	sender messageSender
}

func NewSyncSender(client *azservicebus.Client, queueOrTopic string) (*SyncSender, error) {
	sender, err := client.NewSender(queueOrTopic, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &SyncSender{sender: sender}, nil
}

func (s *SyncSender) Publish(ctx context.Context, event dto.SyncEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	contentType := "application/json"
	subject := event.List
	msg := &azservicebus.Message{
		Body:                  body,
		ContentType:           &contentType,
		Subject:               &subject,
		ApplicationProperties: map[string]any{"list": event.List},
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (s *SyncSender) Close(ctx context.Context) {
	if err := s.sender.Close(ctx); err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
}
