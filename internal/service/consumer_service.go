package service

import (
	"context"
	"encoding/json"

	"feature-store-be/internal/dto"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/pkg/events"
	pktNats "feature-store-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher forwards events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventSubscriber receives events published by other instances.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, handler pktNats.EventHandler) error
}

type IConsumerService interface {
	// Consume drains the in-process catalog topic: it invalidates the local
	// catalog cache and forwards each event to the external broker, if any.
	Consume(ctx context.Context) error
	// ConsumeRemote invalidates the local cache for catalog events published
	// by any instance.
	ConsumeRemote(ctx context.Context, subscriber EventSubscriber) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	catalog        IFeatureCatalog
	eventPublisher EventPublisher
	logger         logger.ILogger
}

// NewConsumerService builds the consumer. eventPublisher may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	catalog IFeatureCatalog,
	eventPublisher EventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Every outcome acks: a message that cannot be decoded now never will be.
	defer msg.Ack()

	var payload dto.FeatureEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal catalog event", map[string]interface{}{"error": err.Error()})
		return
	}

	cs.catalog.Invalidate(payload.OrganizationId, payload.FeatureId)

	if cs.eventPublisher == nil {
		return
	}
	evt := events.NewFeatureEvent(payload.Type, payload.OrganizationId, payload.FeatureId, payload.OccurredAt)
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to forward catalog event", map[string]interface{}{
			"type":       payload.Type,
			"feature_id": payload.FeatureId,
			"error":      err.Error(),
		})
	}
}

func (cs *consumerService) ConsumeRemote(ctx context.Context, subscriber EventSubscriber) error {
	return subscriber.Subscribe(ctx, pktNats.Subject("*"), func(ctx context.Context, event events.Event) error {
		organizationId, featureId, err := events.FeatureRef(event)
		if err != nil {
			cs.logger.Warn("ConsumerService", "Ignoring malformed remote catalog event", map[string]interface{}{"error": err.Error()})
			return err
		}
		cs.catalog.Invalidate(organizationId, featureId)
		return nil
	})
}
