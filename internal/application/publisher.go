package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/pkg/events"
	"github.com/wms-platform/scanpick-service/pkg/kafka"
	"github.com/wms-platform/scanpick-service/pkg/logging"
)

// CloudEventPublisher publishes session domain events to the fulfillment
// events topic as CloudEvents.
type CloudEventPublisher struct {
	producer *kafka.Producer
	factory  *events.Factory
	topic    string
	logger   *logging.Logger
}

// NewCloudEventPublisher creates a publisher for the given topic
func NewCloudEventPublisher(producer *kafka.Producer, factory *events.Factory, topic string, logger *logging.Logger) *CloudEventPublisher {
	return &CloudEventPublisher{
		producer: producer,
		factory:  factory,
		topic:    topic,
		logger:   logger,
	}
}

// PublishAll converts and publishes a batch of domain events
func (p *CloudEventPublisher) PublishAll(ctx context.Context, domainEvents []domain.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	batch := make([]*events.CloudEvent, 0, len(domainEvents))
	for _, event := range domainEvents {
		sessionID, orderID := sessionIdentifiers(event)
		batch = append(batch, p.factory.NewSessionEvent(event.EventType(), sessionID, orderID, event))
	}

	if err := p.producer.PublishEvents(ctx, p.topic, batch); err != nil {
		return fmt.Errorf("failed to publish session events: %w", err)
	}
	return nil
}

func sessionIdentifiers(event domain.DomainEvent) (sessionID, orderID string) {
	switch e := event.(type) {
	case *domain.SessionOpenedEvent:
		return e.SessionID, e.OrderID
	case *domain.LineMarkedEvent:
		return e.SessionID, e.OrderID
	case *domain.SessionCompletedEvent:
		return e.SessionID, e.OrderID
	case *domain.PickCommittedEvent:
		return e.SessionID, e.OrderID
	}
	return "", ""
}
