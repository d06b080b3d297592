package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wms-platform/scanpick-service/pkg/events"
)

// Header keys used on relay and event messages
const (
	HeaderRelayEvent  = "relay-event"
	HeaderStationID   = "relay-station"
	HeaderContentType = "content-type"
)

// Producer handles publishing messages to Kafka topics
type Producer struct {
	writers map[string]*kafka.Writer
	config  *Config
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}
}

// getWriter returns a writer for the topic, creating one if necessary
func (p *Producer) getWriter(topic string) *kafka.Writer {
	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		WriteTimeout: p.config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}

	p.writers[topic] = writer
	return writer
}

// PublishRelay publishes a relay message to the scan-relay topic, keyed by
// station so desktop consumers of the same station share an ordering.
func (p *Producer) PublishRelay(ctx context.Context, topic, station, eventName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(station),
		Value: data,
		Headers: []kafka.Header{
			{Key: HeaderRelayEvent, Value: []byte(eventName)},
			{Key: HeaderStationID, Value: []byte(station)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
		Time: time.Now(),
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish relay message to %s: %w", topic, err)
	}
	return nil
}

// PublishEvent publishes a CloudEvent to the specified topic
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *events.CloudEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
			{Key: "ce-type", Value: []byte(event.Type)},
			{Key: "ce-source", Value: []byte(event.Source)},
			{Key: "ce-id", Value: []byte(event.ID)},
			{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: HeaderContentType, Value: []byte(event.DataContentType)},
		},
		Time: event.Time,
	}

	if event.OrderID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "ce-wmsorderid", Value: []byte(event.OrderID)})
	}
	if event.SessionID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "ce-wmssessionid", Value: []byte(event.SessionID)})
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return nil
}

// PublishEvents publishes multiple CloudEvents to a topic
func (p *Producer) PublishEvents(ctx context.Context, topic string, batch []*events.CloudEvent) error {
	for _, event := range batch {
		if err := p.PublishEvent(ctx, topic, event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	var lastErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
