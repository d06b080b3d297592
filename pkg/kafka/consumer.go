package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Message is an inbound Kafka message with its relay headers extracted.
type Message struct {
	Event   string
	Station string
	Key     []byte
	Value   []byte
}

// MessageHandler handles one inbound message. Returning an error leaves the
// offset uncommitted so the message is retried.
type MessageHandler func(ctx context.Context, msg Message) error

// Consumer consumes messages from Kafka topics
type Consumer struct {
	config   *Config
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	logger   *slog.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config *Config, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		config:   config,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for every message on a topic
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.handlers[topic] = handler
}

func (c *Consumer) getReader(topic string) *kafka.Reader {
	if reader, exists := c.readers[topic]; exists {
		return reader
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.ConsumerGroup,
		Topic:          topic,
		MinBytes:       c.config.MinBytes,
		MaxBytes:       c.config.MaxBytes,
		MaxWait:        c.config.MaxWait,
		CommitInterval: c.config.CommitTimeout,
	})

	c.readers[topic] = reader
	return reader
}

// Start consumes all subscribed topics until the context is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	for topic := range c.handlers {
		go c.consumeTopic(ctx, topic)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (c *Consumer) consumeTopic(ctx context.Context, topic string) {
	reader := c.getReader(topic)
	handler := c.handlers[topic]

	c.logger.Info("Starting consumer for topic", "topic", topic, "group", c.config.ConsumerGroup)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping consumer for topic", "topic", topic)
			return
		default:
			raw, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("Error fetching message", "topic", topic, "error", err)
				continue
			}

			if err := handler(ctx, parseMessage(raw)); err != nil {
				c.logger.Error("Error handling message", "topic", topic, "error", err)
				// Leave uncommitted so the message is redelivered.
				continue
			}

			if err := reader.CommitMessages(ctx, raw); err != nil {
				c.logger.Error("Error committing message", "topic", topic, "error", err)
			}
		}
	}
}

func parseMessage(raw kafka.Message) Message {
	msg := Message{Key: raw.Key, Value: raw.Value}
	for _, header := range raw.Headers {
		switch header.Key {
		case HeaderRelayEvent:
			msg.Event = string(header.Value)
		case HeaderStationID:
			msg.Station = string(header.Value)
		}
	}
	return msg
}

// Close closes all readers
func (c *Consumer) Close() error {
	var lastErr error
	for _, reader := range c.readers {
		if err := reader.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
