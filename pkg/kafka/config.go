package kafka

import "time"

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration

	// Consumer settings
	MinBytes      int
	MaxBytes      int
	MaxWait       time.Duration
	CommitTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "scanpick-default-group",
		ClientID:      "scanpick-client",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 5 * time.Second,

		MinBytes:      1,
		MaxBytes:      10e6,
		MaxWait:       500 * time.Millisecond,
		CommitTimeout: 5 * time.Second,
	}
}

// Topics contains the topic names this service touches
var Topics = struct {
	// ScanRelay is the topic-scoped broadcast channel between a handheld
	// scanner endpoint and the desktop session. Messages are keyed by
	// station so one topic serves every station.
	ScanRelay string

	// FulfillmentEvents carries session domain events for downstream
	// consumers (reporting, labor).
	FulfillmentEvents string
}{
	ScanRelay:         "wms.scan.relay",
	FulfillmentEvents: "wms.fulfillment.events",
}
