package relay

import (
	"encoding/json"
	"fmt"
	"time"
)

// Relay event names. Barcode payloads and connection handshakes travel as
// distinct events on the same station topic.
const (
	EventBarcodeScanned = "barcode-scanned"
	EventLinkHandshake  = "link-handshake"
)

// Payload is the wire body of a barcode-scanned event
type Payload struct {
	Barcode   string `json:"barcode"`
	Timestamp string `json:"timestamp"`
}

// NewPayload builds a Payload with an ISO 8601 timestamp
func NewPayload(barcode string, capturedAt time.Time) Payload {
	return Payload{
		Barcode:   barcode,
		Timestamp: capturedAt.UTC().Format(time.RFC3339),
	}
}

// CapturedAt parses the payload timestamp
func (p Payload) CapturedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, p.Timestamp)
}

// DecodePayload parses a barcode-scanned event body
func DecodePayload(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("failed to decode relay payload: %w", err)
	}
	if payload.Barcode == "" {
		return Payload{}, fmt.Errorf("relay payload has no barcode")
	}
	return payload, nil
}
