package events

import (
	"time"

	"github.com/google/uuid"
)

// Factory creates CloudEvents for a fixed source.
type Factory struct {
	source string
}

// NewFactory creates a new Factory for a specific source
func NewFactory(source string) *Factory {
	return &Factory{source: source}
}

// NewEvent creates a new CloudEvent with the given parameters
func (f *Factory) NewEvent(eventType, subject string, data interface{}) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// NewSessionEvent creates a CloudEvent carrying session identifiers as
// extensions so consumers can filter without decoding the payload.
func (f *Factory) NewSessionEvent(eventType, sessionID, orderID string, data interface{}) *CloudEvent {
	event := f.NewEvent(eventType, "session/"+sessionID, data)
	event.SessionID = sessionID
	event.OrderID = orderID
	return event
}
