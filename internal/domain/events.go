package domain

import (
	"time"

	"github.com/wms-platform/scanpick-service/pkg/events"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// SessionOpenedEvent is published when a pick session is opened for an order
type SessionOpenedEvent struct {
	SessionID string    `json:"sessionId"`
	OrderID   string    `json:"orderId"`
	LineCount int       `json:"lineCount"`
	OpenedAt  time.Time `json:"openedAt"`
}

func (e *SessionOpenedEvent) EventType() string     { return events.SessionOpened }
func (e *SessionOpenedEvent) OccurredAt() time.Time { return e.OpenedAt }

// LineMarkedEvent is published when a line is satisfied, by scan or override
type LineMarkedEvent struct {
	SessionID string    `json:"sessionId"`
	OrderID   string    `json:"orderId"`
	LineIndex int       `json:"lineIndex"`
	SKU       string    `json:"sku"`
	Override  bool      `json:"override"`
	Fuzzy     bool      `json:"fuzzy,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	MarkedAt  time.Time `json:"markedAt"`
}

func (e *LineMarkedEvent) EventType() string     { return events.LineMarked }
func (e *LineMarkedEvent) OccurredAt() time.Time { return e.MarkedAt }

// SessionCompletedEvent is published when every line of a session is marked
type SessionCompletedEvent struct {
	SessionID   string    `json:"sessionId"`
	OrderID     string    `json:"orderId"`
	LineCount   int       `json:"lineCount"`
	Overrides   int       `json:"overrides"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *SessionCompletedEvent) EventType() string     { return events.SessionCompleted }
func (e *SessionCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// PickCommittedEvent is published after the completion coordinator has
// committed every line of a session to the order and inventory stores
type PickCommittedEvent struct {
	SessionID   string    `json:"sessionId"`
	OrderID     string    `json:"orderId"`
	LineCount   int       `json:"lineCount"`
	CommittedAt time.Time `json:"committedAt"`
}

func (e *PickCommittedEvent) EventType() string     { return events.PickCommitted }
func (e *PickCommittedEvent) OccurredAt() time.Time { return e.CommittedAt }
