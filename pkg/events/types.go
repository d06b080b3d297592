package events

import "time"

// Event type constants for the scan-to-pick domain
const (
	SessionOpened    = "wms.scanpick.session-opened"
	LineMarked       = "wms.scanpick.line-marked"
	SessionCompleted = "wms.scanpick.session-completed"
	PickCommitted    = "wms.scanpick.pick-committed"
)

// CloudEvent is a CloudEvents v1.0 compliant envelope for domain events
// published to the fulfillment events topic.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Extensions
	OrderID   string `json:"wmsorderid,omitempty"`
	SessionID string `json:"wmssessionid,omitempty"`
}
