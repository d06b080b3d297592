package application

import "time"

// SessionDTO represents an open pick session in responses
type SessionDTO struct {
	SessionID        string           `json:"sessionId"`
	OrderID          string           `json:"orderId"`
	State            string           `json:"state"`
	Lines            []SessionLineDTO `json:"lines"`
	CurrentLineIndex int              `json:"currentLineIndex"`
	MarkedCount      int              `json:"markedCount"`
	OpenedAt         time.Time        `json:"openedAt"`
}

// SessionLineDTO represents one line and its pick progress
type SessionLineDTO struct {
	SKU          string     `json:"sku"`
	ProductName  string     `json:"productName"`
	Variant      string     `json:"variant,omitempty"`
	Quantity     int        `json:"quantity"`
	LocationCode string     `json:"locationCode,omitempty"`
	Marked       bool       `json:"marked"`
	MarkedAt     *time.Time `json:"markedAt,omitempty"`
	Override     bool       `json:"override,omitempty"`
	Origin       string     `json:"origin,omitempty"`
}

// ScanOutcomeDTO represents the result of a scan or override
type ScanOutcomeDTO struct {
	Accepted  bool            `json:"accepted"`
	Reason    string          `json:"reason,omitempty"`
	LineIndex int             `json:"lineIndex"`
	Line      *SessionLineDTO `json:"line,omitempty"`
	Override  bool            `json:"override"`
	Fuzzy     bool            `json:"fuzzy,omitempty"`
	Completed bool            `json:"completed"`
}

// CompletionResultDTO reports the outcome of committing a completed session
type CompletionResultDTO struct {
	OrderID         string `json:"orderId"`
	CommittedLines  int    `json:"committedLines"`
	Completed       bool   `json:"completed"`
	FailedLineIndex *int   `json:"failedLineIndex,omitempty"`
	FailedStep      string `json:"failedStep,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CompositePayloadDTO holds the parts of a decoded composite QR payload
type CompositePayloadDTO struct {
	SKU      string `json:"sku"`
	Location string `json:"location,omitempty"`
	Variant  string `json:"variant,omitempty"`
}
