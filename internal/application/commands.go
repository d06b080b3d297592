package application

// OpenSessionCommand opens a pick session for an order
type OpenSessionCommand struct {
	OrderID string
	Station string
}

// SubmitScanCommand submits one raw barcode against an open session
type SubmitScanCommand struct {
	OrderID string
	Barcode string
	Origin  string
}

// OverrideLineCommand marks the current line without a matching scan
type OverrideLineCommand struct {
	OrderID string
	Origin  string
}

// CompleteSessionCommand commits a fully marked session to the stores.
// Durable selects the workflow-backed path over the in-process coordinator.
type CompleteSessionCommand struct {
	OrderID string
	Durable bool
}

// CancelSessionCommand discards an open session
type CancelSessionCommand struct {
	OrderID string
}

// GetSessionQuery retrieves an open session by order ID
type GetSessionQuery struct {
	OrderID string
}

// ParsePayloadQuery decodes a composite QR payload for the receiving flow
type ParsePayloadQuery struct {
	Raw string
}
