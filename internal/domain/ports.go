package domain

import (
	"context"
	"time"
)

// AliasRepository is the read-only view of the barcode alias table. Aliases
// are created by the receiving flow, outside this service; the pick engine
// only consumes them.
type AliasRepository interface {
	LookupAll(ctx context.Context) ([]BarcodeAlias, error)
}

// OrderStore is the remote order collaborator.
type OrderStore interface {
	GetOrderLines(ctx context.Context, orderID string) ([]OrderLine, error)
	CommitPick(ctx context.Context, orderID string, lineIndex int, quantity int) error
	AdvanceOrderStatus(ctx context.Context, orderID, status string) error
}

// DeductionResult reports an inventory deduction.
type DeductionResult struct {
	SKU           string
	PriorQuantity int
	NewQuantity   int
}

// InventoryStore is the remote inventory collaborator. Deduct clamps at zero:
// stock never goes negative even when it was already insufficient.
type InventoryStore interface {
	Deduct(ctx context.Context, sku string, quantity int) (DeductionResult, error)
}

// AuditEntry captures one inventory movement for the audit trail.
type AuditEntry struct {
	SKU           string    `bson:"sku" json:"sku"`
	OrderID       string    `bson:"orderId" json:"orderId"`
	PriorQuantity int       `bson:"priorQuantity" json:"priorQuantity"`
	Delta         int       `bson:"delta" json:"delta"`
	Reason        string    `bson:"reason" json:"reason"`
	Override      bool      `bson:"override,omitempty" json:"override,omitempty"`
	RecordedAt    time.Time `bson:"recordedAt" json:"recordedAt"`
}

// AuditStore appends audit entries. Entries are written per line, after the
// matching deduction.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// EventPublisher publishes session domain events for downstream consumers.
type EventPublisher interface {
	PublishAll(ctx context.Context, events []DomainEvent) error
}
