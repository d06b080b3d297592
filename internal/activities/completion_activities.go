package activities

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/internal/workflows"
)

// CompletionActivities are the store-facing steps of the completion
// workflow. Each line runs commit, deduct and audit in order; the workflow
// stops the loop on the first failure.
type CompletionActivities struct {
	orders    domain.OrderStore
	inventory domain.InventoryStore
	audit     domain.AuditStore
}

// NewCompletionActivities creates new CompletionActivities
func NewCompletionActivities(
	orders domain.OrderStore,
	inventory domain.InventoryStore,
	audit domain.AuditStore,
) *CompletionActivities {
	return &CompletionActivities{
		orders:    orders,
		inventory: inventory,
		audit:     audit,
	}
}

// CommitLine records the pick on the order, deducts inventory and appends
// the audit entry for one line.
func (a *CompletionActivities) CommitLine(ctx context.Context, input workflows.CommitLineInput) (workflows.CommitLineResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Committing line",
		"orderId", input.OrderID,
		"lineIndex", input.LineIndex,
		"sku", input.SKU,
	)

	if err := a.orders.CommitPick(ctx, input.OrderID, input.LineIndex, input.Quantity); err != nil {
		return workflows.CommitLineResult{FailedStep: "commitPick"},
			fmt.Errorf("commitPick failed: %w", err)
	}

	deduction, err := a.inventory.Deduct(ctx, input.SKU, input.Quantity)
	if err != nil {
		return workflows.CommitLineResult{FailedStep: "deductInventory"},
			fmt.Errorf("deductInventory failed: %w", err)
	}

	entry := domain.AuditEntry{
		SKU:           input.SKU,
		OrderID:       input.OrderID,
		PriorQuantity: deduction.PriorQuantity,
		Delta:         deduction.NewQuantity - deduction.PriorQuantity,
		Reason:        "picked",
		Override:      input.Override,
		RecordedAt:    time.Now().UTC(),
	}
	if err := a.audit.Append(ctx, entry); err != nil {
		return workflows.CommitLineResult{FailedStep: "appendAudit"},
			fmt.Errorf("appendAudit failed: %w", err)
	}

	return workflows.CommitLineResult{}, nil
}

// AdvanceOrderStatus moves the order to its post-pick status
func (a *CompletionActivities) AdvanceOrderStatus(ctx context.Context, input workflows.AdvanceStatusInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Advancing order status", "orderId", input.OrderID, "status", input.Status)

	if err := a.orders.AdvanceOrderStatus(ctx, input.OrderID, input.Status); err != nil {
		return fmt.Errorf("advanceStatus failed: %w", err)
	}
	return nil
}
