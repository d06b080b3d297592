package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/pkg/logging"
	"github.com/wms-platform/scanpick-service/pkg/metrics"
)

// Completion steps, used to attribute a failure to the call that caused it
const (
	StepCommitPick    = "commitPick"
	StepDeduct        = "deductInventory"
	StepAudit         = "appendAudit"
	StepAdvanceStatus = "advanceStatus"
)

// StatusPicked is the order status set once every line is committed
const StatusPicked = "picked"

// CompletionResult reports how far a completion run got. CommittedLines
// counts lines fully committed before any failure; FailedLine is -1 when
// every line succeeded.
type CompletionResult struct {
	OrderID        string
	CommittedLines int
	Completed      bool
	FailedLine     int
	FailedStep     string
	Err            error
}

// CompletionCoordinator commits a fully marked session: per line, record the
// pick in the order store, deduct inventory, append an audit entry. Lines run
// sequentially so a failure is attributable to one line, and earlier commits
// stay committed. The physical picking already happened; nothing is rolled
// back.
type CompletionCoordinator struct {
	orders    domain.OrderStore
	inventory domain.InventoryStore
	audit     domain.AuditStore
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewCompletionCoordinator creates a new CompletionCoordinator
func NewCompletionCoordinator(
	orders domain.OrderStore,
	inventory domain.InventoryStore,
	audit domain.AuditStore,
	m *metrics.Metrics,
	logger *logging.Logger,
) *CompletionCoordinator {
	return &CompletionCoordinator{
		orders:    orders,
		inventory: inventory,
		audit:     audit,
		metrics:   m,
		logger:    logger,
	}
}

// Complete commits every line of the session in order, then advances the
// order status. On a per-line failure it stops and reports which line and
// step failed, leaving earlier lines committed.
func (c *CompletionCoordinator) Complete(ctx context.Context, session *domain.ScanSession) *CompletionResult {
	result := &CompletionResult{
		OrderID:    session.OrderID,
		FailedLine: -1,
	}

	log := c.logger.WithSession(session.SessionID, session.OrderID)

	for i := range session.Lines {
		line := &session.Lines[i]
		mark := session.Marks[i]

		if err := c.orders.CommitPick(ctx, session.OrderID, i, line.Quantity); err != nil {
			return c.fail(result, log, i, StepCommitPick, line.SKU, err)
		}

		deduction, err := c.inventory.Deduct(ctx, line.SKU, line.Quantity)
		if err != nil {
			return c.fail(result, log, i, StepDeduct, line.SKU, err)
		}
		c.metrics.InventoryDeducted.Add(float64(deduction.PriorQuantity - deduction.NewQuantity))

		entry := domain.AuditEntry{
			SKU:           line.SKU,
			OrderID:       session.OrderID,
			PriorQuantity: deduction.PriorQuantity,
			Delta:         deduction.NewQuantity - deduction.PriorQuantity,
			Reason:        "picked",
			Override:      mark.Override,
			RecordedAt:    time.Now().UTC(),
		}
		if err := c.audit.Append(ctx, entry); err != nil {
			return c.fail(result, log, i, StepAudit, line.SKU, err)
		}

		result.CommittedLines++
		c.metrics.LinesCommitted.Inc()
	}

	if err := c.orders.AdvanceOrderStatus(ctx, session.OrderID, StatusPicked); err != nil {
		return c.fail(result, log, -1, StepAdvanceStatus, "", err)
	}

	result.Completed = true
	log.Info("Pick session committed",
		"lines", result.CommittedLines,
		"overrides", session.Overrides(),
	)
	return result
}

func (c *CompletionCoordinator) fail(result *CompletionResult, log *logging.Logger, line int, step, sku string, err error) *CompletionResult {
	result.FailedLine = line
	result.FailedStep = step
	result.Err = fmt.Errorf("%s failed: %w", step, err)

	c.metrics.CommitFailures.WithLabelValues(step).Inc()
	log.WithError(err).Error("Pick completion halted",
		"step", step,
		"lineIndex", line,
		"sku", sku,
		"committedLines", result.CommittedLines,
	)
	return result
}
