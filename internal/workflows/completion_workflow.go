package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CompletionWorkflowInput carries a completed session into the durable
// completion path.
type CompletionWorkflowInput struct {
	SessionID string                `json:"sessionId"`
	OrderID   string                `json:"orderId"`
	Lines     []CompletionLineInput `json:"lines"`
}

// CompletionLineInput is one marked line to commit
type CompletionLineInput struct {
	LineIndex int    `json:"lineIndex"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Override  bool   `json:"override"`
}

// CompletionWorkflowResult reports how far the commit got
type CompletionWorkflowResult struct {
	OrderID        string `json:"orderId"`
	CommittedLines int    `json:"committedLines"`
	Completed      bool   `json:"completed"`
	FailedLine     int    `json:"failedLine"`
	FailedStep     string `json:"failedStep,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CommitLineInput is the activity input for committing one line
type CommitLineInput struct {
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
	LineIndex int    `json:"lineIndex"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Override  bool   `json:"override"`
}

// CommitLineResult reports which step inside the commit failed, if any
type CommitLineResult struct {
	FailedStep string `json:"failedStep,omitempty"`
}

// AdvanceStatusInput is the activity input for the final status move
type AdvanceStatusInput struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// PickCompletionWorkflow commits a completed pick session line by line. Lines
// run strictly in order so a failure is attributable to one line, and
// activities use a single attempt: a store failure is surfaced to the
// operator for an explicit retry, never retried silently behind their back.
func PickCompletionWorkflow(ctx workflow.Context, input CompletionWorkflowInput) (*CompletionWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting pick completion workflow",
		"orderId", input.OrderID,
		"sessionId", input.SessionID,
		"lines", len(input.Lines),
	)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	result := &CompletionWorkflowResult{
		OrderID:    input.OrderID,
		FailedLine: -1,
	}

	for _, line := range input.Lines {
		commitInput := CommitLineInput{
			OrderID:   input.OrderID,
			SessionID: input.SessionID,
			LineIndex: line.LineIndex,
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			Override:  line.Override,
		}

		var commitResult CommitLineResult
		err := workflow.ExecuteActivity(ctx, "CommitLine", commitInput).Get(ctx, &commitResult)
		if err != nil {
			result.FailedLine = line.LineIndex
			result.FailedStep = commitResult.FailedStep
			if result.FailedStep == "" {
				result.FailedStep = "commitLine"
			}
			result.Error = err.Error()
			logger.Error("Pick completion halted",
				"orderId", input.OrderID,
				"lineIndex", line.LineIndex,
				"error", err,
			)
			return result, nil
		}
		result.CommittedLines++
	}

	err := workflow.ExecuteActivity(ctx, "AdvanceOrderStatus", AdvanceStatusInput{
		OrderID: input.OrderID,
		Status:  "picked",
	}).Get(ctx, nil)
	if err != nil {
		result.FailedStep = "advanceStatus"
		result.Error = err.Error()
		return result, nil
	}

	result.Completed = true
	logger.Info("Pick completion workflow finished",
		"orderId", input.OrderID,
		"committedLines", result.CommittedLines,
	)
	return result, nil
}
