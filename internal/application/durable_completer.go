package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/internal/workflows"
	"github.com/wms-platform/scanpick-service/pkg/temporal"
)

// DurableCompleter runs the per-line commit sequence on an engine that
// survives process death. Used when a completion request asks for the
// durable path.
type DurableCompleter interface {
	Complete(ctx context.Context, input workflows.CompletionWorkflowInput) (*workflows.CompletionWorkflowResult, error)
}

// TemporalCompleter starts the pick completion workflow and waits for its
// result. The workflow outlives this process: if the API dies mid-wait the
// commits still run to their conclusion on the worker.
type TemporalCompleter struct {
	client *temporal.Client
}

// NewTemporalCompleter creates a completer backed by a Temporal client
func NewTemporalCompleter(client *temporal.Client) *TemporalCompleter {
	return &TemporalCompleter{client: client}
}

func (t *TemporalCompleter) Complete(ctx context.Context, input workflows.CompletionWorkflowInput) (*workflows.CompletionWorkflowResult, error) {
	workflowID := fmt.Sprintf("pick-completion-%s-%s", input.OrderID, input.SessionID)

	run, err := t.client.StartWorkflow(ctx, workflowID,
		temporal.TaskQueues.PickCompletion,
		temporal.WorkflowNames.PickCompletion,
		input,
	)
	if err != nil {
		return nil, err
	}

	var result workflows.CompletionWorkflowResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("pick completion workflow %s failed: %w", workflowID, err)
	}
	return &result, nil
}

// completionWorkflowInput flattens a completed session into workflow input
func completionWorkflowInput(session *domain.ScanSession) workflows.CompletionWorkflowInput {
	input := workflows.CompletionWorkflowInput{
		SessionID: session.SessionID,
		OrderID:   session.OrderID,
	}
	for i, line := range session.Lines {
		mark := session.Marks[i]
		input.Lines = append(input.Lines, workflows.CompletionLineInput{
			LineIndex: i,
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			Override:  mark.Override,
		})
	}
	return input
}

// fromWorkflowResult maps a durable run back onto the in-process result shape
// so both completion paths share one response contract.
func fromWorkflowResult(r *workflows.CompletionWorkflowResult) *CompletionResult {
	result := &CompletionResult{
		OrderID:        r.OrderID,
		CommittedLines: r.CommittedLines,
		Completed:      r.Completed,
		FailedLine:     r.FailedLine,
		FailedStep:     r.FailedStep,
	}
	if r.Error != "" {
		result.Err = errors.New(r.Error)
	}
	return result
}
