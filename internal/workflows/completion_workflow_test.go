package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/wms-platform/scanpick-service/internal/workflows"
)

type recordedCommits struct {
	mu       sync.Mutex
	lines    []int
	statuses []string
}

func workflowInput() workflows.CompletionWorkflowInput {
	return workflows.CompletionWorkflowInput{
		SessionID: "sess-1",
		OrderID:   "order-1",
		Lines: []workflows.CompletionLineInput{
			{LineIndex: 0, SKU: "FD-TEE-BLK-L", Quantity: 2},
			{LineIndex: 1, SKU: "FD-TEE-WHT-M", Quantity: 1},
			{LineIndex: 2, SKU: "FD-CAP-RED", Quantity: 3, Override: true},
		},
	}
}

func registerActivities(env *testsuite.TestWorkflowEnvironment, recorded *recordedCommits, failLine int, failStep string) {
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in workflows.CommitLineInput) (workflows.CommitLineResult, error) {
			if in.LineIndex == failLine {
				return workflows.CommitLineResult{FailedStep: failStep},
					errors.New("inventory record locked")
			}
			recorded.mu.Lock()
			recorded.lines = append(recorded.lines, in.LineIndex)
			recorded.mu.Unlock()
			return workflows.CommitLineResult{}, nil
		},
		activity.RegisterOptions{Name: "CommitLine"},
	)
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in workflows.AdvanceStatusInput) error {
			recorded.mu.Lock()
			recorded.statuses = append(recorded.statuses, in.Status)
			recorded.mu.Unlock()
			return nil
		},
		activity.RegisterOptions{Name: "AdvanceOrderStatus"},
	)
}

func TestPickCompletionWorkflow_Success(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.PickCompletionWorkflow)

	recorded := &recordedCommits{}
	registerActivities(env, recorded, -1, "")

	env.ExecuteWorkflow(workflows.PickCompletionWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result workflows.CompletionWorkflowResult
	require.NoError(t, env.GetWorkflowResult(&result))

	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.CommittedLines)
	assert.Equal(t, -1, result.FailedLine)
	assert.Equal(t, []int{0, 1, 2}, recorded.lines, "lines commit strictly in order")
	assert.Equal(t, []string{"picked"}, recorded.statuses)
}

func TestPickCompletionWorkflow_StopsAtFailedLine(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.PickCompletionWorkflow)

	recorded := &recordedCommits{}
	registerActivities(env, recorded, 2, "deductInventory")

	env.ExecuteWorkflow(workflows.PickCompletionWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result workflows.CompletionWorkflowResult
	require.NoError(t, env.GetWorkflowResult(&result))

	assert.False(t, result.Completed)
	assert.Equal(t, 2, result.CommittedLines, "earlier lines stay committed")
	assert.Equal(t, 2, result.FailedLine)
	assert.Contains(t, result.Error, "inventory record locked")
	assert.Equal(t, []int{0, 1}, recorded.lines)
	assert.Empty(t, recorded.statuses, "status does not advance on partial failure")
}
