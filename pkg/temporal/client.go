package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "scanpick-worker",
	}
}

// TaskQueues contains the fulfillment task queue names
var TaskQueues = struct {
	PickCompletion string
}{
	PickCompletion: "pick-completion-queue",
}

// WorkflowNames contains the fulfillment workflow names
var WorkflowNames = struct {
	PickCompletion string
}{
	PickCompletion: "PickCompletionWorkflow",
}

// Client wraps the Temporal client for the fulfillment services
type Client struct {
	client client.Client
	config *Config
}

// NewClient creates a new Temporal client
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		client: c,
		config: config,
	}, nil
}

// Client returns the underlying Temporal client
func (c *Client) Client() client.Client {
	return c.client
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}

// StartWorkflow starts a workflow execution
func (c *Client) StartWorkflow(
	ctx context.Context,
	workflowID string,
	taskQueue string,
	workflowName string,
	args ...interface{},
) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: taskQueue,
	}

	run, err := c.client.ExecuteWorkflow(ctx, options, workflowName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow %s: %w", workflowName, err)
	}
	return run, nil
}

// NewWorker creates a worker on the given task queue
func (c *Client) NewWorker(taskQueue string) worker.Worker {
	return worker.New(c.client, taskQueue, worker.Options{})
}
