package scan

import (
	"context"
	"errors"
	"log/slog"
)

// ErrPipelineClosed is returned when submitting to a stopped pipeline
var ErrPipelineClosed = errors.New("scan pipeline is closed")

// Sink consumes scan events one at a time
type Sink interface {
	HandleScan(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, event Event) error

// HandleScan calls the wrapped function
func (f SinkFunc) HandleScan(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Pipeline is the single funnel all input adapters publish into. Events are
// consumed strictly in order: one scan is processed to completion before the
// next is dequeued.
type Pipeline struct {
	events chan Event
	done   chan struct{}
	logger *slog.Logger
}

// NewPipeline creates a pipeline with a small intake buffer
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Submit enqueues an event for processing. It blocks when the intake buffer
// is full rather than dropping the scan.
func (p *Pipeline) Submit(ctx context.Context, event Event) error {
	select {
	case <-p.done:
		return ErrPipelineClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.events <- event:
		return nil
	}
}

// Run consumes events sequentially until the context is cancelled. Sink
// errors are logged and do not stop the loop: a rejected scan must not take
// the pipeline down with it.
func (p *Pipeline) Run(ctx context.Context, sink Sink) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-p.events:
			if err := sink.HandleScan(ctx, event); err != nil {
				p.logger.Warn("Scan rejected",
					"barcode", event.Barcode,
					"origin", string(event.Origin),
					"error", err.Error(),
				)
			}
		}
	}
}
