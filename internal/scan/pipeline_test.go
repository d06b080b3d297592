package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) HandleScan(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func waitForEvents(t *testing.T, sink *recordingSink, count int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := sink.recorded(); len(events) >= count {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d events, got %d", count, len(sink.recorded()))
	return nil
}

func TestPipelineDeliversEventsInOrder(t *testing.T) {
	pipeline := NewPipeline(slog.Default())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx, sink)

	require.NoError(t, pipeline.Submit(ctx, NewEvent("FD-TEE-BLK-L", OriginManual)))
	require.NoError(t, pipeline.Submit(ctx, NewEvent("FD-CAP-RED", OriginCamera)))
	require.NoError(t, pipeline.Submit(ctx, NewEvent("FD-TEE-WHT-M", OriginRemote)))

	events := waitForEvents(t, sink, 3)
	assert.Equal(t, "FD-TEE-BLK-L", events[0].Barcode)
	assert.Equal(t, OriginManual, events[0].Origin)
	assert.Equal(t, "FD-CAP-RED", events[1].Barcode)
	assert.Equal(t, "FD-TEE-WHT-M", events[2].Barcode)
	assert.Equal(t, OriginRemote, events[2].Origin)
}

func TestPipelineContinuesAfterSinkError(t *testing.T) {
	pipeline := NewPipeline(slog.Default())
	sink := &recordingSink{err: errors.New("barcode not resolved")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx, sink)

	require.NoError(t, pipeline.Submit(ctx, NewEvent("UNKNOWN-1", OriginManual)))
	require.NoError(t, pipeline.Submit(ctx, NewEvent("UNKNOWN-2", OriginManual)))

	events := waitForEvents(t, sink, 2)
	assert.Len(t, events, 2)
}

func TestPipelineSubmitAfterClose(t *testing.T) {
	pipeline := NewPipeline(slog.Default())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pipeline.Run(ctx, sink)
		close(done)
	}()
	cancel()
	<-done

	err := pipeline.Submit(context.Background(), NewEvent("FD-TEE-BLK-L", OriginManual))
	assert.ErrorIs(t, err, ErrPipelineClosed)
}
