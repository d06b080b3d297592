package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFocus struct {
	focused   atomic.Bool
	reclaimed atomic.Int32
}

func (f *fakeFocus) HasFocus() bool { return f.focused.Load() }
func (f *fakeFocus) Reclaim() {
	f.reclaimed.Add(1)
	f.focused.Store(true)
}

func TestManualAdapterSubmitsLines(t *testing.T) {
	pipeline := NewPipeline(slog.Default())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx, sink)

	adapter := NewManualAdapter(pipeline, nil, DefaultManualAdapterConfig(), slog.Default())
	input := strings.NewReader("FD-TEE-BLK-L\n  0123456789012  \n\nFD-CAP-RED\n")
	require.NoError(t, adapter.Run(ctx, input))

	events := waitForEvents(t, sink, 3)
	assert.Equal(t, "FD-TEE-BLK-L", events[0].Barcode)
	assert.Equal(t, "0123456789012", events[1].Barcode, "barcodes are trimmed")
	assert.Equal(t, "FD-CAP-RED", events[2].Barcode, "blank lines are skipped")
	for _, event := range events {
		assert.Equal(t, OriginManual, event.Origin)
	}
}

func TestManualAdapterReclaimsFocus(t *testing.T) {
	pipeline := NewPipeline(slog.Default())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx, sink)

	focus := &fakeFocus{}
	config := ManualAdapterConfig{FocusInterval: 10 * time.Millisecond}
	adapter := NewManualAdapter(pipeline, focus, config, slog.Default())

	reader, writer := newBlockingReader()
	go adapter.Run(ctx, reader)

	require.Eventually(t, func() bool {
		return focus.reclaimed.Load() >= 1
	}, time.Second, 5*time.Millisecond, "focus guard should reclaim a lost focus")
	assert.True(t, focus.HasFocus())

	// Losing focus again triggers another reclaim on the next tick.
	focus.focused.Store(false)
	require.Eventually(t, func() bool {
		return focus.reclaimed.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	writer.close()
}

// blockingReader keeps Run alive so the focus guard has time to tick
type blockingReader struct {
	ch chan byte
}

func newBlockingReader() (*blockingReader, *blockingReader) {
	r := &blockingReader{ch: make(chan byte)}
	return r, r
}

func (r *blockingReader) Read(p []byte) (int, error) {
	b, ok := <-r.ch
	if !ok {
		return 0, context.Canceled
	}
	p[0] = b
	return 1, nil
}

func (r *blockingReader) close() { close(r.ch) }
