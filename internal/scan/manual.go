package scan

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// FocusReclaimer restores input focus to the scan field. HID scanners type
// into whatever widget holds focus, so the adapter reclaims it on a fixed
// tick while the session is open.
type FocusReclaimer interface {
	HasFocus() bool
	Reclaim()
}

// ManualAdapterConfig holds manual/HID adapter configuration
type ManualAdapterConfig struct {
	FocusInterval time.Duration
}

// DefaultManualAdapterConfig returns the standard focus-reclaim cadence
func DefaultManualAdapterConfig() ManualAdapterConfig {
	return ManualAdapterConfig{
		FocusInterval: 500 * time.Millisecond,
	}
}

// ManualAdapter reads newline-terminated barcodes from a HID scanner acting
// as a keyboard. Each line is one scan: the device types the code and sends
// an implicit enter.
type ManualAdapter struct {
	pipeline *Pipeline
	focus    FocusReclaimer
	config   ManualAdapterConfig
	logger   *slog.Logger
}

// NewManualAdapter creates a manual/HID adapter. focus may be nil when the
// input source has no focus concept (a plain stream).
func NewManualAdapter(pipeline *Pipeline, focus FocusReclaimer, config ManualAdapterConfig, logger *slog.Logger) *ManualAdapter {
	return &ManualAdapter{
		pipeline: pipeline,
		focus:    focus,
		config:   config,
		logger:   logger,
	}
}

// Run consumes lines from input until EOF or context cancellation. The focus
// guard runs alongside and stops with the same context, so no timer outlives
// the session.
func (a *ManualAdapter) Run(ctx context.Context, input io.Reader) error {
	guardCtx, cancelGuard := context.WithCancel(ctx)
	defer cancelGuard()

	if a.focus != nil {
		go a.guardFocus(guardCtx)
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		barcode := strings.TrimSpace(scanner.Text())
		if barcode == "" {
			continue
		}

		if err := a.pipeline.Submit(ctx, NewEvent(barcode, OriginManual)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (a *ManualAdapter) guardFocus(ctx context.Context) {
	ticker := time.NewTicker(a.config.FocusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.focus.HasFocus() {
				a.focus.Reclaim()
			}
		}
	}
}
