package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Symbologies the camera decoder must be configured to sample for
var CameraSymbologies = []string{
	"qr_code",
	"code_128",
	"code_39",
	"code_93",
	"ean_13",
	"ean_8",
	"upc_a",
	"upc_e",
	"data_matrix",
}

// Decoder abstracts the device-side barcode decode loop. Decode blocks until
// a symbol is read, the context is cancelled, or the device fails.
type Decoder interface {
	Decode(ctx context.Context) (string, error)
	Close() error
}

// CameraAdapterConfig holds camera adapter configuration
type CameraAdapterConfig struct {
	DebounceWindow time.Duration
}

// DefaultCameraAdapterConfig returns the standard decode debounce window
func DefaultCameraAdapterConfig() CameraAdapterConfig {
	return CameraAdapterConfig{
		DebounceWindow: 1500 * time.Millisecond,
	}
}

// CameraAdapter feeds decoder output into the pipeline. A barcode sitting in
// frame fires the decode callback continuously; the debounce window collapses
// those repeats into one submission.
type CameraAdapter struct {
	pipeline *Pipeline
	decoder  Decoder
	config   CameraAdapterConfig
	logger   *slog.Logger

	mu          sync.Mutex
	lastBarcode string
	lastDecode  time.Time
	disabled    bool
}

// NewCameraAdapter creates a camera adapter around the given decoder
func NewCameraAdapter(pipeline *Pipeline, decoder Decoder, config CameraAdapterConfig, logger *slog.Logger) *CameraAdapter {
	return &CameraAdapter{
		pipeline: pipeline,
		decoder:  decoder,
		config:   config,
		logger:   logger,
	}
}

// Run drives the decode loop until the context is cancelled or the device
// fails. A device failure disables only this adapter: the error is reported
// once and the other input adapters stay usable.
func (a *CameraAdapter) Run(ctx context.Context) error {
	defer a.decoder.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		barcode, err := a.decoder.Decode(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.disable(err)
			return err
		}

		if !a.accept(barcode) {
			continue
		}

		if err := a.pipeline.Submit(ctx, NewEvent(barcode, OriginCamera)); err != nil {
			return err
		}
	}
}

// Disabled reports whether the adapter shut down on a device error
func (a *CameraAdapter) Disabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disabled
}

// accept applies the debounce: the same barcode is rejected until the window
// since its last acceptance has elapsed. A different barcode resets the
// window immediately.
func (a *CameraAdapter) accept(barcode string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	if barcode == a.lastBarcode && now.Sub(a.lastDecode) < a.config.DebounceWindow {
		return false
	}

	a.lastBarcode = barcode
	a.lastDecode = now
	return true
}

func (a *CameraAdapter) disable(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.disabled {
		a.disabled = true
		a.logger.Error("Camera decoder unavailable, adapter disabled", "error", err.Error())
	}
}
