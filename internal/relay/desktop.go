package relay

import (
	"context"
	"log/slog"

	"github.com/wms-platform/scanpick-service/internal/scan"
	"github.com/wms-platform/scanpick-service/pkg/kafka"
)

// DesktopReceiver is the session side of the relay link. It consumes inbound
// broadcasts for its station and feeds their barcodes into the scan pipeline
// exactly like a local scan. It has no send or retry responsibility.
type DesktopReceiver struct {
	station  string
	pipeline *scan.Pipeline
	logger   *slog.Logger
}

// NewDesktopReceiver creates a receiver bound to one station and pipeline
func NewDesktopReceiver(station string, pipeline *scan.Pipeline, logger *slog.Logger) *DesktopReceiver {
	return &DesktopReceiver{
		station:  station,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handle processes one inbound relay message. Handshake events and messages
// for other stations are ignored without error.
func (r *DesktopReceiver) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.Station != r.station {
		return nil
	}
	if msg.Event != EventBarcodeScanned {
		return nil
	}

	payload, err := DecodePayload(msg.Value)
	if err != nil {
		r.logger.Warn("Discarding malformed relay message", "error", err.Error())
		return nil
	}

	r.logger.Debug("Relay scan received",
		"station", r.station,
		"barcode", payload.Barcode,
	)
	return r.pipeline.Submit(ctx, scan.NewEvent(payload.Barcode, scan.OriginRemote))
}
