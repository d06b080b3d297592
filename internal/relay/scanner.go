package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/wms-platform/scanpick-service/pkg/metrics"
)

// Broadcaster sends one relay event to the station topic
type Broadcaster interface {
	Broadcast(ctx context.Context, station, eventName string, payload Payload) error
}

// BroadcasterFunc adapts a function to the Broadcaster interface
type BroadcasterFunc func(ctx context.Context, station, eventName string, payload Payload) error

// Broadcast calls the wrapped function
func (f BroadcasterFunc) Broadcast(ctx context.Context, station, eventName string, payload Payload) error {
	return f(ctx, station, eventName, payload)
}

// ScannerEndpoint is the handheld side of the relay link. It captures
// barcodes, broadcasts them best-effort, and keeps everything unsent queued
// until an explicit resend or clear.
type ScannerEndpoint struct {
	station     string
	queue       *OutboundQueue
	broadcaster Broadcaster
	monitor     *LinkMonitor
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewScannerEndpoint creates the scanner endpoint for one station
func NewScannerEndpoint(
	station string,
	queue *OutboundQueue,
	broadcaster Broadcaster,
	monitor *LinkMonitor,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ScannerEndpoint {
	return &ScannerEndpoint{
		station:     station,
		queue:       queue,
		broadcaster: broadcaster,
		monitor:     monitor,
		metrics:     m,
		logger:      logger,
	}
}

// Capture records a scanned barcode and attempts to broadcast it. The scan
// enters the queue before any send attempt, so a transport failure can never
// lose it.
func (s *ScannerEndpoint) Capture(ctx context.Context, barcode string) {
	capturedAt := time.Now().UTC()
	id := s.queue.Add(barcode, capturedAt)
	s.metrics.RelayQueued.Set(float64(s.queue.PendingCount()))

	if !s.monitor.Connected() {
		s.logger.Info("Scan captured offline, queued", "barcode", barcode)
		return
	}

	s.send(ctx, id, barcode, capturedAt, false)
}

// ResendQueued re-broadcasts every unsent entry in capture order, stopping
// at the first failure. It is triggered by the operator or by the link
// coming back up, never by the transport replaying history.
func (s *ScannerEndpoint) ResendQueued(ctx context.Context) int {
	resent := 0
	for _, entry := range s.queue.Pending() {
		if !s.send(ctx, entry.ID, entry.Barcode, entry.CapturedAt, true) {
			break
		}
		resent++
	}
	return resent
}

// AutoResend re-broadcasts the queue whenever the link transitions to
// connected. Register before the monitor starts probing.
func (s *ScannerEndpoint) AutoResend(ctx context.Context) {
	s.monitor.OnChange(func(connected bool) {
		if connected {
			s.ResendQueued(ctx)
		}
	})
}

// ClearHistory discards the queue on explicit operator action
func (s *ScannerEndpoint) ClearHistory() {
	s.queue.Clear()
	s.metrics.RelayQueued.Set(0)
}

func (s *ScannerEndpoint) send(ctx context.Context, id, barcode string, capturedAt time.Time, resend bool) bool {
	payload := NewPayload(barcode, capturedAt)
	if err := s.broadcaster.Broadcast(ctx, s.station, EventBarcodeScanned, payload); err != nil {
		s.logger.Warn("Relay broadcast failed, scan stays queued",
			"barcode", barcode,
			"error", err.Error(),
		)
		s.monitor.MarkDisconnected()
		return false
	}

	s.queue.MarkSent(id)
	s.metrics.RelayPublished.Inc()
	if resend {
		s.metrics.RelayResent.Inc()
	}
	s.metrics.RelayQueued.Set(float64(s.queue.PendingCount()))
	return true
}
