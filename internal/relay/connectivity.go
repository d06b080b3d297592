package relay

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Probe checks whether the relay transport is reachable
type Probe func(ctx context.Context) error

// DialProbe probes a broker address with a plain TCP dial
func DialProbe(address string, timeout time.Duration) Probe {
	return func(ctx context.Context) error {
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// LinkMonitor tracks relay connectivity. State is re-evaluated on explicit
// Check calls and on NotifyOnline, with at most one probe in flight at a
// time.
type LinkMonitor struct {
	probe    Probe
	logger   *slog.Logger
	onChange func(connected bool)

	mu        sync.Mutex
	connected bool
	probing   bool
}

// NewLinkMonitor creates a monitor that starts disconnected
func NewLinkMonitor(probe Probe, logger *slog.Logger) *LinkMonitor {
	return &LinkMonitor{
		probe:  probe,
		logger: logger,
	}
}

// OnChange registers a callback fired whenever the connected state flips.
// Must be called before the monitor is shared across goroutines.
func (m *LinkMonitor) OnChange(fn func(connected bool)) {
	m.onChange = fn
}

// Connected reports the last observed state
func (m *LinkMonitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Check runs the probe and updates the state. When a probe is already in
// flight the call returns the current state without starting another.
func (m *LinkMonitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	if m.probing {
		connected := m.connected
		m.mu.Unlock()
		return connected
	}
	m.probing = true
	m.mu.Unlock()

	err := m.probe(ctx)

	m.mu.Lock()
	m.probing = false
	previous := m.connected
	m.connected = err == nil
	changed := m.connected != previous
	connected := m.connected
	onChange := m.onChange
	m.mu.Unlock()

	if changed {
		m.logger.Info("Relay link state changed", "connected", connected)
		if onChange != nil {
			onChange(connected)
		}
	}
	return connected
}

// NotifyOnline signals a network-availability change and triggers a
// re-check. Safe to call from any goroutine.
func (m *LinkMonitor) NotifyOnline(ctx context.Context) bool {
	return m.Check(ctx)
}

// MarkDisconnected records a failed send without waiting for the next probe
func (m *LinkMonitor) MarkDisconnected() {
	m.mu.Lock()
	previous := m.connected
	m.connected = false
	onChange := m.onChange
	m.mu.Unlock()

	if previous {
		m.logger.Info("Relay link state changed", "connected", false)
		if onChange != nil {
			onChange(false)
		}
	}
}
