package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkMonitorTracksProbeResult(t *testing.T) {
	var online atomic.Bool
	monitor := NewLinkMonitor(func(ctx context.Context) error {
		if online.Load() {
			return nil
		}
		return errors.New("offline")
	}, slog.Default())

	assert.False(t, monitor.Connected(), "monitor starts disconnected")
	assert.False(t, monitor.Check(context.Background()))

	online.Store(true)
	assert.True(t, monitor.NotifyOnline(context.Background()))
	assert.True(t, monitor.Connected())

	online.Store(false)
	assert.False(t, monitor.Check(context.Background()))
}

func TestLinkMonitorFiresOnChangeOnTransitionsOnly(t *testing.T) {
	var online atomic.Bool
	online.Store(true)
	monitor := NewLinkMonitor(func(ctx context.Context) error {
		if online.Load() {
			return nil
		}
		return errors.New("offline")
	}, slog.Default())

	var transitions []bool
	monitor.OnChange(func(connected bool) {
		transitions = append(transitions, connected)
	})

	monitor.Check(context.Background())
	monitor.Check(context.Background())
	online.Store(false)
	monitor.Check(context.Background())
	monitor.Check(context.Background())

	assert.Equal(t, []bool{true, false}, transitions)
}

func TestLinkMonitorSingleProbeInFlight(t *testing.T) {
	probeStarted := make(chan struct{})
	release := make(chan struct{})
	var probeCount atomic.Int32

	monitor := NewLinkMonitor(func(ctx context.Context) error {
		probeCount.Add(1)
		close(probeStarted)
		<-release
		return nil
	}, slog.Default())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Check(context.Background())
	}()

	<-probeStarted
	// A second check while the probe is in flight returns without probing.
	assert.False(t, monitor.Check(context.Background()))
	assert.Equal(t, int32(1), probeCount.Load())

	close(release)
	wg.Wait()
	assert.True(t, monitor.Connected())
}

func TestLinkMonitorMarkDisconnected(t *testing.T) {
	monitor := NewLinkMonitor(func(ctx context.Context) error {
		return nil
	}, slog.Default())
	monitor.Check(context.Background())
	assert.True(t, monitor.Connected())

	monitor.MarkDisconnected()
	assert.False(t, monitor.Connected())
}
