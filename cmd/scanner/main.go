package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/scanpick-service/internal/relay"
	"github.com/wms-platform/scanpick-service/internal/scan"
	"github.com/wms-platform/scanpick-service/pkg/kafka"
	"github.com/wms-platform/scanpick-service/pkg/logging"
	"github.com/wms-platform/scanpick-service/pkg/metrics"
	"github.com/wms-platform/scanpick-service/pkg/resilience"
)

const serviceName = "scanpick-scanner"

// Config is the scanner agent's file configuration. The agent runs on a
// handheld device, so configuration lives in a file, not the environment.
type Config struct {
	Station string   `yaml:"station"`
	Brokers []string `yaml:"brokers"`

	Probe struct {
		Address  string        `yaml:"address"`
		Timeout  time.Duration `yaml:"timeout"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"probe"`

	// Camera enables the camera decode stream when a device path is set.
	// The device is a line-oriented stream of decoded symbols, such as a
	// FIFO fed by an external decoder process.
	Camera struct {
		Device   string        `yaml:"device"`
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"camera"`

	FocusInterval time.Duration `yaml:"focusInterval"`
}

func defaultConfig() *Config {
	cfg := &Config{
		Station: "station-1",
		Brokers: []string{"localhost:9092"},
	}
	cfg.Probe.Address = "localhost:9092"
	cfg.Probe.Timeout = 3 * time.Second
	cfg.Probe.Interval = 10 * time.Second
	cfg.Camera.Debounce = 1500 * time.Millisecond
	cfg.FocusInterval = 500 * time.Millisecond
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to scanner config file")
	flag.Parse()

	logConfig := logging.DefaultConfig(serviceName)
	logger := logging.New(logConfig)
	logger.SetDefault()

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load config")
		os.Exit(1)
	}

	logger.Info("Starting scanner agent", "station", config.Station, "brokers", config.Brokers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = config.Brokers
	kafkaConfig.ClientID = serviceName + "-" + config.Station
	producer := kafka.NewProducer(kafkaConfig)
	defer producer.Close()

	// The breaker sits around broadcast attempts: after a few consecutive
	// failures the link reads as disconnected and scans queue without a
	// network round trip per capture.
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("relay-broadcast"),
		logger.Logger,
	)
	broadcaster := relay.BroadcasterFunc(func(ctx context.Context, station, eventName string, payload relay.Payload) error {
		return breaker.Execute(func() error {
			return producer.PublishRelay(ctx, kafka.Topics.ScanRelay, station, eventName, payload)
		})
	})

	monitor := relay.NewLinkMonitor(relay.DialProbe(config.Probe.Address, config.Probe.Timeout), logger.Logger)
	queue := relay.NewOutboundQueue()
	endpoint := relay.NewScannerEndpoint(config.Station, queue, broadcaster, monitor, m, logger.Logger)

	// Queued scans go back out automatically when the link returns.
	endpoint.AutoResend(ctx)
	monitor.Check(ctx)

	go probeLoop(ctx, monitor, config.Probe.Interval)

	// The handheld's scanner acts as a keyboard on stdin: every line is one
	// captured barcode, broadcast best-effort through the endpoint.
	pipeline := scan.NewPipeline(logger.Logger)
	go pipeline.Run(ctx, scan.SinkFunc(func(ctx context.Context, event scan.Event) error {
		endpoint.Capture(ctx, event.Barcode)
		return nil
	}))

	adapter := scan.NewManualAdapter(pipeline, nil, scan.ManualAdapterConfig{
		FocusInterval: config.FocusInterval,
	}, logger.Logger)

	go func() {
		if err := adapter.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Scan input closed")
			stop()
		}
	}()

	// The camera stream is optional. A device failure disables only this
	// adapter; the handheld keeps capturing over stdin.
	if config.Camera.Device != "" {
		stream, err := os.Open(config.Camera.Device)
		if err != nil {
			logger.WithError(err).Warn("Camera device unavailable, camera adapter disabled",
				"device", config.Camera.Device,
			)
		} else {
			camera := scan.NewCameraAdapter(pipeline, scan.NewStreamDecoder(stream), scan.CameraAdapterConfig{
				DebounceWindow: config.Camera.Debounce,
			}, logger.Logger)
			go func() {
				if err := camera.Run(ctx); err != nil && ctx.Err() == nil {
					logger.WithError(err).Warn("Camera decode stream closed")
				}
			}()
			logger.Info("Camera adapter started", "device", config.Camera.Device)
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down scanner agent",
		"pendingScans", queue.PendingCount(),
	)
}

// probeLoop re-evaluates connectivity on a fixed interval, standing in for
// the device's network-availability notifications.
func probeLoop(ctx context.Context, monitor *relay.LinkMonitor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			monitor.NotifyOnline(ctx)
		}
	}
}
