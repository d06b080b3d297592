package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wms-platform/scanpick-service/internal/activities"
	mongoRepo "github.com/wms-platform/scanpick-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/scanpick-service/internal/workflows"
	"github.com/wms-platform/scanpick-service/pkg/mongodb"
	"github.com/wms-platform/scanpick-service/pkg/temporal"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting scanpick-service worker")

	config := loadConfig()

	ctx := context.Background()
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	orderRepo := mongoRepo.NewOrderRepository(mongoClient.Database())
	inventoryRepo := mongoRepo.NewInventoryRepository(mongoClient.Database())

	temporalClient, err := temporal.NewClient(ctx, config.Temporal)
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort)

	completionActivities := activities.NewCompletionActivities(orderRepo, inventoryRepo, inventoryRepo)

	w := temporalClient.NewWorker(temporal.TaskQueues.PickCompletion)

	w.RegisterWorkflow(workflows.PickCompletionWorkflow)
	logger.Info("Registered workflow", "workflow", temporal.WorkflowNames.PickCompletion)

	w.RegisterActivity(completionActivities.CommitLine)
	w.RegisterActivity(completionActivities.AdvanceOrderStatus)
	logger.Info("Registered activities")

	go func() {
		if err := w.Run(nil); err != nil {
			logger.Error("Worker failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.PickCompletion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

// Config holds application configuration
type Config struct {
	MongoDB  *mongodb.Config
	Temporal *temporal.Config
}

func loadConfig() *Config {
	return &Config{
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "wms_fulfillment"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  "scanpick-worker",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
