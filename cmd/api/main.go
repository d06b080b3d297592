package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/scanpick-service/internal/application"
	"github.com/wms-platform/scanpick-service/internal/relay"
	"github.com/wms-platform/scanpick-service/internal/scan"
	"github.com/wms-platform/scanpick-service/pkg/events"
	"github.com/wms-platform/scanpick-service/pkg/kafka"
	"github.com/wms-platform/scanpick-service/pkg/logging"
	"github.com/wms-platform/scanpick-service/pkg/metrics"
	"github.com/wms-platform/scanpick-service/pkg/middleware"
	"github.com/wms-platform/scanpick-service/pkg/mongodb"
	"github.com/wms-platform/scanpick-service/pkg/temporal"

	mongoRepo "github.com/wms-platform/scanpick-service/internal/infrastructure/mongodb"
)

const serviceName = "scanpick-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting scanpick-service API")

	config := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	kafkaProducer := kafka.NewProducer(config.Kafka)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := events.NewFactory("/scanpick-service")
	publisher := application.NewCloudEventPublisher(kafkaProducer, eventFactory, kafka.Topics.FulfillmentEvents, logger)

	aliasRepo := mongoRepo.NewAliasRepository(mongoClient.Database())
	orderRepo := mongoRepo.NewOrderRepository(mongoClient.Database())
	inventoryRepo := mongoRepo.NewInventoryRepository(mongoClient.Database())

	coordinator := application.NewCompletionCoordinator(orderRepo, inventoryRepo, inventoryRepo, m, logger)
	sessionService := application.NewSessionService(aliasRepo, orderRepo, coordinator, publisher, m, logger)

	// Durable completion is optional: without a Temporal server the API
	// still serves the in-process path.
	temporalClient, err := temporal.NewClient(ctx, config.Temporal)
	if err != nil {
		logger.WithError(err).Warn("Temporal unavailable, durable completion disabled")
	} else {
		defer temporalClient.Close()
		sessionService.WithDurableCompleter(application.NewTemporalCompleter(temporalClient))
		logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort)
	}

	// The remote relay feeds the same pipeline local scans use. The
	// receiver filters this station's broadcasts off the relay topic.
	pipeline := scan.NewPipeline(logger.Logger)
	go pipeline.Run(ctx, sessionService.StationSink(config.StationID))

	receiver := relay.NewDesktopReceiver(config.StationID, pipeline, logger.Logger)
	consumer := kafka.NewConsumer(config.Kafka, logger.Logger)
	consumer.Subscribe(kafka.Topics.ScanRelay, receiver.Handle)
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Relay consumer stopped")
		}
	}()
	logger.Info("Relay receiver started", "station", config.StationID)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.Metrics(m))
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		sessions.POST("", openSessionHandler(sessionService, logger))
		sessions.GET("/:orderId", getSessionHandler(sessionService, logger))
		sessions.POST("/:orderId/scan", submitScanHandler(sessionService, logger))
		sessions.POST("/:orderId/override", overrideLineHandler(sessionService, logger))
		sessions.POST("/:orderId/complete", completeSessionHandler(sessionService, logger))
		sessions.DELETE("/:orderId", cancelSessionHandler(sessionService, logger))

		api.POST("/scans/parse", parsePayloadHandler(sessionService, logger))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
			stop()
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	StationID  string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Temporal   *temporal.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		StationID:  getEnv("STATION_ID", "station-1"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "wms_fulfillment"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
			WriteTimeout:  5 * time.Second,
			MinBytes:      1,
			MaxBytes:      10e6,
			MaxWait:       500 * time.Millisecond,
			CommitTimeout: 5 * time.Second,
		},
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  serviceName,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

func openSessionHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		var req struct {
			OrderID string `json:"orderId" binding:"required"`
			Station string `json:"station"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session, err := service.OpenSession(c.Request.Context(), application.OpenSessionCommand{
			OrderID: req.OrderID,
			Station: req.Station,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

func getSessionHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		session, err := service.GetSession(c.Request.Context(), application.GetSessionQuery{
			OrderID: c.Param("orderId"),
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func submitScanHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		var req struct {
			Barcode string `json:"barcode" binding:"required"`
			Origin  string `json:"origin"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Origin == "" {
			req.Origin = string(scan.OriginManual)
		}

		outcome, err := service.SubmitScan(c.Request.Context(), application.SubmitScanCommand{
			OrderID: c.Param("orderId"),
			Barcode: req.Barcode,
			Origin:  req.Origin,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

func overrideLineHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		var req struct {
			Origin string `json:"origin"`
		}
		// Body is optional for overrides.
		_ = c.ShouldBindJSON(&req)
		if req.Origin == "" {
			req.Origin = string(scan.OriginManual)
		}

		outcome, err := service.OverrideCurrentLine(c.Request.Context(), application.OverrideLineCommand{
			OrderID: c.Param("orderId"),
			Origin:  req.Origin,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

func completeSessionHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		var req struct {
			Durable bool `json:"durable"`
		}
		// Body is optional; the default is the in-process path.
		_ = c.ShouldBindJSON(&req)

		result, err := service.CompleteSession(c.Request.Context(), application.CompleteSessionCommand{
			OrderID: c.Param("orderId"),
			Durable: req.Durable,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		if !result.Completed {
			// Partial failure: committed lines stay committed, the operator
			// sees which line failed and may retry.
			c.JSON(http.StatusConflict, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func cancelSessionHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		err := service.CancelSession(c.Request.Context(), application.CancelSessionCommand{
			OrderID: c.Param("orderId"),
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func parsePayloadHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(logger.Logger)

		var req struct {
			Payload string `json:"payload" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parsed, err := service.ParsePayload(c.Request.Context(), application.ParsePayloadQuery{Raw: req.Payload})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, parsed)
	}
}
