package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/huynhq/edustore-be/internal/config"
	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/events"
	"github.com/huynhq/edustore-be/internal/queue"
	"github.com/huynhq/edustore-be/internal/worker"
	"github.com/huynhq/edustore-be/shared/logger"
	"github.com/huynhq/edustore-be/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize RabbitMQ client and queue registry
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	registry, err := queue.NewRegistry(rabbitClient, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize queue registry: %w", err)
	}

	// Shared event stream: every pool reports terminal outcomes here and the
	// observer logs them.
	eventStream := make(chan events.Event, 64)
	observer := events.NewObserver(appLogger.Logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var observerWg sync.WaitGroup
	observerWg.Add(1)
	go func() {
		defer observerWg.Done()
		observer.Run(ctx, eventStream)
	}()

	// One pool per delivery queue
	errChan := make(chan error, len(queue.Names()))
	var poolWg sync.WaitGroup
	for _, queueName := range queue.Names() {
		pool := worker.NewPool(registry, &worker.Config{
			QueueName:     queueName,
			Sender:        delivery.NewLogSender(queueName, appLogger.Logger),
			Limit:         rateLimit(&cfg.Worker, queueName),
			PrefetchCount: cfg.Worker.PrefetchCount,
			Events:        eventStream,
			Logger:        appLogger.Logger,
		})

		poolWg.Add(1)
		go func() {
			defer poolWg.Done()
			if err := pool.Start(ctx); err != nil {
				errChan <- err
			}
		}()
	}

	appLogger.Info("Worker service started successfully",
		slog.Any("queues", queue.Names()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		cancel()
		poolWg.Wait()
		observerWg.Wait()
		registry.Close()
		return err
	}

	// Cancel context to stop the pools
	cancel()

	// Give pools time to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		poolWg.Wait()
		observerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker pools stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	registry.Close()

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		User:              cfg.User,
		Password:          cfg.Password,
		VHost:             cfg.VHost,
		RetryAttempts:     cfg.Connection.RetryAttempts,
		RetryInterval:     cfg.Connection.RetryInterval,
		Heartbeat:         cfg.Connection.Heartbeat,
		ConnectionTimeout: cfg.Connection.ConnectionTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// rateLimit maps the configured limit for one queue into the pool's shape
func rateLimit(cfg *config.WorkerConfig, queueName string) worker.RateLimit {
	limit := cfg.RateLimitFor(queueName)
	return worker.RateLimit{
		MaxJobs: limit.MaxJobs,
		Window:  limit.Window,
	}
}
