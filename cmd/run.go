package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hashguess/api"
	"hashguess/config"
	"hashguess/database"
	"hashguess/events"
	"hashguess/messaging"
	"hashguess/metrics"
	"hashguess/repository"
	"hashguess/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the ledger service
func Run(ctx context.Context) error {
	log.Info("Starting hashguess ledger...")

	// Load configuration
	cfg := config.Get()
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus
	eventBus := events.NewBus()
	metrics.RegisterEventHandlers(eventBus)

	// Optional Kafka publishing of committed ledger events
	var publisher *messaging.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher.Subscribe(eventBus)
		log.WithField("topic", cfg.KafkaTopic).Info("Kafka publisher attached")
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus, cfg.LockTimeout)

	// Initialize services
	accountService := service.NewAccountService(uowFactory)
	blockService := service.NewBlockService(uowFactory)
	betService := service.NewBetService(uowFactory)
	resolutionService := service.NewResolutionService(uowFactory)
	log.Info("Ledger services initialized")

	// Background settlement of bets on closed blocks
	stopWorker := service.StartResolutionWorker(ctx, resolutionService, cfg.ResolveInterval)

	// Ledger HTTP API
	apiServer := &http.Server{
		Addr:    ":" + cfg.ListenPort,
		Handler: api.NewServer(accountService, blockService, betService, resolutionService).Router(),
	}
	go func() {
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("API server failed")
		}
	}()
	log.WithField("port", cfg.ListenPort).Info("API server listening")

	// Metrics and health endpoint
	metricsServer := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server listening")

	// Wait for context cancellation
	log.WithField("environment", cfg.Environment).Info("Ledger is running")
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down API server")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics server")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Error closing Kafka publisher")
		}
	}

	db.Close()
	log.Info("Shutdown completed")

	return nil
}
