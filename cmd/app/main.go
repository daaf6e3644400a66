package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"trekbook/internal/booking"
	"trekbook/internal/config"
	"trekbook/internal/db"
	"trekbook/internal/events"
	"trekbook/internal/inventory"
	"trekbook/internal/logger"
	"trekbook/internal/notify"
	"trekbook/internal/server"
)

// @title Trekbook API
// @version 1.0
// @description Booking transaction engine for scheduled trek batches.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	defer logger.Sync()
	logger.Info("Starting Trekbook application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	queueClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	eventClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer eventClient.Close()

	bookingRepo := booking.NewRepository(database)
	batchRepo := inventory.NewRepository(database)

	notifier := notify.New(queueClient, notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
	}), bookingRepo)
	defer notifier.Close()

	publisher, err := events.NewPublisher(events.Options{
		Backend:      cfg.EventBackend,
		RedisClient:  eventClient,
		RedisChannel: cfg.EventChannel,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	})
	if err != nil {
		logger.Fatalf("Failed to create event publisher: %v", err)
	}
	logger.Info("Event publisher initialized", "backend", cfg.EventBackend)

	svc := booking.NewService(
		booking.NewTxManager(database),
		bookingRepo,
		notifier,
		publisher,
		booking.WithReferenceAttempts(cfg.BookingReferenceAttempts),
		booking.WithNotifyTimeout(cfg.NotifyTimeout),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	srv := server.New(cfg, server.Handlers{
		Bookings: booking.NewHandler(svc, batchRepo),
		Batches:  inventory.NewHandler(batchRepo),
		Queue:    notifier,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	// In-flight notifications still need the queue and the publisher.
	svc.Wait()
	cancel()

	if err := publisher.Close(); err != nil {
		logger.Errorf("Error closing event publisher: %v", err)
	}

	logger.Info("Server stopped")
}
