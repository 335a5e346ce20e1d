package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gymtrack/internal/audit"
	"gymtrack/internal/config"
	"gymtrack/internal/db"
	"gymtrack/internal/logger"
	"gymtrack/internal/membership"
	"gymtrack/internal/payment"
	"gymtrack/internal/plan"
	"gymtrack/internal/server"
)

// runStatusSweep re-persists cached membership statuses once at boot
// and then daily, so listings stay correct even if no request touches
// a membership around its end date.
func runStatusSweep(ctx context.Context, memberships membership.Service) {
	sweep := func() {
		n, err := memberships.RefreshStatuses(ctx, time.Now())
		if err != nil {
			logger.Errorf("Status sweep failed: %v", err)
			return
		}
		if n > 0 {
			logger.Infof("Status sweep updated %d membership(s)", n)
		}
	}

	sweep()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func main() {
	logger.Init()
	logger.Info("Starting GymTrack application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	auditSink := audit.New(cfg.RedisAddr, audit.NewRepository(database))
	defer auditSink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go auditSink.Start(ctx)
	logger.Info("Audit sink initialized")

	membershipService := membership.NewService(
		membership.NewRepository(database),
		plan.NewRepository(database),
		payment.NewRepository(database),
		auditSink,
	)
	go runStatusSweep(ctx, membershipService)

	srv := server.New(database, redisClient, cfg, auditSink)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
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

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
