// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/container"
	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/database"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/server"
	"github.com/WorkfieldLabs/workpulse-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Channeled logger
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("WorkPulse analytics core starting", "environment", config.Environment)

	// Step 2: Database connection and schema
	db, err := database.Open(logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.EnsureSchema(logger); err != nil {
		return fmt.Errorf("failed to verify schema: %w", err)
	}

	// Step 3: Dependency injection container
	appContainer := container.NewContainer(logger, db)
	defer appContainer.Shutdown()
	logger.Startup().Info("Dependency injection container created")

	// Step 4: Demo data (only when enabled)
	if config.DemoMode {
		logger.Startup().Info("Demo mode enabled, seeding demo organization")
		if err := appContainer.DemoService.Seed(); err != nil {
			logger.Startup().Error("Demo seeding failed", "error", err.Error())
		}
	}

	// Step 5: Startup cache warming. Failure is non-fatal; views compute
	// lazily on first read.
	if config.DemoMode {
		startWarmTime := time.Now()
		if err := appContainer.ViewService.WarmCache(ctx, services.DemoOrgID); err != nil {
			logger.Startup().Error("Cache warming failed", "error", err.Error(), "duration", time.Since(startWarmTime))
		} else {
			logger.Startup().Info("Cache warming completed", "duration", time.Since(startWarmTime))
		}
	}

	// Step 6: Background workers
	go appContainer.CleanupWorker.Start(ctx)
	go appContainer.Broadcaster.Start(ctx, config.QueueDrainInterval, config.SubscriptionSweep)
	if appContainer.Reporter.Enabled() {
		go appContainer.Reporter.Start(ctx, config.MetricsReportInterval)
	}
	logger.Startup().Info("Background workers started",
		"cacheSweep", config.CacheSweepInterval,
		"insightPurge", config.InsightPurgeInterval,
		"queueDrain", config.QueueDrainInterval,
		"subscriptionSweep", config.SubscriptionSweep)

	// Step 7: HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			gracefulShutdown <- syscall.SIGTERM
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
