// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/cleanup"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/manager"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/messaging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/alerts"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/performance"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/database"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/kv"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/resilience"
	"github.com/WorkfieldLabs/workpulse-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies.
// Everything is constructed here exactly once and injected; no package
// carries ambient global state.
type Container struct {
	// Infrastructure
	Logger        *logging.ChanneledLogger
	DB            *database.DB
	CacheManager  *manager.Manager
	CleanupWorker *cleanup.Worker
	Breaker       *resilience.CircuitBreaker
	Tracker       *performance.Tracker
	Reporter      *performance.Reporter
	Notifier      *alerts.Notifier
	Broadcaster   *messaging.Broadcaster
	Repository    *behavior.SQLRepository

	// Application services
	ViewService    *services.ViewService
	InsightService *services.InsightService
	AuthService    *services.AuthService
	DemoService    *services.DemoService
}

// NewContainer creates and wires all singleton services from configuration
func NewContainer(logger *logging.ChanneledLogger, db *database.DB) *Container {
	var backend interfaces.Backend
	if config.CacheDBURL != "" {
		// The persistent cache is its own sqlite file so clearing it never
		// touches behavior data. Open failure degrades to memory-only.
		cacheDB, err := database.NewConnectionWithLogger("sqlite3", config.CacheDBURL, logger)
		if err != nil {
			logger.Cache().Warn("Cache backend unavailable, running memory-only", "error", err.Error())
		} else {
			store := kv.NewStore(cacheDB)
			if err := store.EnsureTable(); err != nil {
				logger.Cache().Warn("Cache backend schema failed, running memory-only", "error", err.Error())
				cacheDB.Close()
			} else {
				backend = store
			}
		}
	}

	cacheManager := manager.New(config.CacheCapacity, config.DefaultCacheTTL, backend, logger)
	notifier := alerts.NewNotifier(
		config.AlertWebhookURL,
		config.AlertEmail,
		config.ResendAPIKey,
		config.Environment,
		logger,
	)
	tracker := performance.NewTracker(&performance.TrackerConfig{
		BufferSize:       config.MetricBufferSize,
		DefaultThreshold: performance.DefaultTrackerConfig().DefaultThreshold,
		Thresholds:       performance.DefaultTrackerConfig().Thresholds,
	}, notifier, logger)
	reporter := performance.NewReporter(config.MetricsEndpoint, config.Environment, tracker, logger)
	breaker := resilience.NewCircuitBreaker("behavior-db",
		resilience.WithFailureThreshold(config.BreakerFailureThreshold),
		resilience.WithResetTimeout(config.BreakerResetTimeout),
		resilience.WithLogger(logger.Database()),
		resilience.WithOpenHook(notifier.CircuitOpened),
	)
	broadcaster := messaging.NewBroadcaster(cacheManager, config.SubscriptionIdleLimit, logger)
	repo := behavior.NewSQLRepository(db, logger)

	return &Container{
		Logger:        logger,
		DB:            db,
		CacheManager:  cacheManager,
		CleanupWorker: cleanup.NewWorker(cacheManager, logger, config.CacheSweepInterval, config.InsightPurgeInterval),
		Breaker:       breaker,
		Tracker:       tracker,
		Reporter:      reporter,
		Notifier:      notifier,
		Broadcaster:   broadcaster,
		Repository:    repo,

		ViewService:    services.NewViewService(repo, cacheManager, breaker, tracker, logger),
		InsightService: services.NewInsightService(repo, insights.NewEngine(), cacheManager, breaker, tracker, logger),
		AuthService:    services.NewAuthService(config.JWTSecret, config.AdminPasswordHash, logger),
		DemoService:    services.NewDemoService(repo, logger),
	}
}

// Shutdown releases held resources
func (c *Container) Shutdown() {
	if c.CacheManager != nil {
		if err := c.CacheManager.Close(); err != nil {
			c.Logger.Shutdown().Warn("Cache backend close failed", "error", err.Error())
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Shutdown().Warn("Database close failed", "error", err.Error())
		}
	}
}
