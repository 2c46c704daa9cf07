// Package cleanup runs the periodic cache maintenance loops
package cleanup

import (
	"context"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/manager"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

// Worker drives expired-entry sweeps of the TTL store and expired-insight
// purges on fixed intervals. Each pass is also a plain method so callers
// and tests can run one without waiting for a tick.
type Worker struct {
	cache         *manager.Manager
	logger        *logging.ChanneledLogger
	sweepInterval time.Duration
	purgeInterval time.Duration
}

// NewWorker creates a cleanup worker bound to the given cache manager
func NewWorker(cache *manager.Manager, logger *logging.ChanneledLogger, sweepInterval, purgeInterval time.Duration) *Worker {
	return &Worker{
		cache:         cache,
		logger:        logger,
		sweepInterval: sweepInterval,
		purgeInterval: purgeInterval,
	}
}

// Start runs both maintenance loops until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	sweep := time.NewTicker(w.sweepInterval)
	purge := time.NewTicker(w.purgeInterval)
	defer sweep.Stop()
	defer purge.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"sweepInterval", w.sweepInterval,
		"purgeInterval", w.purgeInterval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopped")
			return
		case <-sweep.C:
			w.SweepCache()
		case <-purge.C:
			w.PurgeInsights()
		}
	}
}

// SweepCache runs one expired-entry sweep of the TTL store
func (w *Worker) SweepCache() int {
	removed := w.cache.SweepExpired()
	if removed > 0 {
		w.logger.Cache().Info("Swept expired cache entries", "removed", removed)
	}
	return removed
}

// PurgeInsights runs one expired-insight purge across all organizations
func (w *Worker) PurgeInsights() int {
	removed := w.cache.PurgeExpired(time.Now())
	if removed > 0 {
		w.logger.Cache().Info("Purged expired insights", "removed", removed)
	}
	return removed
}
