// Package messaging provides the organization-scoped realtime update
// broadcaster backing the live dashboard.
package messaging

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/oklog/ulid/v2"
)

// subscriptionBuffer is the per-subscription channel capacity. A subscriber
// that falls this far behind is dropped rather than throttling the drain.
const subscriptionBuffer = 16

// rolePermissions is the static role to update-type visibility table.
// Admin and HR leads see everything; managers lose raw interaction events;
// viewers only see aggregate health movement.
var rolePermissions = map[behavior.Role]map[behavior.UpdateType]bool{
	behavior.RoleAdmin: {
		behavior.UpdatePatternChange:     true,
		behavior.UpdateIntervention:      true,
		behavior.UpdateNewInteraction:    true,
		behavior.UpdateHealthScoreChange: true,
		behavior.UpdateInitialSnapshot:   true,
	},
	behavior.RoleHRLead: {
		behavior.UpdatePatternChange:     true,
		behavior.UpdateIntervention:      true,
		behavior.UpdateNewInteraction:    true,
		behavior.UpdateHealthScoreChange: true,
		behavior.UpdateInitialSnapshot:   true,
	},
	behavior.RoleManager: {
		behavior.UpdatePatternChange:     true,
		behavior.UpdateIntervention:      true,
		behavior.UpdateHealthScoreChange: true,
		behavior.UpdateInitialSnapshot:   true,
	},
	behavior.RoleViewer: {
		behavior.UpdateHealthScoreChange: true,
		behavior.UpdateInitialSnapshot:   true,
	},
}

// RoleCanReceive reports whether the static permission table lets a role
// see a given update type
func RoleCanReceive(role behavior.Role, updateType behavior.UpdateType) bool {
	perms, exists := rolePermissions[role]
	if !exists {
		return false
	}
	return perms[updateType]
}

// CacheInvalidator is the slice of the cache manager the broadcaster needs
// to invalidate stale views when updates flow through.
type CacheInvalidator interface {
	Invalidate(pattern string) int
	InvalidateOrg(orgID string) int
}

// Broadcaster fans analytics updates out to live subscriptions. Updates are
// queued FIFO and drained on a recurring tick; a boolean single-flight flag
// skips a tick when the previous drain is still running.
type Broadcaster struct {
	subscriptions map[string]*behavior.Subscription
	queue         []behavior.AnalyticsUpdate
	draining      bool
	idleLimit     time.Duration
	cache         CacheInvalidator
	logger        *logging.ChanneledLogger
	entropy       *ulid.MonotonicEntropy
	mu            sync.Mutex
	now           func() time.Time
}

// NewBroadcaster creates a broadcaster bound to the given cache invalidator
func NewBroadcaster(cache CacheInvalidator, idleLimit time.Duration, logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		subscriptions: make(map[string]*behavior.Subscription),
		idleLimit:     idleLimit,
		cache:         cache,
		logger:        logger,
		entropy:       ulid.Monotonic(rand.Reader, 0),
		now:           time.Now,
	}
}

// WithClock overrides the broadcaster's clock for deterministic tests
func (b *Broadcaster) WithClock(now func() time.Time) *Broadcaster {
	b.now = now
	return b
}

// Subscribe registers a new subscription and immediately delivers a
// synthetic initial snapshot so the client can render without waiting for
// the first organic update.
func (b *Broadcaster) Subscribe(orgID, userID string, role behavior.Role, filters []behavior.UpdateType) *behavior.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	sub := &behavior.Subscription{
		ID:       orgID + ":" + userID + ":" + ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		OrgID:    orgID,
		UserID:   userID,
		Role:     role,
		Filters:  filters,
		Channel:  make(chan behavior.AnalyticsUpdate, subscriptionBuffer),
		LastPing: now,
	}
	b.subscriptions[sub.ID] = sub

	snapshot := behavior.AnalyticsUpdate{
		Type:      behavior.UpdateInitialSnapshot,
		OrgID:     orgID,
		Data:      behavior.SnapshotData{SubscriptionID: sub.ID, ServerTime: now},
		Timestamp: now,
	}
	// Buffer is empty at this point so the send cannot block
	sub.Channel <- snapshot

	b.logger.Realtime().Info("Subscription registered",
		"subscriptionId", sub.ID,
		"orgId", orgID,
		"userId", userID,
		"role", string(role))
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broadcaster) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeUnsafe(subscriptionID, "client disconnect")
}

// removeUnsafe drops a subscription and closes its channel.
// INTERNAL USE ONLY: assumes caller already holds b.mu
func (b *Broadcaster) removeUnsafe(subscriptionID, reason string) {
	sub, exists := b.subscriptions[subscriptionID]
	if !exists {
		return
	}
	delete(b.subscriptions, subscriptionID)
	close(sub.Channel)
	b.logger.Realtime().Info("Subscription removed",
		"subscriptionId", subscriptionID,
		"reason", reason)
}

// Ping records subscriber liveness
func (b *Broadcaster) Ping(subscriptionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subscriptionID]
	if !exists {
		return false
	}
	sub.LastPing = b.now()
	return true
}

// SetFilters replaces a subscription's type filters. Filter changes only
// happen through here so drains never observe a torn slice; the change
// also counts as liveness.
func (b *Broadcaster) SetFilters(subscriptionID string, filters []behavior.UpdateType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subscriptionID]
	if !exists {
		return false
	}
	sub.Filters = filters
	sub.LastPing = b.now()
	return true
}

// BroadcastUpdate enqueues an update for the next drain and invalidates
// the cache keys the update makes stale. Invalidation happens at enqueue
// time so reads between now and the drain already recompute.
func (b *Broadcaster) BroadcastUpdate(update behavior.AnalyticsUpdate) {
	if update.Timestamp.IsZero() {
		update.Timestamp = b.now()
	}

	b.invalidateFor(update)

	b.mu.Lock()
	b.queue = append(b.queue, update)
	b.mu.Unlock()
}

// invalidateFor maps an update type to the cache namespace it staled
func (b *Broadcaster) invalidateFor(update behavior.AnalyticsUpdate) {
	if b.cache == nil {
		return
	}

	var removed int
	switch update.Type {
	case behavior.UpdateHealthScoreChange:
		removed = b.cache.Invalidate("org:" + update.OrgID + ":health:*")
	case behavior.UpdatePatternChange:
		removed = b.cache.Invalidate("org:" + update.OrgID + ":patterns:*")
	case behavior.UpdateIntervention:
		removed = b.cache.Invalidate("org:" + update.OrgID + ":roi:*")
	case behavior.UpdateNewInteraction:
		removed = b.cache.InvalidateOrg(update.OrgID)
	}

	if removed > 0 {
		b.logger.Realtime().Debug("Cache invalidated for update",
			"type", string(update.Type),
			"orgId", update.OrgID,
			"removed", removed)
	}
}

// DrainQueue delivers every queued update and returns how many were
// drained. If a drain is already in progress the call returns immediately;
// the skipped updates wait for the next tick. FIFO order holds within a
// single drain only.
func (b *Broadcaster) DrainQueue() int {
	b.mu.Lock()
	if b.draining || len(b.queue) == 0 {
		b.mu.Unlock()
		return 0
	}
	b.draining = true
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, update := range pending {
		b.fanOut(update)
	}

	b.mu.Lock()
	b.draining = false
	b.mu.Unlock()
	return len(pending)
}

// fanOut delivers one update to every matching subscription. A subscriber
// whose channel is full is removed rather than retried.
func (b *Broadcaster) fanOut(update behavior.AnalyticsUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscriptions {
		if sub.OrgID != update.OrgID {
			continue
		}
		if !RoleCanReceive(sub.Role, update.Type) {
			continue
		}
		if !sub.WantsType(update.Type) {
			continue
		}

		delivery := update
		if !sub.Role.CanSeeSensitive() {
			delivery = update.Redacted()
		}

		select {
		case sub.Channel <- delivery:
		default:
			b.removeUnsafe(id, "delivery failure")
		}
	}
}

// SweepIdle removes subscriptions whose last ping is older than the idle
// limit and returns how many were removed
func (b *Broadcaster) SweepIdle() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.idleLimit)
	var removed int
	for id, sub := range b.subscriptions {
		if sub.LastPing.Before(cutoff) {
			b.removeUnsafe(id, "idle timeout")
			removed++
		}
	}
	return removed
}

// SubscriberCount returns the number of live subscriptions
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscriptions)
}

// QueueLength returns the number of updates awaiting the next drain
func (b *Broadcaster) QueueLength() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Start runs the drain and idle-sweep loops until ctx is cancelled
func (b *Broadcaster) Start(ctx context.Context, drainInterval, sweepInterval time.Duration) {
	drain := time.NewTicker(drainInterval)
	sweep := time.NewTicker(sweepInterval)
	defer drain.Stop()
	defer sweep.Stop()

	b.logger.Realtime().Info("Broadcaster started",
		"drainInterval", drainInterval,
		"sweepInterval", sweepInterval)

	for {
		select {
		case <-ctx.Done():
			b.logger.Realtime().Info("Broadcaster stopped")
			return
		case <-drain.C:
			b.DrainQueue()
		case <-sweep.C:
			b.SweepIdle()
		}
	}
}
