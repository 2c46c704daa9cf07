package handlers

import (
	"net/http"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/container"
	"github.com/gin-gonic/gin"
)

// MonitorHandlers exposes the operational surface: performance stats,
// cache counters, breaker state, and cache administration.
type MonitorHandlers struct {
	container *container.Container
	startedAt time.Time
}

// NewMonitorHandlers creates the monitoring handlers
func NewMonitorHandlers(c *container.Container) *MonitorHandlers {
	return &MonitorHandlers{container: c, startedAt: time.Now()}
}

// Health handles GET /health
func (h *MonitorHandlers) Health(c *gin.Context) {
	status := "ok"
	if err := h.container.DB.Ping(); err != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"uptime":  time.Since(h.startedAt).String(),
		"breaker": h.container.Breaker.State().String(),
	})
}

// GetPerformanceStats handles GET /api/v1/monitor/performance. An optional
// ?operation= narrows the response to one operation.
func (h *MonitorHandlers) GetPerformanceStats(c *gin.Context) {
	if operation := c.Query("operation"); operation != "" {
		c.JSON(http.StatusOK, h.container.Tracker.GetStats(operation))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"buffered":   h.container.Tracker.BufferedCount(),
		"operations": h.container.Tracker.GetAllStats(),
	})
}

// GetCacheStats handles GET /api/v1/monitor/cache
func (h *MonitorHandlers) GetCacheStats(c *gin.Context) {
	stats := h.container.CacheManager.Stats()
	c.JSON(http.StatusOK, gin.H{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
		"size":      stats.Size,
		"hitRate":   stats.HitRate(),
	})
}

// GetRealtimeStats handles GET /api/v1/monitor/realtime
func (h *MonitorHandlers) GetRealtimeStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"subscribers": h.container.Broadcaster.SubscriberCount(),
		"queued":      h.container.Broadcaster.QueueLength(),
	})
}

// GetRecentAlerts handles GET /api/v1/monitor/alerts
func (h *MonitorHandlers) GetRecentAlerts(c *gin.Context) {
	alerts := h.container.Notifier.Recent()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// GetBreakerState handles GET /api/v1/monitor/breaker
func (h *MonitorHandlers) GetBreakerState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":    h.container.Breaker.State().String(),
		"failures": h.container.Breaker.Failures(),
	})
}

// ResetBreaker handles POST /api/v1/admin/breaker/reset
func (h *MonitorHandlers) ResetBreaker(c *gin.Context) {
	h.container.Breaker.Reset()
	c.JSON(http.StatusOK, gin.H{"state": h.container.Breaker.State().String()})
}

type invalidateRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// InvalidateCache handles POST /api/v1/admin/cache/invalidate
func (h *MonitorHandlers) InvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
		return
	}
	removed := h.container.CacheManager.Invalidate(req.Pattern)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ClearCache handles POST /api/v1/admin/cache/clear
func (h *MonitorHandlers) ClearCache(c *gin.Context) {
	h.container.CacheManager.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// SweepCache handles POST /api/v1/admin/cache/sweep, forcing one expiry
// sweep outside the usual tick
func (h *MonitorHandlers) SweepCache(c *gin.Context) {
	removed := h.container.CleanupWorker.SweepCache()
	purged := h.container.CleanupWorker.PurgeInsights()
	c.JSON(http.StatusOK, gin.H{"sweptEntries": removed, "purgedInsights": purged})
}
