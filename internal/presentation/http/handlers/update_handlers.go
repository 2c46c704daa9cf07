package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/messaging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens in the CORS layer for the REST surface;
	// the websocket endpoint is token-gated instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PatternWriter persists the severity changes carried by pattern updates
type PatternWriter interface {
	UpdatePatternSeverity(patternID string, severity float64, at time.Time) error
}

// UpdateHandlers ingests analytics updates and serves the live stream
type UpdateHandlers struct {
	broadcaster *messaging.Broadcaster
	patterns    PatternWriter
	logger      *logging.ChanneledLogger
}

// NewUpdateHandlers creates the update handlers
func NewUpdateHandlers(broadcaster *messaging.Broadcaster, patterns PatternWriter, logger *logging.ChanneledLogger) *UpdateHandlers {
	return &UpdateHandlers{broadcaster: broadcaster, patterns: patterns, logger: logger}
}

type publishRequest struct {
	Type          behavior.UpdateType `json:"type" binding:"required"`
	Data          json.RawMessage     `json:"data" binding:"required"`
	AffectedUsers []string            `json:"affectedUsers,omitempty"`
	Metadata      map[string]any      `json:"metadata,omitempty"`
}

// PublishUpdate handles POST /api/v1/orgs/:orgId/updates. The update is
// queued for the next drain; cache invalidation happens immediately.
func (h *UpdateHandlers) PublishUpdate(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and data are required"})
		return
	}

	data, err := behavior.DecodeUpdateData(req.Type, req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Pattern changes are durable, not just ephemeral stream traffic: the
	// new severity lands in storage before subscribers hear about it.
	if change, ok := data.(behavior.PatternChangeData); ok {
		if err := h.patterns.UpdatePatternSeverity(change.PatternID, change.NewSeverity, time.Now()); err != nil {
			h.logger.Database().Error("Pattern severity update failed",
				"orgId", orgID, "patternId", change.PatternID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist pattern change"})
			return
		}
	}

	h.broadcaster.BroadcastUpdate(behavior.AnalyticsUpdate{
		Type:          req.Type,
		OrgID:         orgID,
		Data:          data,
		Timestamp:     time.Now(),
		AffectedUsers: req.AffectedUsers,
		Metadata:      req.Metadata,
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// Stream handles GET /api/v1/orgs/:orgId/stream: upgrades to a websocket
// and pumps updates until either side disconnects. The session's role
// determines which update types and fields reach the wire.
func (h *UpdateHandlers) Stream(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)

	var filters []behavior.UpdateType
	if raw := c.Query("filters"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filters = append(filters, behavior.UpdateType(strings.TrimSpace(part)))
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Realtime().Warn("Websocket upgrade failed", "orgId", orgID, "error", err.Error())
		return
	}

	sub := h.broadcaster.Subscribe(orgID, claims.UserID, claims.Role, filters)
	client := messaging.NewClient(conn, sub, h.broadcaster, h.logger)
	client.Run()
}
