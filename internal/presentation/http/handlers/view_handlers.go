package handlers

import (
	"net/http"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/resilience"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ViewHandlers serves the materialized dashboard views
type ViewHandlers struct {
	views  *services.ViewService
	logger *logging.ChanneledLogger
}

// NewViewHandlers creates the view handlers
func NewViewHandlers(views *services.ViewService, logger *logging.ChanneledLogger) *ViewHandlers {
	return &ViewHandlers{views: views, logger: logger}
}

// orgScope resolves the :orgId path parameter against the session claims.
// Non-admin sessions may only read their own organization.
func orgScope(c *gin.Context) (string, bool) {
	orgID := c.Param("orgId")
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return "", false
	}
	if claims.Role != behavior.RoleAdmin && claims.OrgID != orgID {
		c.JSON(http.StatusForbidden, gin.H{"error": "organization mismatch"})
		return "", false
	}
	return orgID, true
}

// viewError maps a view computation failure to an HTTP response. An open
// circuit reads as temporary unavailability so clients keep their stale
// rendering instead of erroring hard.
func viewError(c *gin.Context, err error) {
	if err == resilience.ErrCircuitOpen {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data source temporarily unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "view computation failed"})
}

// GetPatternRollup handles GET /api/v1/orgs/:orgId/views/patterns
func (h *ViewHandlers) GetPatternRollup(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	view, err := h.views.PatternRollup(c.Request.Context(), orgID)
	if err != nil {
		viewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetHealthSummary handles GET /api/v1/orgs/:orgId/views/health
func (h *ViewHandlers) GetHealthSummary(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	view, err := h.views.HealthSummary(c.Request.Context(), orgID)
	if err != nil {
		viewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetInterventionROI handles GET /api/v1/orgs/:orgId/views/roi
func (h *ViewHandlers) GetInterventionROI(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	view, err := h.views.InterventionROI(c.Request.Context(), orgID)
	if err != nil {
		viewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// WarmCache handles POST /api/v1/orgs/:orgId/views/warm
func (h *ViewHandlers) WarmCache(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	if err := h.views.WarmCache(c.Request.Context(), orgID); err != nil {
		viewError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "warmed", "organizationId": orgID})
}
