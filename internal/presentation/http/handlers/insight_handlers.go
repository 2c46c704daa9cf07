package handlers

import (
	"net/http"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// InsightHandlers serves predictive insight reads and generation
type InsightHandlers struct {
	insights *services.InsightService
	logger   *logging.ChanneledLogger
}

// NewInsightHandlers creates the insight handlers
func NewInsightHandlers(insights *services.InsightService, logger *logging.ChanneledLogger) *InsightHandlers {
	return &InsightHandlers{insights: insights, logger: logger}
}

// GetInsights handles GET /api/v1/orgs/:orgId/insights. The service
// enforces the role check; managers and viewers are refused.
func (h *InsightHandlers) GetInsights(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}
	claims := middleware.ClaimsFrom(c)

	set, err := h.insights.GetForRole(orgID, claims.Role)
	if err != nil {
		if errs.IsAccessDenied(err) {
			c.JSON(http.StatusForbidden, gin.H{"error": "role may not read insights"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insight read failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizationId": orgID, "insights": set})
}

// GenerateInsights handles POST /api/v1/orgs/:orgId/insights/generate.
// Runs all passes and replaces the cached set wholesale.
func (h *InsightHandlers) GenerateInsights(c *gin.Context) {
	orgID, ok := orgScope(c)
	if !ok {
		return
	}

	set, err := h.insights.Generate(c.Request.Context(), orgID)
	if err != nil {
		viewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizationId": orgID, "generated": len(set), "insights": set})
}
