// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/WorkfieldLabs/workpulse-go/internal/application/container"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/handlers"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	viewHandlers := handlers.NewViewHandlers(container.ViewService, container.Logger)
	insightHandlers := handlers.NewInsightHandlers(container.InsightService, container.Logger)
	updateHandlers := handlers.NewUpdateHandlers(container.Broadcaster, container.Repository, container.Logger)
	monitorHandlers := handlers.NewMonitorHandlers(container)

	r.GET("/health", monitorHandlers.Health)

	api := r.Group("/api/v1")

	// Public auth surface
	api.POST("/auth/login", authHandlers.Login)

	// Session-scoped routes
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(container.AuthService))
	{
		authed.POST("/auth/tokens",
			middleware.RequireRole(behavior.RoleAdmin),
			authHandlers.IssueToken)

		orgs := authed.Group("/orgs/:orgId")
		{
			orgs.GET("/views/patterns", viewHandlers.GetPatternRollup)
			orgs.GET("/views/health", viewHandlers.GetHealthSummary)
			orgs.GET("/views/roi", viewHandlers.GetInterventionROI)
			orgs.POST("/views/warm",
				middleware.RequireRole(behavior.RoleAdmin, behavior.RoleHRLead),
				viewHandlers.WarmCache)

			orgs.GET("/insights", insightHandlers.GetInsights)
			orgs.POST("/insights/generate",
				middleware.RequireRole(behavior.RoleAdmin, behavior.RoleHRLead),
				insightHandlers.GenerateInsights)

			orgs.POST("/updates",
				middleware.RequireRole(behavior.RoleAdmin, behavior.RoleHRLead),
				updateHandlers.PublishUpdate)
			orgs.GET("/stream", updateHandlers.Stream)
		}

		monitor := authed.Group("/monitor")
		monitor.Use(middleware.RequireRole(behavior.RoleAdmin, behavior.RoleHRLead))
		{
			monitor.GET("/performance", monitorHandlers.GetPerformanceStats)
			monitor.GET("/cache", monitorHandlers.GetCacheStats)
			monitor.GET("/realtime", monitorHandlers.GetRealtimeStats)
			monitor.GET("/alerts", monitorHandlers.GetRecentAlerts)
			monitor.GET("/breaker", monitorHandlers.GetBreakerState)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(behavior.RoleAdmin))
		{
			admin.POST("/cache/invalidate", monitorHandlers.InvalidateCache)
			admin.POST("/cache/clear", monitorHandlers.ClearCache)
			admin.POST("/cache/sweep", monitorHandlers.SweepCache)
			admin.POST("/breaker/reset", monitorHandlers.ResetBreaker)
		}
	}

	return r
}
