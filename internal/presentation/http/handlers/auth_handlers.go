// Package handlers provides the HTTP handlers for the analytics API.
package handlers

import (
	"net/http"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandlers serves login and token issuance
type AuthHandlers struct {
	auth   *services.AuthService
	logger *logging.ChanneledLogger
}

// NewAuthHandlers creates the auth handlers
func NewAuthHandlers(auth *services.AuthService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{auth: auth, logger: logger}
}

type loginRequest struct {
	OrgID    string `json:"organizationId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login for the admin account
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organizationId and password are required"})
		return
	}

	token, err := h.auth.AdminLogin(req.OrgID, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type issueTokenRequest struct {
	OrgID  string        `json:"organizationId" binding:"required"`
	UserID string        `json:"userId" binding:"required"`
	Role   behavior.Role `json:"role" binding:"required"`
}

// IssueToken handles POST /api/v1/auth/tokens. Admin-only: issues scoped
// session tokens for dashboard users.
func (h *AuthHandlers) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organizationId, userId and role are required"})
		return
	}

	switch req.Role {
	case behavior.RoleAdmin, behavior.RoleHRLead, behavior.RoleManager, behavior.RoleViewer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	token, err := h.auth.IssueToken(req.OrgID, req.UserID, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	claims := middleware.ClaimsFrom(c)
	h.logger.Auth().Info("Session token issued",
		"orgId", req.OrgID,
		"userId", req.UserID,
		"role", string(req.Role),
		"issuedBy", claims.UserID)
	c.JSON(http.StatusOK, gin.H{"token": token})
}
