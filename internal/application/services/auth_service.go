package services

import (
	"fmt"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload binding a session to an organization and role
type Claims struct {
	OrgID  string        `json:"orgId"`
	UserID string        `json:"userId"`
	Role   behavior.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and validates the dashboard session tokens
type AuthService struct {
	secret    []byte
	adminHash string
	tokenTTL  time.Duration
	logger    *logging.ChanneledLogger
}

// NewAuthService creates the auth service. adminHash is a bcrypt hash of
// the admin password; empty disables admin login.
func NewAuthService(secret, adminHash string, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		secret:    []byte(secret),
		adminHash: adminHash,
		tokenTTL:  24 * time.Hour,
		logger:    logger,
	}
}

// AdminLogin verifies the admin password and issues an admin token
func (s *AuthService) AdminLogin(orgID, password string) (string, error) {
	if s.adminHash == "" {
		return "", errs.New(errs.CodeAccessDenied, "admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		s.logger.Auth().Warn("Admin login rejected", "orgId", orgID)
		return "", errs.New(errs.CodeAccessDenied, "invalid credentials")
	}

	token, err := s.IssueToken(orgID, "admin", behavior.RoleAdmin)
	if err != nil {
		return "", err
	}
	s.logger.Auth().Info("Admin login succeeded", "orgId", orgID)
	return token, nil
}

// IssueToken signs a session token for a user within an organization
func (s *AuthService) IssueToken(orgID, userID string, role behavior.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		OrgID:  orgID,
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.CodeAccessDenied, "invalid session token", err)
	}
	if !token.Valid {
		return nil, errs.New(errs.CodeAccessDenied, "invalid session token")
	}
	return claims, nil
}
