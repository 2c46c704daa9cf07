package services

import (
	"testing"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, adminPassword string) *AuthService {
	t.Helper()
	var hash string
	if adminPassword != "" {
		bytes, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(bytes)
	}
	return NewAuthService("test-secret", hash, logging.NewTestLogger())
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newAuthService(t, "")

	token, err := svc.IssueToken("org-1", "user-1", behavior.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "org-1", claims.OrgID)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, behavior.RoleManager, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := newAuthService(t, "")
	other := NewAuthService("other-secret", "", logging.NewTestLogger())

	token, err := other.IssueToken("org-1", "user-1", behavior.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errs.IsAccessDenied(err))
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := newAuthService(t, "")

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAdminLogin(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	token, err := svc.AdminLogin("org-1", "hunter2")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, behavior.RoleAdmin, claims.Role)
	assert.Equal(t, "org-1", claims.OrgID)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	_, err := svc.AdminLogin("org-1", "wrong")
	require.Error(t, err)
	assert.True(t, errs.IsAccessDenied(err))
}

func TestAdminLoginDisabled(t *testing.T) {
	svc := newAuthService(t, "")

	_, err := svc.AdminLogin("org-1", "anything")
	require.Error(t, err)
	assert.True(t, errs.IsAccessDenied(err))
}
