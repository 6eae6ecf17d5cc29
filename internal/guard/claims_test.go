package guard

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/internal/models"
)

func signToken(t *testing.T, secret, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: "Test User",
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestClaimsGuardAuthenticates(t *testing.T) {
	g := NewClaimsGuard("test-secret")
	require.NoError(t, g.Authenticate(signToken(t, "test-secret", "u1", "registrar")))

	actor := g.CurrentActor()
	require.NotNil(t, actor)
	require.Equal(t, "u1", actor.ID)
	require.True(t, g.HasCapability(models.CapStudentsManage))
	require.False(t, g.HasCapability(models.CapMaterialsManage))
}

func TestClaimsGuardRejectsWrongSecret(t *testing.T) {
	g := NewClaimsGuard("test-secret")
	err := g.Authenticate(signToken(t, "other-secret", "u1", "admin"))
	require.Error(t, err)
	require.Nil(t, g.CurrentActor())
	require.False(t, g.HasCapability(models.CapStudentsManage))
}

func TestClaimsGuardClearForgetsActor(t *testing.T) {
	g := NewClaimsGuard("test-secret")
	require.NoError(t, g.Authenticate(signToken(t, "test-secret", "u1", "admin")))
	g.Clear()
	require.Nil(t, g.CurrentActor())
	require.False(t, g.HasCapability(models.CapStudentsRegister))
}

func TestRoleCapabilities(t *testing.T) {
	require.Contains(t, RoleCapabilities("admin"), models.CapStudentsManage)
	require.Contains(t, RoleCapabilities("teacher"), models.CapMaterialsManage)
	require.NotContains(t, RoleCapabilities("teacher"), models.CapStudentsManage)
	require.Empty(t, RoleCapabilities("guest"))
}

func TestStaticGuardNilActorDeniesEverything(t *testing.T) {
	g := &StaticGuard{}
	require.False(t, g.HasCapability(models.CapStudentsManage))
	require.Nil(t, g.CurrentActor())
}
