package guard

import (
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mathschool/sync-core/internal/models"
	appErrors "github.com/mathschool/sync-core/pkg/errors"
)

// Claims is the token payload issued by the authentication service.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsGuard derives the current actor and capabilities from a signed
// access token. Token issuance and refresh are out of scope; this side only
// validates and reads.
type ClaimsGuard struct {
	secret []byte

	mu    sync.RWMutex
	actor *models.Actor
}

// NewClaimsGuard constructs a guard validating HS256 tokens with the secret.
func NewClaimsGuard(secret string) *ClaimsGuard {
	return &ClaimsGuard{secret: []byte(secret)}
}

// Authenticate validates the token and installs the embedded actor.
func (g *ClaimsGuard) Authenticate(token string) error {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid access token")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.actor = &models.Actor{
		ID:           claims.Subject,
		Name:         claims.Name,
		Role:         claims.Role,
		Capabilities: RoleCapabilities(claims.Role),
	}
	return nil
}

// Clear forgets the current actor.
func (g *ClaimsGuard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actor = nil
}

// HasCapability reports whether the authenticated actor carries the capability.
func (g *ClaimsGuard) HasCapability(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.actor.Can(name)
}

// CurrentActor returns the authenticated actor, or nil.
func (g *ClaimsGuard) CurrentActor() *models.Actor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.actor
}
