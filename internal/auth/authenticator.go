package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Authenticator resolves the identity behind an incoming request from its
// access token cookie. Absent, forged, and expired tokens all resolve to
// anonymous rather than an error. Authorisation decisions belong to the
// handlers downstream.
type Authenticator struct {
	users UserRepository
	codec *Codec
}

// NewAuthenticator creates a request authenticator.
func NewAuthenticator(users UserRepository, codec *Codec) *Authenticator {
	return &Authenticator{users: users, codec: codec}
}

// Authenticate inspects the request's access token cookie and returns the
// resolved principal, or nil for anonymous callers. Only infrastructure
// failures (store unavailable) return an error.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	tokenString := ReadAccessToken(r)
	if tokenString == "" {
		return nil, nil
	}

	claims, err := a.codec.Claims(tokenString)
	if err != nil {
		// Invalid or expired: the caller proceeds as anonymous.
		return nil, nil
	}

	principal, err := a.users.GetPrincipal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRoleNotFound) {
			// Token outlived the account. Anonymous, not an error.
			return nil, nil
		}
		return nil, fmt.Errorf("resolving principal: %w", err)
	}

	if !principal.User.IsActive {
		return nil, nil
	}

	return principal, nil
}
