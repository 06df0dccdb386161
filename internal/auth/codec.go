package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims extends JWT registered claims with the role of the subject.
// The role claim is only present on access tokens; refresh tokens carry
// the registered claims alone.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// IssuedToken is the codec's output: the signed compact serialisation
// plus the computed expiry, which the cookie transport and token store
// both need.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a process-wide symmetric secret
// (HMAC-SHA256). It is stateless: validation checks signature and expiry
// only and never consults the token store.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec creates a Codec from the configured signing secret and the
// per-kind token lifetimes.
//
// The secret is treated as base64; if it does not decode, the raw bytes
// are used as the key instead so a plain-text secret still works.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	return &Codec{
		secret:     key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess creates a signed access token for the subject carrying the
// role authority as an extra claim.
func (c *Codec) IssueAccess(subject, role string) (*IssuedToken, error) {
	return c.issue(subject, role, c.accessTTL)
}

// IssueRefresh creates a signed refresh token for the subject. Refresh
// tokens carry no role claim; the role is re-resolved from the credential
// directory at refresh time.
func (c *Codec) IssueRefresh(subject string) (*IssuedToken, error) {
	return c.issue(subject, "", c.refreshTTL)
}

func (c *Codec) issue(subject, role string, ttl time.Duration) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Validate reports whether a token has a genuine signature and an expiry
// in the future. Missing, malformed, forged, and expired tokens are all
// simply invalid; no distinction is surfaced.
//
// Validation never consults the token store, so a persisted refresh token
// that was disabled still validates here until it expires. Store-level
// checks are the session coordinator's job.
func (c *Codec) Validate(tokenString string) bool {
	if tokenString == "" {
		return false
	}
	_, err := c.parse(tokenString, true)
	return err == nil
}

// Claims parses and fully validates a token, returning its claims.
// Expired or forged tokens return ErrTokenInvalid.
func (c *Codec) Claims(tokenString string) (*Claims, error) {
	return c.parse(tokenString, true)
}

// Subject extracts the subject from a token whose signature verifies,
// without checking expiry. Logout must identify the caller from an access
// token that may have already expired; only forgery is rejected.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.parse(tokenString, false)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}

func (c *Codec) parse(tokenString string, validateClaims bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
