package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier stored in the roles table.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Authority returns the role's authority string: the upper-cased role name.
func (r Role) Authority() string {
	return strings.ToUpper(r.Name)
}

// Built-in role names seeded by migration.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Permission represents a single (resource, operation) capability row.
type Permission struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

// Authority returns the permission's authority string: RESOURCE:OPERATION.
func (p Permission) Authority() string {
	return p.Resource + ":" + p.Operation
}

// User represents an authenticated human account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialised
	RoleID       string    `json:"role_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is a resolved identity: the user plus its role and the
// permission set granted through that role. This is what the credential
// directory hands to the session coordinator and what request handlers
// consult for authorisation.
type Principal struct {
	User        *User        `json:"user"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// Authorities returns the principal's full authority set: the role
// authority followed by one authority per permission.
func (p *Principal) Authorities() []string {
	out := make([]string, 0, len(p.Permissions)+1)
	out = append(out, p.Role.Authority())
	for _, perm := range p.Permissions {
		out = append(out, perm.Authority())
	}
	return out
}

// HasPermission returns true if the principal's role grants the
// (resource, operation) capability.
func (p *Principal) HasPermission(resource, operation string) bool {
	for _, perm := range p.Permissions {
		if perm.Resource == resource && perm.Operation == operation {
			return true
		}
	}
	return false
}

// RefreshToken is a persisted long-lived token record. Only refresh
// tokens are ever stored; access tokens are stateless and self-verifying.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"` // never serialised
	Disabled  bool      `json:"disabled"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token's expiry has passed.
func (t *RefreshToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoleNotFound       = errors.New("role not found")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenDisabled      = errors.New("token has been disabled")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)
