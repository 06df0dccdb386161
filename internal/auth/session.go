package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
)

// TokenPair carries the tokens minted by a session transition. A nil
// field means that kind was not reissued and the client keeps what it
// already holds.
type TokenPair struct {
	Access  *IssuedToken
	Refresh *IssuedToken
}

// SessionService orchestrates login, refresh, and logout. It is the only
// component that talks to the token store, and it holds no state of its
// own: every call stands alone on whatever the client presented.
type SessionService struct {
	users  UserRepository
	tokens TokenRepository
	codec  *Codec
	logger *logging.Logger
}

// NewSessionService creates a session coordinator.
func NewSessionService(users UserRepository, tokens TokenRepository, codec *Codec, logger *logging.Logger) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		logger: logger.With("component", "session"),
	}
}

// Login authenticates a username/password pair and establishes a session.
// Every previously persisted token of the user is swept (expired rows
// deleted, the rest disabled), then tokens are reissued according to the
// validity of whatever the caller already presented:
//
//   - presented access invalid                  -> new access token
//   - presented refresh invalid OR access valid -> new refresh token, persisted
//
// The asymmetry is deliberate: a caller holding a valid access token gets
// its refresh token rotated regardless, which blunts refresh-token
// fixation. In the worst case (nothing presented) exactly one token of
// each kind is issued.
//
// Two concurrent logins for the same user can interleave sweep and
// insert, leaving two live refresh tokens. Accepted: the worst case is an
// extra surviving session, not a broken one.
func (s *SessionService) Login(ctx context.Context, username, password, presentedAccess, presentedRefresh string) (*Principal, *TokenPair, error) {
	principal, err := s.users.GetPrincipal(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same failure as a wrong password so login names cannot be probed.
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("resolving principal: %w", err)
	}

	if !principal.User.IsActive {
		return nil, nil, ErrUserInactive
	}

	ok, err := VerifyPassword(password, principal.User.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.logger.Warn("login rejected", "username", username)
		return nil, nil, ErrInvalidCredentials
	}

	// Evaluate the presented pair before the sweep mutates the store.
	accessValid := s.codec.Validate(presentedAccess)
	refreshValid := s.codec.Validate(presentedRefresh)

	if err := s.revokeAll(ctx, principal.User.ID); err != nil {
		return nil, nil, err
	}

	pair := &TokenPair{}

	if !accessValid {
		access, err := s.codec.IssueAccess(username, principal.Role.Authority())
		if err != nil {
			return nil, nil, err
		}
		pair.Access = access
	}

	if !refreshValid || accessValid {
		refresh, err := s.issueAndStoreRefresh(ctx, principal.User.ID, username)
		if err != nil {
			return nil, nil, err
		}
		pair.Refresh = refresh
	}

	s.logger.Info("login succeeded", "username", username, "role", principal.Role.Name)
	return principal, pair, nil
}

// Refresh mints a new access token against a presented refresh token.
// The refresh token itself is left untouched, not rotated on every
// access renewal.
//
// The refresh token must pass both the codec check (signature, expiry)
// and the store check (row exists for its hash, not disabled, not past
// its stored expiry). The store check is what makes logout stick before
// natural expiry; there is no fallback identity on this path, so failure
// is hard.
func (s *SessionService) Refresh(ctx context.Context, presentedRefresh string) (*Principal, *IssuedToken, error) {
	if presentedRefresh == "" {
		return nil, nil, ErrTokenInvalid
	}

	if !s.codec.Validate(presentedRefresh) {
		return nil, nil, ErrTokenInvalid
	}
	if err := s.checkStoredToken(ctx, presentedRefresh); err != nil {
		return nil, nil, err
	}

	subject, err := s.codec.Subject(presentedRefresh)
	if err != nil {
		return nil, nil, err
	}

	principal, err := s.users.GetPrincipal(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("resolving principal: %w", err)
	}

	if !principal.User.IsActive {
		return nil, nil, ErrUserInactive
	}

	access, err := s.codec.IssueAccess(subject, principal.Role.Authority())
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("access token renewed", "username", subject)
	return principal, access, nil
}

// Logout revokes every persisted token of the caller identified by the
// presented access token. The token may be expired, only its signature
// must verify, so a stale tab can still log out. An access token that
// cannot yield a subject is a hard failure: logout must not silently
// no-op. Returns the resolved username for the caller's audit trail.
func (s *SessionService) Logout(ctx context.Context, presentedAccess string) (string, error) {
	if presentedAccess == "" {
		return "", ErrTokenInvalid
	}

	subject, err := s.codec.Subject(presentedAccess)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("resolving user: %w", err)
	}

	if err := s.revokeAll(ctx, user.ID); err != nil {
		return "", err
	}

	s.logger.Info("logout", "username", subject)
	return subject, nil
}

// RevokeAllForUser revokes every persisted token of a user. Exposed for
// admin force-logout.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.revokeAll(ctx, userID)
}

// revokeAll applies the sweep rule to a user's persisted tokens: expired
// rows are deleted, everything else is marked disabled. Re-disabling an
// already disabled row is an idempotent no-op.
func (s *SessionService) revokeAll(ctx context.Context, userID string) error {
	existing, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing tokens for revocation: %w", err)
	}

	for i := range existing {
		t := &existing[i]
		if t.Expired() {
			if err := s.tokens.Delete(ctx, t.ID); err != nil {
				return fmt.Errorf("sweeping expired token: %w", err)
			}
			continue
		}
		if err := s.tokens.Disable(ctx, t.ID); err != nil {
			return fmt.Errorf("disabling token: %w", err)
		}
	}

	return nil
}

// checkStoredToken verifies the persisted side of a refresh token: the
// row must exist for its hash, be enabled, and not be past its stored
// expiry.
func (s *SessionService) checkStoredToken(ctx context.Context, refreshValue string) error {
	rec, err := s.tokens.GetByTokenHash(ctx, HashToken(refreshValue))
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("checking stored token: %w", err)
	}
	if rec.Disabled {
		return ErrTokenDisabled
	}
	if rec.Expired() {
		return ErrTokenExpired
	}
	return nil
}

// issueAndStoreRefresh mints a refresh token and persists its hash tied
// to the owning user.
func (s *SessionService) issueAndStoreRefresh(ctx context.Context, userID, subject string) (*IssuedToken, error) {
	refresh, err := s.codec.IssueRefresh(subject)
	if err != nil {
		return nil, err
	}

	rec := &RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(refresh.Value),
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return nil, err
	}

	return refresh, nil
}
