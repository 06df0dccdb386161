// Package auth is the session and token authority for Hearth Core.
//
// It covers:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - HMAC-SHA256 JWT issuance and validation (Codec)
//   - Persisted refresh tokens with a disabled flag (TokenRepository)
//   - The login/refresh/logout state machine (SessionService)
//   - Cookie transport for the access/refresh pair (CookieTransport)
//   - Per-request identity resolution (Authenticator)
//
// Roles and permissions live in the database: each user has one role, a
// role grants a set of (resource, operation) permission rows, and the
// resolved Principal exposes them as authority strings. Access tokens are
// stateless and validated by signature and expiry alone; refresh tokens
// are additionally checked against their store row so revocation takes
// effect immediately.
package auth
