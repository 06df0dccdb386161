package auth

import "net/http"

// Cookie names used to carry the token pair.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieTransport attaches tokens to responses and reads them back from
// requests. Cookies are HTTP-only with path "/"; Max-Age is configured
// per kind and normally matches the token lifetime.
type CookieTransport struct {
	accessMaxAge  int
	refreshMaxAge int
}

// NewCookieTransport creates a cookie transport with the configured
// Max-Age values in seconds.
func NewCookieTransport(accessMaxAge, refreshMaxAge int) *CookieTransport {
	return &CookieTransport{
		accessMaxAge:  accessMaxAge,
		refreshMaxAge: refreshMaxAge,
	}
}

// WritePair attaches the reissued tokens of a pair as cookies. Nil fields
// are skipped, leaving the client's existing cookie untouched.
func (c *CookieTransport) WritePair(w http.ResponseWriter, pair *TokenPair) {
	if pair == nil {
		return
	}
	if pair.Access != nil {
		c.writeCookie(w, AccessCookieName, pair.Access.Value, c.accessMaxAge)
	}
	if pair.Refresh != nil {
		c.writeCookie(w, RefreshCookieName, pair.Refresh.Value, c.refreshMaxAge)
	}
}

// Clear expires both token cookies on the client.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	c.writeCookie(w, AccessCookieName, "", -1)
	c.writeCookie(w, RefreshCookieName, "", -1)
}

func (c *CookieTransport) writeCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadAccessToken returns the access token cookie value, or "" if absent.
func ReadAccessToken(r *http.Request) string {
	return readCookie(r, AccessCookieName)
}

// ReadRefreshToken returns the refresh token cookie value, or "" if absent.
func ReadRefreshToken(r *http.Request) string {
	return readCookie(r, RefreshCookieName)
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
