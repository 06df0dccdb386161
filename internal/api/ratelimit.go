package api

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

// rateLimitWindow is the fixed window the auth-endpoint limiter counts over.
const rateLimitWindow = time.Minute

// rateLimitMiddleware caps how often a single source address may hit the
// session endpoints. It uses a fixed-window counter in Redis (INCR with a
// window-length expiry on first hit) so the limit holds across restarts.
//
// The limiter fails open: when Redis is unreachable the request proceeds
// and the error is logged. Login availability wins over limiter strictness.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if !s.rlCfg.Enabled || s.redis == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "hearth:ratelimit:" + clientIP(r)

		count, err := s.redis.Incr(r.Context(), key).Result()
		if err != nil {
			s.logger.Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := s.redis.Expire(r.Context(), key, rateLimitWindow).Err(); err != nil {
				s.logger.Warn("rate limiter expire failed", "error", err)
			}
		}

		limit := int64(s.rlCfg.RequestsPerMinute)
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > limit {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's address, preferring X-Forwarded-For when
// the request came through a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
