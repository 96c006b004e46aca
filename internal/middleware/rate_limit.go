package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/BradenHooton/vitrine/internal/auth"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	// IPConfig decides which forwarding headers are trusted. Nil uses RemoteAddr only.
	IPConfig *pkghttp.IPConfig
}

// DefaultLoginRateLimit returns the default per-IP budget for POST /auth/login
func DefaultLoginRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 20}
}

// DefaultStatusRateLimit returns the default per-IP budget for GET /auth/attempts.
// The login screen polls once per second while a countdown is shown.
func DefaultStatusRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 120}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	ipConfig := config.IPConfig
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// RateLimitByUser limits authenticated requests by the user id in the token
// claims, falling back to the client IP when no claims are present
func RateLimitByUser(config RateLimitConfig) func(next http.Handler) http.Handler {
	ipConfig := config.IPConfig
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if claims := auth.GetUserFromContext(r); claims != nil && claims.UserID != "" {
				return "user:" + claims.UserID, nil
			}
			return "ip:" + pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	if w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", strconv.Itoa(60))
	}
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}
