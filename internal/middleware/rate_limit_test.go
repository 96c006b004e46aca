package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/models"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP_BlocksAfterBudget(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 2})(okHandler())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("192.0.2.1:1001").Code)

	w := send("192.0.2.1:1002")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp.Error)

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000").Code)
}

func TestRateLimitByIP_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	for i, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.0.2.9:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, w.Code, "spoofed header must not grant a new budget")
		}
	}
}

func TestRateLimitByIP_TrustedProxyUsesForwardedFor(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{
		RequestsPerMinute: 1,
		IPConfig:          pkghttp.MustIPConfig("10.0.0.0/8"),
	})(okHandler())

	for _, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "clients behind the proxy are limited separately")
	}
}

func TestRateLimitByUser_KeysOnClaims(t *testing.T) {
	handler := RateLimitByUser(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	send := func(userID string) int {
		req := httptest.NewRequest("GET", "/admin/throttled", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		claims := &models.TokenClaims{UserID: userID, Type: "access"}
		req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("user-1"))
	assert.Equal(t, http.StatusOK, send("user-2"), "same IP, different user")
}

func TestDefaultRateLimits(t *testing.T) {
	assert.Equal(t, 20, DefaultLoginRateLimit().RequestsPerMinute)
	assert.Equal(t, 120, DefaultStatusRateLimit().RequestsPerMinute)
}
