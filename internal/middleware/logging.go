package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
	pkglogger "github.com/BradenHooton/vitrine/pkg/logger"
)

// SecureLogger returns a middleware for logging HTTP requests with sensitive data redaction.
// The email in GET /auth/attempts?email= is redacted and the one in
// /admin/attempts/{email} is masked.
func SecureLogger(logger *slog.Logger, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)

			path := pkglogger.SanitizedPath(r.URL.Path)
			if query := pkglogger.RedactQuery(r.URL.RawQuery); query != "" {
				path += "?" + query
			}

			status := wrapped.Status()
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "http_request",
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Int64("bytes", int64(wrapped.BytesWritten())),
				slog.String("duration", time.Since(start).String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("client_ip", pkghttp.ExtractClientIP(r, ipConfig)),
			)
		})
	}
}
