package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/grievance/internal/auth"
	pkglogger "github.com/BradenHooton/grievance/pkg/logger"
)

// SecureLogger returns a middleware for logging HTTP requests with sensitive query strings redacted.
// The acting user is attached when the session middleware ran further down the chain.
func SecureLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Inner middleware stores claims on a request copy, so hand it a holder it can fill
			holder := &requestUser{}
			next.ServeHTTP(wrapped, r.WithContext(withRequestUser(r.Context(), holder)))

			path := r.URL.Path
			if pkglogger.SanitizeQueryString(r.URL.RawQuery) {
				path += "?[REDACTED]"
			} else if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", wrapped.Status()),
				slog.Int64("bytes", int64(wrapped.BytesWritten())),
				slog.String("duration", time.Since(start).String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("client_ip", clientIP(r)),
			}
			if holder.userID != "" {
				attrs = append(attrs, slog.String("user_id", holder.userID))
			}

			level := slog.LevelInfo
			if wrapped.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "http_request", attrs...)
		})
	}
}

type requestUser struct {
	userID string
}

type requestUserKey struct{}

func withRequestUser(ctx context.Context, holder *requestUser) context.Context {
	return context.WithValue(ctx, requestUserKey{}, holder)
}

// TagUser records the session user for the request log line. Mount it after RequireSession.
func TagUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if holder, ok := r.Context().Value(requestUserKey{}).(*requestUser); ok {
			if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
				holder.userID = claims.UserID
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := pkglogger.ClientIP(r.Context()); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
