package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/grievance/internal/auth"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// CSRFProtection enforces the double-submit cookie pattern on state-changing requests
// that carry a session cookie. The X-CSRF-Token header must equal the csrf_token cookie.
// Requests without a session (login, register) pass through.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if session, err := auth.SessionCookie(r); err != nil || session == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(auth.CSRFHeaderName)
			cookie, err := auth.CSRFCookie(r)
			if header == "" || err != nil || cookie == "" {
				logger.Warn("csrf token missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "csrf token missing")
				return
			}

			if subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 {
				logger.Warn("csrf token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "csrf token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
