package middleware

import (
	"net/http"

	pkghttp "github.com/BradenHooton/grievance/pkg/http"
	pkglogger "github.com/BradenHooton/grievance/pkg/logger"
)

// ClientIP resolves the caller's address, honouring forwarding headers only from trusted proxies.
// RemoteAddr is rewritten so IP-keyed rate limits see the same address the audit log records.
func ClientIP(cfg *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, cfg)
			r.RemoteAddr = ip
			next.ServeHTTP(w, r.WithContext(pkglogger.WithClientIP(r.Context(), ip)))
		})
	}
}
