package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker pings a backing store
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health handles GET /health with a database ping
func Health(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
