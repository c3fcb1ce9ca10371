package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// AdminServiceInterface defines the dashboard service contract.
type AdminServiceInterface interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetRecentActivity(ctx context.Context, limit int) (*services.DashboardActivity, error)
}

// LogServiceInterface defines complaint log browsing and retention.
type LogServiceInterface interface {
	List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error)
	Purge(ctx context.Context, days int) (int64, error)
}

// AdminHandler handles admin dashboard and log HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
	logs    LogServiceInterface
	flash   Flasher
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface, logs LogServiceInterface, flash Flasher) *AdminHandler {
	return &AdminHandler{service: service, logs: logs, flash: flash}
}

// PurgeLogsResponse reports how many rows a purge removed
type PurgeLogsResponse struct {
	Deleted int64 `json:"deleted"`
}

// GetDashboardStats handles GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve dashboard stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetRecentActivity handles GET /admin/dashboard/activity
// Accepts optional query param ?limit=N (1–20, default 20).
func (h *AdminHandler) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}

	activity, err := h.service.GetRecentActivity(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve recent activity")
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// ListLogs handles GET /admin/logs?action=&user_id=
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	entries, err := h.logs.List(r.Context(), models.LogFilter{
		Action: r.URL.Query().Get("action"),
		UserID: r.URL.Query().Get("user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*LogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, &LogResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out, "total": len(out)})
}

// PurgeLogs handles DELETE /admin/logs?older_than_days=N
func (h *AdminHandler) PurgeLogs(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("older_than_days"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "older_than_days must be a number")
		return
	}

	n, err := h.logs.Purge(r.Context(), days)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, PurgeLogsResponse{Deleted: n}, strconv.FormatInt(n, 10)+" log entries removed")
}
