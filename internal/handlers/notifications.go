package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
)

// NotificationServiceInterface defines the in-app inbox
type NotificationServiceInterface interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// NotificationHandler serves the signed-in user's notifications
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotificationsResponse represents a page of notifications
type ListNotificationsResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int                     `json:"total"`
}

// UnreadCountResponse is the unread badge count
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// List handles GET /notifications?unread=true
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, offset := pageParams(r)
	items, err := h.service.List(r.Context(), p.UserID, r.URL.Query().Get("unread") == "true", limit, offset)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, &NotificationResponse{
			ID:          n.ID,
			ComplaintID: n.ComplaintID,
			Description: n.Description,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, ListNotificationsResponse{Notifications: out, Total: len(out)})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	n, err := h.service.UnreadCount(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkRead handles POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), p.UserID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if _, err := h.service.MarkAllRead(r.Context(), p.UserID); err != nil {
		fail(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
