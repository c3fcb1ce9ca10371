package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
)

// BoardServiceInterface defines notices and feedback
type BoardServiceInterface interface {
	ListNotices(ctx context.Context, limit, offset int) ([]*models.Notice, error)
	PostNotice(ctx context.Context, actor models.Principal, title, body string) (*models.Notice, error)
	EditNotice(ctx context.Context, id, title, body string) (*models.Notice, error)
	DeleteNotice(ctx context.Context, id string) error
	SubmitFeedback(ctx context.Context, actor models.Principal, message string, complaintID *string) (*models.Feedback, error)
	ListFeedback(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error
}

// BoardHandler serves the notice board and the feedback box
type BoardHandler struct {
	service BoardServiceInterface
	flash   Flasher
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(service BoardServiceInterface, flash Flasher) *BoardHandler {
	return &BoardHandler{service: service, flash: flash}
}

// NoticeRequest is the body of a posted or edited notice
type NoticeRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required,max=5000"`
}

// FeedbackRequest is a feedback message, optionally about one complaint
type FeedbackRequest struct {
	Message     string  `json:"message" validate:"required,max=2000"`
	ComplaintID *string `json:"complaint_id" validate:"omitempty"`
}

// ListNotices handles GET /notices
func (h *BoardHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	notices, err := h.service.ListNotices(r.Context(), limit, offset)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, noticeToResponse(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": out, "total": len(out)})
}

// PostNotice handles POST /admin/notices
func (h *BoardHandler) PostNotice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req NoticeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	notice, err := h.service.PostNotice(r.Context(), p, req.Title, req.Body)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusCreated, noticeToResponse(notice), "Notice posted")
}

// EditNotice handles PUT /admin/notices/{id}
func (h *BoardHandler) EditNotice(w http.ResponseWriter, r *http.Request) {
	var req NoticeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	notice, err := h.service.EditNotice(r.Context(), chi.URLParam(r, "id"), req.Title, req.Body)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, noticeToResponse(notice), "Notice updated")
}

// DeleteNotice handles DELETE /admin/notices/{id}
func (h *BoardHandler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNotice(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, nil, "Notice deleted")
}

// SubmitFeedback handles POST /feedback
func (h *BoardHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	fb, err := h.service.SubmitFeedback(r.Context(), p, req.Message, req.ComplaintID)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusCreated, feedbackToResponse(fb), "Thank you for your feedback")
}

// ListFeedback handles GET /admin/feedback
func (h *BoardHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, err := h.service.ListFeedback(r.Context(), limit, offset)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*FeedbackResponse, 0, len(items))
	for _, f := range items {
		out = append(out, feedbackToResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": out, "total": len(out)})
}

// DeleteFeedback handles DELETE /admin/feedback/{id}
func (h *BoardHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFeedback(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, nil, "Feedback deleted")
}
