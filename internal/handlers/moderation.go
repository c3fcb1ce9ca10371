package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
)

// ModerationServiceInterface defines blocklist management
type ModerationServiceInterface interface {
	ListWords(ctx context.Context) ([]*models.AbusiveWord, error)
	AddWord(ctx context.Context, actor models.Principal, word string) (*models.AbusiveWord, error)
	DeleteWord(ctx context.Context, actor models.Principal, id string) error
	CheckText(ctx context.Context, text string) (*services.TextCheck, error)
}

// ModerationHandler serves the admin abusive-word endpoints
type ModerationHandler struct {
	service ModerationServiceInterface
	flash   Flasher
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(service ModerationServiceInterface, flash Flasher) *ModerationHandler {
	return &ModerationHandler{service: service, flash: flash}
}

// AbusiveWordRequest adds one word to the blocklist
type AbusiveWordRequest struct {
	Word string `json:"word" validate:"required,max=100"`
}

// CheckTextRequest is a dry-run scan
type CheckTextRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

func wordToResponse(w *models.AbusiveWord) *AbusiveWordResponse {
	return &AbusiveWordResponse{ID: w.ID, Word: w.Word, CreatedAt: w.CreatedAt.UTC().Format(timeFormat)}
}

// ListWords handles GET /admin/abusive-words
func (h *ModerationHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.service.ListWords(r.Context())
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*AbusiveWordResponse, 0, len(words))
	for _, word := range words {
		out = append(out, wordToResponse(word))
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": out, "total": len(out)})
}

// AddWord handles POST /admin/abusive-words
func (h *ModerationHandler) AddWord(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req AbusiveWordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	word, err := h.service.AddWord(r.Context(), p, req.Word)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusCreated, wordToResponse(word), "Added \""+word.Word+"\" to the blocklist")
}

// DeleteWord handles DELETE /admin/abusive-words/{id}
func (h *ModerationHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteWord(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, nil, "Word removed from the blocklist")
}

// CheckText handles POST /admin/abusive-words/check. It changes nothing, so no flash.
func (h *ModerationHandler) CheckText(w http.ResponseWriter, r *http.Request) {
	var req CheckTextRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.CheckText(r.Context(), req.Text)
	if err != nil {
		fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
