package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
)

// EscalationServiceInterface defines the handler and escalation-office workflow
type EscalationServiceInterface interface {
	Validate(ctx context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error)
	Reject(ctx context.Context, actor models.Principal, complaintID, reason string) (*models.Complaint, error)
	Assign(ctx context.Context, actor models.Principal, complaintID, role string) (*models.Escalation, error)
	ResolveComplaint(ctx context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error)
	ResolveEscalation(ctx context.Context, actor models.Principal, escalationID, details string) (*models.Escalation, error)
	Escalate(ctx context.Context, actor models.Principal, escalationID, requestedRole, note string) (*models.Escalation, error)
	Inbox(ctx context.Context, actor models.Principal) ([]*models.Escalation, error)
}

// EscalationHandler handles complaint decisions, assignment and escalation
type EscalationHandler struct {
	service EscalationServiceInterface
	flash   Flasher
}

// NewEscalationHandler creates a new EscalationHandler
func NewEscalationHandler(service EscalationServiceInterface, flash Flasher) *EscalationHandler {
	return &EscalationHandler{service: service, flash: flash}
}

// DecisionRequest carries the written reason for validate, reject and resolve
type DecisionRequest struct {
	Details string `json:"details" validate:"required,max=2000"`
}

// AssignRequest names the office a validated complaint is routed to
type AssignRequest struct {
	Role string `json:"role" validate:"required,escalation_role"`
}

// EscalateRequest moves an escalation up the chain. An empty role takes the next office.
type EscalateRequest struct {
	Role string `json:"role" validate:"omitempty,escalation_role"`
	Note string `json:"note" validate:"max=2000"`
}

// InboxResponse lists escalations waiting for the caller's office
type InboxResponse struct {
	Escalations []*EscalationResponse `json:"escalations"`
	Total       int                   `json:"total"`
}

// Validate handles POST /complaints/{id}/validate
func (h *EscalationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Validate, "Complaint validated")
}

// Reject handles POST /complaints/{id}/reject
func (h *EscalationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Complaint rejected")
}

// Resolve handles POST /complaints/{id}/resolve
func (h *EscalationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.ResolveComplaint, "Complaint resolved")
}

func (h *EscalationHandler) decide(w http.ResponseWriter, r *http.Request, apply func(context.Context, models.Principal, string, string) (*models.Complaint, error), message string) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	complaint, err := apply(r.Context(), p, chi.URLParam(r, "id"), strings.TrimSpace(req.Details))
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusOK, complaintToResponse(complaint), message)
}

// Assign handles POST /complaints/{id}/assign
func (h *EscalationHandler) Assign(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.service.Assign(r.Context(), p, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusCreated, escalationToResponse(entry), "Complaint assigned")
}

// Inbox handles GET /escalations/inbox
func (h *EscalationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Inbox(r.Context(), p)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusOK, InboxResponse{
		Escalations: escalationsToResponse(entries),
		Total:       len(entries),
	})
}

// ResolveEscalation handles POST /escalations/{id}/resolve
func (h *EscalationHandler) ResolveEscalation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.service.ResolveEscalation(r.Context(), p, chi.URLParam(r, "id"), strings.TrimSpace(req.Details))
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusOK, escalationToResponse(entry), "Escalation resolved")
}

// Escalate handles POST /escalations/{id}/escalate
func (h *EscalationHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req EscalateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.service.Escalate(r.Context(), p, chi.URLParam(r, "id"), req.Role, strings.TrimSpace(req.Note))
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusCreated, escalationToResponse(entry), "Complaint escalated")
}
