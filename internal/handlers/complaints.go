package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// ComplaintServiceInterface defines submission, owner edits and complaint queries
type ComplaintServiceInterface interface {
	Submit(ctx context.Context, actor models.Principal, in services.SubmitInput) (*models.Complaint, error)
	Modify(ctx context.Context, actor models.Principal, id string, in services.ModifyInput) (*models.Complaint, error)
	ListMine(ctx context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error)
	HandlerQueue(ctx context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error)
	GetDetail(ctx context.Context, actor models.Principal, id string) (*models.ComplaintDetail, error)
}

// ComplaintHandler handles complaint submission and queries
type ComplaintHandler struct {
	service   ComplaintServiceInterface
	flash     Flasher
	maxUpload int64
}

// NewComplaintHandler creates a new ComplaintHandler. maxUpload bounds a multipart body.
func NewComplaintHandler(service ComplaintServiceInterface, flash Flasher, maxUpload int64) *ComplaintHandler {
	return &ComplaintHandler{service: service, flash: flash, maxUpload: maxUpload}
}

// ComplaintRequest is the JSON or multipart form body of a submission or edit
type ComplaintRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=5000"`
	Category    string `json:"category" validate:"omitempty,oneof=academic administrative"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=standard anonymous"`
}

// ListComplaintsResponse represents a page of complaints
type ListComplaintsResponse struct {
	Complaints []*ComplaintResponse `json:"complaints"`
	Total      int                  `json:"total"`
}

// Submit handles POST /complaints
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	req, evidence, cleanup, ok := h.readComplaint(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if req.Category == "" {
		writeInvalid(w, &FieldError{Field: "category", Message: "this field is required"})
		return
	}

	complaint, err := h.service.Submit(r.Context(), p, services.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Visibility:  req.Visibility,
		Evidence:    evidence,
	})
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusCreated, complaintToResponse(complaint), "Complaint submitted")
}

// Modify handles PUT /complaints/{id}
func (h *ComplaintHandler) Modify(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	req, evidence, cleanup, ok := h.readComplaint(w, r)
	if !ok {
		return
	}
	defer cleanup()

	complaint, err := h.service.Modify(r.Context(), p, chi.URLParam(r, "id"), services.ModifyInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		Evidence:    evidence,
	})
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusOK, complaintToResponse(complaint), "Complaint updated")
}

// ListMine handles GET /complaints/mine
func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListMine)
}

// HandlerQueue handles GET /handler/complaints
func (h *ComplaintHandler) HandlerQueue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.HandlerQueue)
}

func (h *ComplaintHandler) list(w http.ResponseWriter, r *http.Request, query func(context.Context, models.Principal, models.ComplaintFilter) ([]*models.Complaint, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, offset := pageParams(r)
	complaints, err := query(r.Context(), p, models.ComplaintFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusOK, ListComplaintsResponse{
		Complaints: complaintsToResponse(complaints),
		Total:      len(complaints),
	})
}

// GetDetail handles GET /complaints/{id}
func (h *ComplaintHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// readComplaint accepts a JSON body or a multipart form with an optional "evidence" file.
// The returned cleanup releases multipart temp files.
func (h *ComplaintHandler) readComplaint(w http.ResponseWriter, r *http.Request) (*ComplaintRequest, *services.EvidenceUpload, func(), bool) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		var req ComplaintRequest
		if !decodeAndValidate(w, r, &req) {
			return nil, nil, noop, false
		}
		return &req, nil, noop, true
	}

	// Leave headroom for the text fields next to the file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WriteTooLarge(w, "Evidence file is too large")
			return nil, nil, noop, false
		}
		pkghttp.WriteBadRequest(w, "Invalid form body")
		return nil, nil, noop, false
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	req := ComplaintRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    r.FormValue("category"),
		Visibility:  r.FormValue("visibility"),
	}
	if err := ValidateRequest(req); err != nil {
		cleanup()
		writeInvalid(w, err)
		return nil, nil, noop, false
	}

	file, header, err := r.FormFile("evidence")
	if errors.Is(err, http.ErrMissingFile) {
		return &req, nil, cleanup, true
	}
	if err != nil {
		cleanup()
		pkghttp.WriteBadRequest(w, "Invalid evidence upload")
		return nil, nil, noop, false
	}
	if header.Size > h.maxUpload {
		file.Close()
		cleanup()
		pkghttp.WriteTooLarge(w, "Evidence file is too large")
		return nil, nil, noop, false
	}

	release := func() {
		file.Close()
		cleanup()
	}
	return &req, &services.EvidenceUpload{Filename: header.Filename, Content: file}, release, true
}
