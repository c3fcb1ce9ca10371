package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/BradenHooton/grievance/internal/services"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// BackupServiceInterface defines database dump and restore
type BackupServiceInterface interface {
	Create(ctx context.Context, actorID string) (string, error)
	List(ctx context.Context) ([]services.BackupFile, error)
	Restore(ctx context.Context, actorID string, r io.Reader) error
}

// BackupHandler serves the admin backup endpoints
type BackupHandler struct {
	service    BackupServiceInterface
	flash      Flasher
	maxRestore int64
}

// NewBackupHandler creates a new BackupHandler. maxRestore bounds an uploaded dump.
func NewBackupHandler(service BackupServiceInterface, flash Flasher, maxRestore int64) *BackupHandler {
	return &BackupHandler{service: service, flash: flash, maxRestore: maxRestore}
}

// BackupResponse describes one dump file
type BackupResponse struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

// Create handles POST /admin/backups
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	path, err := h.service.Create(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	name := filepath.Base(path)
	done(w, r, h.flash, http.StatusCreated, map[string]string{"name": name}, "Backup "+name+" created")
}

// List handles GET /admin/backups
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]BackupResponse, 0, len(files))
	for _, f := range files {
		out = append(out, BackupResponse{
			Name:      f.Name,
			SizeBytes: f.SizeBytes,
			CreatedAt: f.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": out, "total": len(out)})
}

// Restore handles POST /admin/backups/restore with the dump in the "backup" form field
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxRestore)
	file, _, err := r.FormFile("backup")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WriteTooLarge(w, "Backup file is too large")
			return
		}
		pkghttp.WriteBadRequest(w, "A backup file is required")
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	if err := h.service.Restore(r.Context(), p.UserID, file); err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, nil, "Database restored")
}
