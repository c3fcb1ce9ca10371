// Package storage keeps complaint evidence files on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/BradenHooton/grievance/internal/models"
)

// allowedTypes maps accepted extensions to the sniffed content type they must carry.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// EvidenceStore writes validated uploads under a fixed directory with server-generated names.
type EvidenceStore struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// NewEvidenceStore creates the upload directory if needed.
func NewEvidenceStore(dir string, maxBytes int64, logger *slog.Logger) (*EvidenceStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &EvidenceStore{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Save validates the upload and stores it as <uuid><ext>, returning the stored name.
// Validation failures wrap models.ErrInvalidEvidence.
func (s *EvidenceStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	ext, err := Validate(originalName, content, s.maxBytes)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String() + ext
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info("evidence stored",
		slog.String("file", name),
		slog.Int("size", len(content)),
	)

	return name, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *EvidenceStore) Delete(name string) error {
	if name == "" {
		return nil
	}

	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}

// Path resolves a stored name inside the upload directory.
func (s *EvidenceStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Validate checks size, extension and sniffed type of an upload, and that PDFs parse with at
// least one page. It returns the lower-cased extension to store the file under.
func Validate(originalName string, content []byte, maxBytes int64) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: file is empty", models.ErrInvalidEvidence)
	}
	if int64(len(content)) > maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidEvidence, maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: only jpeg, png and pdf files are accepted", models.ErrInvalidEvidence)
	}

	if got := http.DetectContentType(content); got != want {
		return "", fmt.Errorf("%w: content does not match %s extension", models.ErrInvalidEvidence, ext)
	}

	if want == "application/pdf" {
		pages, err := pdfPageCount(content)
		if err != nil || pages < 1 {
			return "", fmt.Errorf("%w: pdf could not be read", models.ErrInvalidEvidence)
		}
	}

	return ext, nil
}

func pdfPageCount(content []byte) (n int, err error) {
	// The parser panics on some malformed inputs
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
