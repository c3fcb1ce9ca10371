package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/models"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

const maxJSONBody = 1 << 20

// Flasher queues the one-shot status message shown after a mutating request.
type Flasher interface {
	Success(ctx context.Context, sessionID, message string)
	Error(ctx context.Context, sessionID, message string)
}

// MessageResponse is the body of mutations that return nothing else
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body")
	}
	return nil
}

// decodeAndValidate reads a JSON body into dst and runs the validator tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		writeInvalid(w, err)
		return false
	}
	return true
}

// writeInvalid answers 400, naming the offending field when the validator found one
func writeInvalid(w http.ResponseWriter, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		pkghttp.WriteFieldError(w, fe.Field, fe.Error())
		return
	}
	pkghttp.WriteBadRequest(w, err.Error())
}

func sessionID(r *http.Request) string {
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.SessionID()
	}
	return ""
}

// principal returns the acting user or answers 401
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := auth.PrincipalFromRequest(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
	}
	return p, ok
}

// pageParams reads ?limit and ?offset. Services clamp the values.
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}

// done writes a successful mutation and queues the matching flash message
func done(w http.ResponseWriter, r *http.Request, flash Flasher, status int, body any, message string) {
	if flash != nil {
		flash.Success(r.Context(), sessionID(r), message)
	}
	if body == nil {
		body = MessageResponse{Message: message}
	}
	writeJSON(w, status, body)
}

// fail maps a service error to a status and, for mutations, queues the same text as a flash message
func fail(w http.ResponseWriter, r *http.Request, flash Flasher, err error) {
	status, code, message := classify(err)
	if flash != nil && r.Method != http.MethodGet {
		flash.Error(r.Context(), sessionID(r), message)
	}
	pkghttp.WriteError(w, status, code, message)
}

// classify turns a service error into a status, an error code and a message that is safe to show.
// Authorization and persistence failures get generic text.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidEvidence),
		errors.Is(err, models.ErrNoSuspensionChange):
		return http.StatusBadRequest, "bad_request", explain(err)
	case errors.Is(err, models.ErrAbusiveContent):
		return http.StatusUnprocessableEntity, "abusive_content", explain(err)
	case errors.Is(err, models.ErrMFARequired):
		return http.StatusUnauthorized, "mfa_required", "Two-factor code required"
	case errors.Is(err, models.ErrInvalidMFACode):
		return http.StatusUnauthorized, "unauthorized", "Invalid two-factor code"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Authentication failed"
	case errors.Is(err, models.ErrAccountBlocked):
		return http.StatusForbidden, "account_blocked", "Your account is blocked"
	case errors.Is(err, models.ErrAccountSuspended):
		return http.StatusForbidden, "account_suspended", explain(err)
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found", "Not found"
	case errors.Is(err, models.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "rate_limit_exceeded", explain(err)
	case errors.Is(err, models.ErrComplaintNotPending),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrResolveNotAllowed),
		errors.Is(err, models.ErrHasDependents),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict", explain(err)
	case errors.Is(err, models.ErrBackupFailed):
		return http.StatusBadGateway, "backup_failed", "Backup operation failed"
	default:
		return http.StatusInternalServerError, "internal_error", "Something went wrong, please try again"
	}
}

// explain capitalises the wrapped error text for display
func explain(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
