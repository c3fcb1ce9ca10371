package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/flash"
	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// AccountServiceInterface defines the interface for account business logic
type AccountServiceInterface interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password, code string) (*services.LoginResult, error)
	Logout(ctx context.Context, claims *models.SessionClaims) error
	Session(ctx context.Context, claims *models.SessionClaims) (*models.User, error)
	SetupMFA(ctx context.Context, userID string) (*auth.TOTPEnrollment, error)
	EnableMFA(ctx context.Context, userID, code string) error
	DisableMFA(ctx context.Context, userID, code string) error
}

// FlashStore queues and consumes flash messages
type FlashStore interface {
	Flasher
	Pop(ctx context.Context, sessionID string) (*flash.Message, error)
}

// AuthHandler handles registration, login and the session endpoints
type AuthHandler struct {
	service AccountServiceInterface
	flash   FlashStore
	cookies auth.CookieConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AccountServiceInterface, flash FlashStore, cookies auth.CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		flash:   flash,
		cookies: cookies,
		logger:  logger,
		now:     time.Now,
	}
}

// Request DTOs

// RegisterRequest represents the request body for self-service registration
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	FName      string `json:"fname" validate:"required,max=100"`
	LName      string `json:"lname" validate:"required,max=100"`
	College    string `json:"college" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
}

// LoginRequest represents the request body for login by username or email
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Code       string `json:"code" validate:"omitempty,len=6,numeric"`
}

// MFACodeRequest carries a six digit authenticator code
type MFACodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// MFASetupResponse is returned once when enrolment starts
type MFASetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

// FlashResponse is the pending one-shot message, if any
type FlashResponse struct {
	Flash *flash.Message `json:"flash"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   req.Password,
		FName:      strings.TrimSpace(req.FName),
		LName:      strings.TrimSpace(req.LName),
		College:    strings.TrimSpace(req.College),
		Department: strings.TrimSpace(req.Department),
	})
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusCreated, userModelToResponse(user))
}

// Login handles POST /auth/login and sets the session and CSRF cookies
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Identifier, req.Password, req.Code)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	csrfToken, err := auth.NewCSRFToken()
	if err != nil {
		h.logger.Error("failed to create csrf token", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	ttl := result.Claims.ExpiresAt.Time.Sub(h.now())
	auth.SetSessionCookies(w, result.Token, csrfToken, ttl, h.cookies)

	h.flash.Success(r.Context(), result.Claims.SessionID(), "Welcome back, "+result.User.FName)
	writeJSON(w, http.StatusOK, userModelToResponse(result.User))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		fail(w, r, nil, err)
		return
	}

	auth.ClearSessionCookies(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /session and returns the live account behind the cookie
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	user, err := h.service.Session(r.Context(), claims)
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(user))
}

// Flash handles GET /session/flash. Reading consumes the message.
func (h *AuthHandler) Flash(w http.ResponseWriter, r *http.Request) {
	msg, err := h.flash.Pop(r.Context(), sessionID(r))
	if err != nil {
		h.logger.Warn("failed to read flash message", slog.Any("error", err))
		msg = nil
	}
	writeJSON(w, http.StatusOK, FlashResponse{Flash: msg})
}

// SetupMFA handles POST /account/mfa/setup
func (h *AuthHandler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	enrollment, err := h.service.SetupMFA(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	writeJSON(w, http.StatusOK, MFASetupResponse{
		Secret: enrollment.Secret,
		QRCode: enrollment.QRCodeDataURL,
	})
}

// EnableMFA handles POST /account/mfa/enable
func (h *AuthHandler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	h.mfaChange(w, r, h.service.EnableMFA, "Two-factor authentication enabled")
}

// DisableMFA handles POST /account/mfa/disable
func (h *AuthHandler) DisableMFA(w http.ResponseWriter, r *http.Request) {
	h.mfaChange(w, r, h.service.DisableMFA, "Two-factor authentication disabled")
}

func (h *AuthHandler) mfaChange(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, code string) error, message string) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req MFACodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := apply(r.Context(), p.UserID, req.Code); err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusOK, nil, message)
}
