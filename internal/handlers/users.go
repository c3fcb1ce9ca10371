package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
	"github.com/BradenHooton/grievance/internal/suspension"
)

// UserServiceInterface defines account administration
type UserServiceInterface interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	CreateUser(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, actor models.Principal, id string, in services.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor models.Principal, id string) error
	ToggleBlock(ctx context.Context, actor models.Principal, id string) (*models.User, error)
	AdjustSuspension(ctx context.Context, actor models.Principal, id string, hours, minutes int) (*models.User, suspension.Outcome, error)
}

// UserHandler handles the admin user-management endpoints
type UserHandler struct {
	service UserServiceInterface
	flash   Flasher
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, flash Flasher) *UserHandler {
	return &UserHandler{service: service, flash: flash}
}

// Request/Response DTOs

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	FName      string `json:"fname" validate:"required,max=100"`
	LName      string `json:"lname" validate:"required,max=100"`
	Role       string `json:"role" validate:"required,role"`
	College    string `json:"college" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
}

// UpdateUserRequest represents the request body for updating a user. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FName      *string `json:"fname" validate:"omitempty,min=1,max=100"`
	LName      *string `json:"lname" validate:"omitempty,min=1,max=100"`
	Role       *string `json:"role" validate:"omitempty,role"`
	College    *string `json:"college" validate:"omitempty,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

// SuspensionRequest adjusts the remaining suspension by a signed amount
type SuspensionRequest struct {
	Hours   int `json:"hours" validate:"gte=-8760,lte=8760"`
	Minutes int `json:"minutes" validate:"gte=-525600,lte=525600"`
}

// SuspensionResponse reports the account after an adjustment
type SuspensionResponse struct {
	User    *UserResponse `json:"user"`
	Outcome string        `json:"outcome"`
}

// ListUsersResponse represents a list of users
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
	Total int             `json:"total"`
}

// ListUsers handles GET /admin/users?role=&status=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, err := h.service.ListUsers(r.Context(), models.UserFilter{
		Role:   r.URL.Query().Get("role"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		fail(w, r, nil, err)
		return
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userModelToResponse(u))
	}
	writeJSON(w, http.StatusOK, ListUsersResponse{Users: out, Total: len(out)})
}

// GetUser handles GET /admin/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, userModelToResponse(user))
}

// CreateUser handles POST /admin/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), services.CreateUserInput{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   req.Password,
		FName:      strings.TrimSpace(req.FName),
		LName:      strings.TrimSpace(req.LName),
		Role:       req.Role,
		College:    strings.TrimSpace(req.College),
		Department: strings.TrimSpace(req.Department),
	})
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusCreated, userModelToResponse(user), "User "+user.Username+" created")
}

// UpdateUser handles PUT /admin/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), p, chi.URLParam(r, "id"), services.UpdateUserInput{
		Email:      req.Email,
		FName:      req.FName,
		LName:      req.LName,
		Role:       req.Role,
		College:    req.College,
		Department: req.Department,
	})
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	done(w, r, h.flash, http.StatusOK, userModelToResponse(user), "User "+user.Username+" updated")
}

// DeleteUser handles DELETE /admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.flash, err)
		return
	}
	done(w, r, h.flash, http.StatusOK, nil, "User deleted")
}

// ToggleBlock handles POST /admin/users/{id}/block
func (h *UserHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.service.ToggleBlock(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	message := "User " + user.Username + " unblocked"
	if user.Status == models.UserStatusBlocked {
		message = "User " + user.Username + " blocked"
	}
	done(w, r, h.flash, http.StatusOK, userModelToResponse(user), message)
}

// AdjustSuspension handles POST /admin/users/{id}/suspension
func (h *UserHandler) AdjustSuspension(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req SuspensionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, outcome, err := h.service.AdjustSuspension(r.Context(), p, chi.URLParam(r, "id"), req.Hours, req.Minutes)
	if err != nil {
		fail(w, r, h.flash, err)
		return
	}

	var message string
	switch {
	case outcome == suspension.Lifted:
		message = fmt.Sprintf("Suspension lifted for %s", user.Username)
	case outcome == suspension.Suspended && user.SuspendedUntil != nil:
		message = fmt.Sprintf("%s is suspended until %s", user.Username, user.SuspendedUntil.UTC().Format("2006-01-02 15:04 MST"))
	default:
		message = "Suspension unchanged"
	}

	done(w, r, h.flash, http.StatusOK, SuspensionResponse{User: userModelToResponse(user), Outcome: outcome.String()}, message)
}
