package handlers

import (
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

const timeFormat = time.RFC3339

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeFormat)
	return &s
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FName          string  `json:"fname"`
	LName          string  `json:"lname"`
	Role           string  `json:"role"`
	College        string  `json:"college,omitempty"`
	Department     string  `json:"department,omitempty"`
	Status         string  `json:"status"`
	SuspendedUntil *string `json:"suspended_until,omitempty"`
	MFAEnabled     bool    `json:"mfa_enabled"`
	CreatedAt      string  `json:"created_at"`
}

func userModelToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FName:          u.FName,
		LName:          u.LName,
		Role:           u.Role,
		College:        u.College,
		Department:     u.Department,
		Status:         u.Status,
		SuspendedUntil: formatTime(u.SuspendedUntil),
		MFAEnabled:     u.MFAEnabled,
		CreatedAt:      u.CreatedAt.UTC().Format(timeFormat),
	}
}

// ComplaintResponse represents a complaint. Owner fields are blank for masked anonymous complaints.
type ComplaintResponse struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"owner_id,omitempty"`
	OwnerName       string  `json:"owner_name,omitempty"`
	OwnerCollege    string  `json:"owner_college,omitempty"`
	OwnerDepartment string  `json:"owner_department,omitempty"`
	HandlerID       *string `json:"handler_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Visibility      string  `json:"visibility"`
	Status          string  `json:"status"`
	EvidenceFile    *string `json:"evidence_file,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	ResolutionDate  *string `json:"resolution_date,omitempty"`
}

func complaintToResponse(c *models.Complaint) *ComplaintResponse {
	return &ComplaintResponse{
		ID:              c.ID,
		OwnerID:         c.UserID,
		OwnerName:       c.OwnerName,
		OwnerCollege:    c.OwnerCollege,
		OwnerDepartment: c.OwnerDepartment,
		HandlerID:       c.HandlerID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Visibility:      c.Visibility,
		Status:          c.Status,
		EvidenceFile:    c.EvidenceFile,
		CreatedAt:       c.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:       c.UpdatedAt.UTC().Format(timeFormat),
		ResolutionDate:  formatTime(c.ResolutionDate),
	}
}

func complaintsToResponse(list []*models.Complaint) []*ComplaintResponse {
	out := make([]*ComplaintResponse, 0, len(list))
	for _, c := range list {
		out = append(out, complaintToResponse(c))
	}
	return out
}

// EscalationResponse represents one timeline entry
type EscalationResponse struct {
	ID                string  `json:"id"`
	ComplaintID       string  `json:"complaint_id"`
	ComplaintTitle    string  `json:"complaint_title,omitempty"`
	ActionType        string  `json:"action_type"`
	EscalatedTo       string  `json:"escalated_to"`
	EscalatedBy       string  `json:"escalated_by"`
	Status            string  `json:"status"`
	College           string  `json:"college,omitempty"`
	Department        string  `json:"department,omitempty"`
	OriginalHandlerID *string `json:"original_handler_id,omitempty"`
	ResolutionDetails *string `json:"resolution_details,omitempty"`
	CreatedAt         string  `json:"created_at"`
	ResolvedAt        *string `json:"resolved_at,omitempty"`
}

func escalationToResponse(e *models.Escalation) *EscalationResponse {
	return &EscalationResponse{
		ID:                e.ID,
		ComplaintID:       e.ComplaintID,
		ComplaintTitle:    e.ComplaintTitle,
		ActionType:        e.ActionType,
		EscalatedTo:       e.EscalatedTo,
		EscalatedBy:       e.EscalatedBy,
		Status:            e.Status,
		College:           e.College,
		Department:        e.Department,
		OriginalHandlerID: e.OriginalHandlerID,
		ResolutionDetails: e.ResolutionDetails,
		CreatedAt:         e.CreatedAt.UTC().Format(timeFormat),
		ResolvedAt:        formatTime(e.ResolvedAt),
	}
}

func escalationsToResponse(list []*models.Escalation) []*EscalationResponse {
	out := make([]*EscalationResponse, 0, len(list))
	for _, e := range list {
		out = append(out, escalationToResponse(e))
	}
	return out
}

// DecisionResponse represents a handler verdict
type DecisionResponse struct {
	ID        string `json:"id"`
	DecidedBy string `json:"decided_by"`
	Decision  string `json:"decision"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// ComplaintDetailResponse is a complaint with its timeline
type ComplaintDetailResponse struct {
	Complaint   *ComplaintResponse    `json:"complaint"`
	Escalations []*EscalationResponse `json:"escalations"`
	Decisions   []*DecisionResponse   `json:"decisions"`
	CanResolve  bool                  `json:"can_resolve"`
}

func detailToResponse(d *models.ComplaintDetail) *ComplaintDetailResponse {
	decisions := make([]*DecisionResponse, 0, len(d.Decisions))
	for _, dec := range d.Decisions {
		decisions = append(decisions, &DecisionResponse{
			ID:        dec.ID,
			DecidedBy: dec.DecidedBy,
			Decision:  dec.Decision,
			Details:   dec.Details,
			CreatedAt: dec.CreatedAt.UTC().Format(timeFormat),
		})
	}
	return &ComplaintDetailResponse{
		Complaint:   complaintToResponse(d.Complaint),
		Escalations: escalationsToResponse(d.Escalations),
		Decisions:   decisions,
		CanResolve:  d.CanResolve,
	}
}

// NotificationResponse represents an in-app notification
type NotificationResponse struct {
	ID          string  `json:"id"`
	ComplaintID *string `json:"complaint_id,omitempty"`
	Description string  `json:"description"`
	IsRead      bool    `json:"is_read"`
	CreatedAt   string  `json:"created_at"`
}

// NoticeResponse represents a board notice
type NoticeResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	PostedBy  string `json:"posted_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func noticeToResponse(n *models.Notice) *NoticeResponse {
	return &NoticeResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		PostedBy:  n.PostedBy,
		CreatedAt: n.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: n.UpdatedAt.UTC().Format(timeFormat),
	}
}

// FeedbackResponse represents a feedback message
type FeedbackResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name,omitempty"`
	ComplaintID *string `json:"complaint_id,omitempty"`
	Message     string  `json:"message"`
	CreatedAt   string  `json:"created_at"`
}

func feedbackToResponse(f *models.Feedback) *FeedbackResponse {
	return &FeedbackResponse{
		ID:          f.ID,
		UserID:      f.UserID,
		UserName:    f.UserName,
		ComplaintID: f.ComplaintID,
		Message:     f.Message,
		CreatedAt:   f.CreatedAt.UTC().Format(timeFormat),
	}
}

// LogResponse represents a complaint log row
type LogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// AbusiveWordResponse represents a blocklisted word
type AbusiveWordResponse struct {
	ID        string `json:"id"`
	Word      string `json:"word"`
	CreatedAt string `json:"created_at"`
}
