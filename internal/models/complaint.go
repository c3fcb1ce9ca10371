package models

import (
	"time"
)

// Complaint categories
const (
	CategoryAcademic       = "academic"
	CategoryAdministrative = "administrative"
)

// Complaint visibility
const (
	VisibilityStandard  = "standard"
	VisibilityAnonymous = "anonymous"
)

// Complaint statuses
const (
	ComplaintStatusPending    = "pending"
	ComplaintStatusValidated  = "validated"
	ComplaintStatusInProgress = "in_progress"
	ComplaintStatusResolved   = "resolved"
	ComplaintStatusRejected   = "rejected"
)

type Complaint struct {
	ID             string
	UserID         string
	HandlerID      *string // nil when no active handler existed at submission
	Title          string
	Description    string
	Category       string
	Visibility     string
	Status         string
	EvidenceFile   *string // stored filename, relative to the upload dir
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolutionDate *time.Time

	// Populated by detail/list queries that join the owner row.
	OwnerName       string
	OwnerCollege    string
	OwnerDepartment string
}

// IsAnonymous reports whether the owner's identity must be hidden from staff.
func (c *Complaint) IsAnonymous() bool {
	return c.Visibility == VisibilityAnonymous
}

// ComplaintFilter narrows complaint listings. Empty fields match everything.
type ComplaintFilter struct {
	Status   string
	Category string
	Limit    int
	Offset   int
}

// ComplaintUpdate carries the owner-editable fields of a pending complaint.
type ComplaintUpdate struct {
	Title        string
	Description  string
	Visibility   string
	EvidenceFile *string // nil keeps the current file
}

// ComplaintDetail is a complaint with its audit timeline.
type ComplaintDetail struct {
	Complaint   *Complaint
	Escalations []*Escalation
	Decisions   []*Decision
	CanResolve  bool
}
