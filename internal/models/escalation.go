package models

import (
	"time"
)

// Escalation action types
const (
	EscalationActionAssignment = "assignment"
	EscalationActionEscalation = "escalation"
)

// Escalation statuses
const (
	EscalationStatusPending  = "pending"
	EscalationStatusResolved = "resolved"
)

// Escalation is one entry in a complaint's append-only assignment/escalation timeline.
type Escalation struct {
	ID                string
	ComplaintID       string
	ActionType        string
	EscalatedTo       string // role name
	EscalatedBy       string // user id
	Status            string
	College           string // org snapshot taken when the entry was created
	Department        string
	OriginalHandlerID *string
	ResolutionDetails *string
	CreatedAt         time.Time
	ResolvedAt        *time.Time

	// Populated by inbox queries.
	ComplaintTitle string
}

// IsResolved reports whether the entry has been resolved.
func (e *Escalation) IsResolved() bool {
	return e.Status == EscalationStatusResolved
}
