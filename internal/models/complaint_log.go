package models

import "time"

// Complaint log actions
const (
	LogActionAbusiveAttempt     = "Abusive Complaint Attempt"
	LogActionComplaintSubmitted = "Complaint Submitted"
	LogActionComplaintModified  = "Complaint Modified"
	LogActionNoHandler          = "No Handler Available"
	LogActionComplaintValidated = "Complaint Validated"
	LogActionComplaintRejected  = "Complaint Rejected"
	LogActionComplaintAssigned  = "Complaint Assigned"
	LogActionComplaintEscalated = "Complaint Escalated"
	LogActionEscalationResolved = "Escalation Resolved"
	LogActionComplaintResolved  = "Complaint Resolved"
	LogActionUserBlocked        = "User Blocked"
	LogActionUserUnblocked      = "User Unblocked"
	LogActionSuspensionAdjusted = "Suspension Adjusted"
	LogActionBackupCreated      = "Backup Created"
	LogActionBackupRestored     = "Backup Restored"
)

// ComplaintLog is an append-only record of moderation, submission and admin events.
type ComplaintLog struct {
	ID        string
	UserID    string // empty for scheduled jobs
	Action    string
	Details   string
	CreatedAt time.Time
}

// LogFilter narrows log listings.
type LogFilter struct {
	Action string
	UserID string
	Limit  int
	Offset int
}
