package models

import "time"

// Decision verdicts
const (
	DecisionValidated = "validated"
	DecisionRejected  = "rejected"
	DecisionResolved  = "resolved"
)

// Decision is the written verdict a handler attaches to a complaint transition.
type Decision struct {
	ID          string
	ComplaintID string
	DecidedBy   string
	Decision    string
	Details     string
	CreatedAt   time.Time
}
