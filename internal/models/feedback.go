package models

import "time"

// Feedback is a free-text message from a user to the administrators.
type Feedback struct {
	ID          string
	UserID      string
	ComplaintID *string
	Message     string
	CreatedAt   time.Time

	UserName string
}
