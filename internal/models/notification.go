package models

import "time"

type Notification struct {
	ID          string
	UserID      string
	ComplaintID *string
	Description string
	IsRead      bool
	CreatedAt   time.Time
}
