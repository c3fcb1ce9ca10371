package models

import "time"

// Notice is an announcement shown to every signed-in user.
type Notice struct {
	ID        string
	Title     string
	Body      string
	PostedBy  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
