package models

import (
	"time"
)

// Account statuses
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusBlocked   = "blocked"
)

type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	FName          string
	LName          string
	Role           string
	College        string // empty when the role carries no org unit
	Department     string
	Status         string     // "active", "suspended", "blocked"
	SuspendedUntil *time.Time // non-nil iff Status == "suspended"
	MFAEnabled     bool
	TOTPSecret     []byte // AES-GCM encrypted base32 secret
	TOTPNonce      []byte
	TOTPLastUsedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName returns "fname lname" trimmed of missing parts.
func (u *User) FullName() string {
	switch {
	case u.FName == "":
		return u.LName
	case u.LName == "":
		return u.FName
	}
	return u.FName + " " + u.LName
}

// UserFilter narrows admin user listings. Empty fields match everything.
type UserFilter struct {
	Role   string
	Status string
	Limit  int
	Offset int
}
