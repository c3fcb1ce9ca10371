package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the request-scoped identity carried by the signed session cookie.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	FName  string `json:"fname"`
	LName  string `json:"lname"`
	jwt.RegisteredClaims
}

// SessionID returns the token id, used as the key for revocation and the flash channel.
func (c *SessionClaims) SessionID() string {
	return c.ID
}

// SessionRevocation marks a session token as logged out until it would have expired anyway.
type SessionRevocation struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}

// Principal is the authenticated actor passed into service calls.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
