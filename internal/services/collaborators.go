package services

import (
	"context"
)

// Transactor runs fn inside one database transaction. Repository calls made with the ctx
// passed to fn join that transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers in-app notifications. Delivery is best effort: failures are logged by the
// implementation and never surface to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, complaintID *string, message string)
	NotifyRole(ctx context.Context, role, college, department string, complaintID *string, message string) int
}

// EventLogger appends complaint log entries.
type EventLogger interface {
	// Log records the event and swallows persistence failures.
	Log(ctx context.Context, actorID, action, details string)
	// Record records the event and returns persistence failures, for use inside a transaction.
	Record(ctx context.Context, actorID, action, details string) error
}

func strPtr(s string) *string {
	return &s
}

// clampPage normalizes list pagination.
func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
