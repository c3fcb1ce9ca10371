package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
	ErrHasDependents  = errors.New("resource is referenced by other records")

	// Account state errors
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrNoSuspensionChange = errors.New("user is not suspended; only a positive adjustment can suspend")
	ErrMFARequired        = errors.New("two-factor code required")
	ErrInvalidMFACode     = errors.New("invalid two-factor code")

	// Complaint workflow errors
	ErrRateLimitExceeded   = errors.New("complaint submission limit reached")
	ErrAbusiveContent      = errors.New("complaint contains abusive language")
	ErrComplaintNotPending = errors.New("complaint can only be modified while pending")
	ErrResolveNotAllowed   = errors.New("complaint cannot be resolved until its latest escalation is resolved")
	ErrInvalidTransition   = errors.New("action not allowed in the complaint's current status")
	ErrInvalidEvidence     = errors.New("invalid evidence file")

	// Collaborators
	ErrBackupFailed = errors.New("backup operation failed")
)
