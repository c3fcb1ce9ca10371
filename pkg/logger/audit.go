package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventLogin        = "login"
	EventLoginFailed  = "login_failed"
	EventLogout       = "logout"
	EventRegister     = "register"
	EventMFASetup     = "mfa_setup"
	EventMFAEnabled   = "mfa_enabled"
	EventMFADisabled  = "mfa_disabled"
	EventMFAFailed    = "mfa_failed"
	EventAdminAccount = "admin_account"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Identifier    string // login name as typed; masked before logging
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security audit lines next to the application log.
type AuditLogger struct {
	logger *slog.Logger
}

type clientIPKey struct{}

// WithClientIP returns a copy of ctx carrying the caller's address for audit lines.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs login, logout, registration and second-factor events.
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	if al == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Identifier != "" {
		attrs = append(attrs, slog.String("identifier", MaskIdentifier(event.Identifier)))
	}
	if event.IPAddress == "" {
		event.IPAddress = ClientIP(ctx)
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogAccountAction logs an administrative change to someone's account.
func (al *AuditLogger) LogAccountAction(ctx context.Context, actorID, targetID, action string) {
	if al == nil {
		return
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "account"),
		slog.String("event_type", EventAdminAccount),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.String("action", action),
		slog.String("ip_address", ClientIP(ctx)),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}
