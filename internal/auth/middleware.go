package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/grievance/internal/models"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing session claims in context
	SessionContextKey contextKey = "session"
)

// RevocationChecker reports whether a session id has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserRepository loads the live account behind a session
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RevocationConfig holds configuration for revocation check failures
type RevocationConfig struct {
	FailClosed bool // deny the request when the revocation store cannot be read
}

// RequireSession validates the session cookie, rejects revoked sessions and injects the claims
// into the request context. When users is set the account is re-read on every request: blocked
// accounts get 403 and a role changed since sign-in ends the session, so the role in the
// claims is always current.
func RequireSession(sm *SessionManager, revocations RevocationChecker, users UserRepository, cfg RevocationConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := SessionCookie(r)
			if err != nil || token == "" {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			claims, err := sm.Validate(token)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("session revocation check failed",
						slog.String("user_id", claims.UserID),
						slog.Any("error", err),
					)
					if cfg.FailClosed {
						pkghttp.WriteServiceUnavailable(w, "unable to verify session")
						return
					}
				}
				if revoked {
					pkghttp.WriteUnauthorized(w, "session has ended")
					return
				}
			}

			if users != nil {
				user, err := users.GetByID(r.Context(), claims.UserID)
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "account no longer exists")
					return
				}
				if err != nil {
					logger.Error("failed to load session user",
						slog.String("user_id", claims.UserID),
						slog.Any("error", err),
					)
					pkghttp.WriteInternalError(w, "unable to verify session")
					return
				}
				if user.Status == models.UserStatusBlocked {
					pkghttp.WriteError(w, http.StatusForbidden, "account_blocked", "Your account is blocked")
					return
				}
				if user.Role != claims.Role {
					pkghttp.WriteUnauthorized(w, "your role has changed, please sign in again")
					return
				}
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the session role is one of roles.
// Must run after RequireSession.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			if !allowed[claims.Role] {
				pkghttp.WriteForbidden(w, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireEscalationRole admits any role that works an escalation inbox.
func RequireEscalationRole() func(next http.Handler) http.Handler {
	roles := make([]string, 0, len(models.EscalationRoles))
	for role := range models.EscalationRoles {
		roles = append(roles, role)
	}
	return RequireRole(roles...)
}

// ClaimsFromContext extracts session claims from a context
func ClaimsFromContext(ctx context.Context) *models.SessionClaims {
	claims, ok := ctx.Value(SessionContextKey).(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// PrincipalFromRequest returns the acting user of an authenticated request.
func PrincipalFromRequest(r *http.Request) (models.Principal, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return models.Principal{}, false
	}
	return models.Principal{UserID: claims.UserID, Role: claims.Role}, true
}

// WithClaims returns a copy of ctx carrying claims. Used by tests and internal callers.
func WithClaims(ctx context.Context, claims *models.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionContextKey, claims)
}
