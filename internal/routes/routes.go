package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/handlers"
	"github.com/BradenHooton/grievance/internal/middleware"
	"github.com/BradenHooton/grievance/internal/models"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandler
	Complaints    *handlers.ComplaintHandler
	Escalations   *handlers.EscalationHandler
	Notifications *handlers.NotificationHandler
	Board         *handlers.BoardHandler
	Users         *handlers.UserHandler
	Moderation    *handlers.ModerationHandler
	Admin         *handlers.AdminHandler
	Backups       *handlers.BackupHandler
	Health        handlers.HealthChecker
}

// Options carries the session and limiter settings for the route tree
type Options struct {
	Sessions    *auth.SessionManager
	Revocations auth.RevocationChecker
	Users       auth.UserRepository
	Revocation  auth.RevocationConfig
	LoginLimit  middleware.RateLimitConfig
}

// complainantRoles may file complaints: students and staff, not administrators
func complainantRoles() []string {
	roles := []string{models.RoleUser, models.RoleHandler}
	for role := range models.EscalationRoles {
		roles = append(roles, role)
	}
	return roles
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(middleware.CSRFProtection(logger))

	// Public routes - no session required
	router.Get("/health", handlers.Health(h.Health))
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(opts.LoginLimit))
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
	})

	// Session routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(opts.Sessions, opts.Revocations, opts.Users, opts.Revocation, logger))
		r.Use(middleware.TagUser)

		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/session", h.Auth.Session)
		r.Get("/session/flash", h.Auth.Flash)

		r.Post("/account/mfa/setup", h.Auth.SetupMFA)
		r.Post("/account/mfa/enable", h.Auth.EnableMFA)
		r.Post("/account/mfa/disable", h.Auth.DisableMFA)

		r.Get("/notifications", h.Notifications.List)
		r.Get("/notifications/unread-count", h.Notifications.UnreadCount)
		r.Post("/notifications/{id}/read", h.Notifications.MarkRead)
		r.Post("/notifications/read-all", h.Notifications.MarkAllRead)

		r.Get("/notices", h.Board.ListNotices)
		r.Post("/feedback", h.Board.SubmitFeedback)

		r.Get("/complaints/{id}", h.Complaints.GetDetail)

		// Complainants
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(complainantRoles()...))
			r.Post("/complaints", h.Complaints.Submit)
			r.Get("/complaints/mine", h.Complaints.ListMine)
			r.Put("/complaints/{id}", h.Complaints.Modify)
		})

		// Handlers and admins
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleHandler, models.RoleAdmin))
			r.Get("/handler/complaints", h.Complaints.HandlerQueue)
			r.Post("/complaints/{id}/validate", h.Escalations.Validate)
			r.Post("/complaints/{id}/reject", h.Escalations.Reject)
			r.Post("/complaints/{id}/assign", h.Escalations.Assign)
			r.Post("/complaints/{id}/resolve", h.Escalations.Resolve)
		})

		// Escalation offices
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireEscalationRole())
			r.Get("/escalations/inbox", h.Escalations.Inbox)
			r.Post("/escalations/{id}/resolve", h.Escalations.ResolveEscalation)
			r.Post("/escalations/{id}/escalate", h.Escalations.Escalate)
		})

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/users", h.Users.ListUsers)
			r.Post("/users", h.Users.CreateUser)
			r.Get("/users/{id}", h.Users.GetUser)
			r.Put("/users/{id}", h.Users.UpdateUser)
			r.Delete("/users/{id}", h.Users.DeleteUser)
			r.Post("/users/{id}/block", h.Users.ToggleBlock)
			r.Post("/users/{id}/suspension", h.Users.AdjustSuspension)

			r.Get("/abusive-words", h.Moderation.ListWords)
			r.Post("/abusive-words", h.Moderation.AddWord)
			r.Post("/abusive-words/check", h.Moderation.CheckText)
			r.Delete("/abusive-words/{id}", h.Moderation.DeleteWord)

			r.Get("/logs", h.Admin.ListLogs)
			r.Delete("/logs", h.Admin.PurgeLogs)
			r.Get("/dashboard/stats", h.Admin.GetDashboardStats)
			r.Get("/dashboard/activity", h.Admin.GetRecentActivity)

			r.Get("/feedback", h.Board.ListFeedback)
			r.Delete("/feedback/{id}", h.Board.DeleteFeedback)
			r.Post("/notices", h.Board.PostNotice)
			r.Put("/notices/{id}", h.Board.EditNotice)
			r.Delete("/notices/{id}", h.Board.DeleteNotice)

			r.Get("/backups", h.Backups.List)
			r.Post("/backups", h.Backups.Create)
			r.Post("/backups/restore", h.Backups.Restore)
		})
	})
}
