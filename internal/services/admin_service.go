package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// AdminUserCounter is the subset of UserRepository methods needed by AdminService.
type AdminUserCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// AdminComplaintCounter is the subset of ComplaintRepository methods needed by AdminService.
type AdminComplaintCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// AdminEscalationCounter is the subset of EscalationRepository methods needed by AdminService.
type AdminEscalationCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// AdminLogReader is the subset of ComplaintLogRepository methods needed by AdminService.
type AdminLogReader interface {
	List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error)
	CountSince(ctx context.Context, action string, since time.Time) (int64, error)
}

// ActivityEntry is a single item in a recent-activity feed.
type ActivityEntry struct {
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
}

// DashboardActivity contains recent event feeds.
type DashboardActivity struct {
	RecentSubmissions []ActivityEntry `json:"recent_submissions"`
	AbusiveAttempts   []ActivityEntry `json:"abusive_attempts"`
	RecentEscalations []ActivityEntry `json:"recent_escalations"`
}

// AdminService aggregates data for admin dashboard endpoints.
type AdminService struct {
	users       AdminUserCounter
	complaints  AdminComplaintCounter
	escalations AdminEscalationCounter
	logs        AdminLogReader
	now         func() time.Time
	logger      *slog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	users AdminUserCounter,
	complaints AdminComplaintCounter,
	escalations AdminEscalationCounter,
	logs AdminLogReader,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:       users,
		complaints:  complaints,
		escalations: escalations,
		logs:        logs,
		now:         time.Now,
		logger:      logger,
	}
}

// GetDashboardStats returns aggregate user and complaint counts.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	byStatus, err := s.users.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count users by status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count users by role", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	complaints, err := s.complaints.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count complaints", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	pending, err := s.escalations.CountPending(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count pending escalations", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	abusive, err := s.logs.CountSince(ctx, models.LogActionAbusiveAttempt, today)
	if err != nil {
		s.logger.Error("dashboard: failed to count abusive attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stats := &models.DashboardStats{
		ActiveUsers:          byStatus[models.UserStatusActive],
		SuspendedUsers:       byStatus[models.UserStatusSuspended],
		BlockedUsers:         byStatus[models.UserStatusBlocked],
		RoleBreakdown:        byRole,
		ComplaintsByStatus:   complaints,
		PendingEscalations:   pending,
		AbusiveAttemptsToday: abusive,
	}
	for _, n := range byStatus {
		stats.TotalUsers += n
	}
	for _, n := range complaints {
		stats.TotalComplaints += n
	}

	return stats, nil
}

// GetRecentActivity returns recent complaint log feeds for the activity dashboard.
// limit is clamped to a maximum of 20.
func (s *AdminService) GetRecentActivity(ctx context.Context, limit int) (*DashboardActivity, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	feed := func(action string) ([]ActivityEntry, error) {
		logs, err := s.logs.List(ctx, models.LogFilter{Action: action, Limit: limit})
		if err != nil {
			s.logger.Error("dashboard: failed to fetch activity", slog.String("action", action), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		entries := make([]ActivityEntry, 0, len(logs))
		for _, l := range logs {
			entries = append(entries, ActivityEntry{
				Timestamp: l.CreatedAt.UTC().Format(time.RFC3339),
				ActorID:   l.UserID,
				Action:    l.Action,
				Details:   l.Details,
			})
		}
		return entries, nil
	}

	submissions, err := feed(models.LogActionComplaintSubmitted)
	if err != nil {
		return nil, err
	}
	abusive, err := feed(models.LogActionAbusiveAttempt)
	if err != nil {
		return nil, err
	}
	escalations, err := feed(models.LogActionComplaintEscalated)
	if err != nil {
		return nil, err
	}

	return &DashboardActivity{
		RecentSubmissions: submissions,
		AbusiveAttempts:   abusive,
		RecentEscalations: escalations,
	}, nil
}
