package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// ComplaintLogRepository defines the interface for complaint log persistence
type ComplaintLogRepository interface {
	Create(ctx context.Context, log *models.ComplaintLog) (*models.ComplaintLog, error)
	List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error)
	CountSince(ctx context.Context, action string, since time.Time) (int64, error)
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// ComplaintLogService writes complaint log entries to both slog and the database.
type ComplaintLogService struct {
	repo   ComplaintLogRepository
	logger *slog.Logger
}

// NewComplaintLogService creates a new ComplaintLogService
func NewComplaintLogService(repo ComplaintLogRepository, logger *slog.Logger) *ComplaintLogService {
	return &ComplaintLogService{
		repo:   repo,
		logger: logger,
	}
}

// Log records an event. Persistence failures are logged and dropped.
func (s *ComplaintLogService) Log(ctx context.Context, actorID, action, details string) {
	_ = s.write(ctx, actorID, action, details)
}

// Record records an event and reports persistence failures.
func (s *ComplaintLogService) Record(ctx context.Context, actorID, action, details string) error {
	return s.write(ctx, actorID, action, details)
}

func (s *ComplaintLogService) write(ctx context.Context, actorID, action, details string) error {
	level := slog.LevelInfo
	if action == models.LogActionAbusiveAttempt || action == models.LogActionNoHandler {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "complaint log",
		slog.String("user_id", actorID),
		slog.String("action", action),
		slog.String("details", details),
	)

	_, err := s.repo.Create(ctx, &models.ComplaintLog{
		UserID:  actorID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist complaint log",
			slog.String("action", action),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to persist complaint log: %w", err)
	}

	return nil
}

// List returns log entries newest first.
func (s *ComplaintLogService) List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, 50, 500)

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list complaint logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return logs, nil
}

// Purge deletes entries older than days.
func (s *ComplaintLogService) Purge(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("%w: days must be at least 1", models.ErrBadRequest)
	}

	n, err := s.repo.Cleanup(ctx, days)
	if err != nil {
		s.logger.Error("failed to purge complaint logs", slog.Int("days", days), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.logger.Info("complaint logs purged", slog.Int("days", days), slog.Int64("deleted", n))
	return n, nil
}
