package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// SubmissionCounter counts a user's recent complaints.
type SubmissionCounter interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// RateLimitConfig holds configuration for complaint submission limits
type RateLimitConfig struct {
	MaxSubmissions int
	Window         time.Duration
}

// SubmissionLimiter caps how many complaints one user may file inside a sliding window.
type SubmissionLimiter struct {
	repo   SubmissionCounter
	config RateLimitConfig
	logger *slog.Logger
}

// NewSubmissionLimiter creates a new SubmissionLimiter
func NewSubmissionLimiter(repo SubmissionCounter, config RateLimitConfig, logger *slog.Logger) *SubmissionLimiter {
	return &SubmissionLimiter{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// Check returns ErrRateLimitExceeded when the user already filed MaxSubmissions complaints
// after now-Window. Count failures let the submission through.
func (l *SubmissionLimiter) Check(ctx context.Context, userID string, now time.Time) error {
	count, err := l.repo.CountSince(ctx, userID, now.Add(-l.config.Window))
	if err != nil {
		l.logger.Error("failed to check submission rate limit",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil
	}

	if count >= l.config.MaxSubmissions {
		l.logger.Warn("complaint submission rate limited",
			slog.String("user_id", userID),
			slog.Int("recent_submissions", count),
			slog.Duration("window", l.config.Window))
		return models.ErrRateLimitExceeded
	}

	return nil
}
