package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionCleaner removes logout blocklist entries whose sessions have expired anyway.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Backupper takes a scheduled database dump. An empty actor marks a system backup.
type Backupper interface {
	Create(ctx context.Context, actorID string) (string, error)
}

// Schedules holds six-field cron specs (seconds first). An empty spec disables that job.
type Schedules struct {
	SessionCleanup string
	Backup         string
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionCleaner
	backups  Backupper
	logger   *slog.Logger
	timeout  time.Duration
}

// NewScheduler registers the jobs for the given schedules. Either collaborator may be nil.
func NewScheduler(sessions SessionCleaner, backups Backupper, schedules Schedules, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sessions: sessions,
		backups:  backups,
		logger:   logger,
		timeout:  10 * time.Minute,
	}

	if sessions != nil && schedules.SessionCleanup != "" {
		if _, err := s.cron.AddFunc(schedules.SessionCleanup, s.CleanupSessions); err != nil {
			return nil, fmt.Errorf("invalid session cleanup schedule %q: %w", schedules.SessionCleanup, err)
		}
	}

	if backups != nil && schedules.Backup != "" {
		if _, err := s.cron.AddFunc(schedules.Backup, s.RunBackup); err != nil {
			return nil, fmt.Errorf("invalid backup schedule %q: %w", schedules.Backup, err)
		}
	}

	return s, nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", slog.Int("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// CleanupSessions removes expired revocations
func (s *Scheduler) CleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rowsDeleted, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("failed to cleanup expired sessions", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		s.logger.Info("expired session cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// RunBackup takes a system backup
func (s *Scheduler) RunBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	path, err := s.backups.Create(ctx, "")
	if err != nil {
		s.logger.Error("scheduled backup failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled backup completed", slog.String("path", path))
}
