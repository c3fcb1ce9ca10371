package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCleaner struct {
	calls int
	err   error
}

func (s *stubCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	s.calls++
	return 3, s.err
}

type stubBackupper struct {
	actors []string
	err    error
}

func (s *stubBackupper) Create(ctx context.Context, actorID string) (string, error) {
	s.actors = append(s.actors, actorID)
	return "/var/backups/backup_20260504_020000.dump", s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewScheduler_RegistersConfiguredJobs(t *testing.T) {
	tests := []struct {
		name      string
		schedules Schedules
		want      int
	}{
		{"both", Schedules{SessionCleanup: "0 0 * * * *", Backup: "0 0 2 * * *"}, 2},
		{"backup disabled", Schedules{SessionCleanup: "0 0 * * * *"}, 1},
		{"none", Schedules{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(&stubCleaner{}, &stubBackupper{}, tt.schedules, discard())
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Jobs())
		})
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&stubCleaner{}, nil, Schedules{SessionCleanup: "every hour"}, discard())
	assert.Error(t, err)
}

func TestNewScheduler_NilCollaboratorSkipsJob(t *testing.T) {
	s, err := NewScheduler(&stubCleaner{}, nil, Schedules{SessionCleanup: "0 0 * * * *", Backup: "0 0 2 * * *"}, discard())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())
}

func TestScheduler_Jobs(t *testing.T) {
	cleaner := &stubCleaner{err: errors.New("connection reset")}
	backups := &stubBackupper{}
	s, err := NewScheduler(cleaner, backups, Schedules{}, discard())
	require.NoError(t, err)

	assert.NotPanics(t, s.CleanupSessions)
	s.RunBackup()

	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, []string{""}, backups.actors)
}
