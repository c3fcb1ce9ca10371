package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

const backupPrefix = "backup_"
const backupExt = ".dump"

// CommandRunner runs an external program and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// BackupTarget is the database the dump tools connect to.
type BackupTarget struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// BackupConfig controls where dumps go and how many are kept.
type BackupConfig struct {
	Dir           string
	PgDumpPath    string
	PgRestorePath string
	Retention     int
}

// BackupFile describes one stored dump.
type BackupFile struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService dumps and restores the database with the PostgreSQL client tools.
type BackupService struct {
	runner CommandRunner
	target BackupTarget
	config BackupConfig
	events EventLogger
	now    func() time.Time
	logger *slog.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(runner CommandRunner, target BackupTarget, config BackupConfig, events EventLogger, logger *slog.Logger) *BackupService {
	return &BackupService{
		runner: runner,
		target: target,
		config: config,
		events: events,
		now:    time.Now,
		logger: logger,
	}
}

// Create writes a custom-format dump to the backup directory and returns its path.
// actorID is empty for scheduled runs.
func (s *BackupService) Create(ctx context.Context, actorID string) (string, error) {
	if err := os.MkdirAll(s.config.Dir, 0o750); err != nil {
		s.logger.Error("failed to create backup dir", slog.String("dir", s.config.Dir), slog.Any("error", err))
		return "", models.ErrBackupFailed
	}

	name := backupPrefix + s.now().UTC().Format("20060102_150405") + backupExt
	path := filepath.Join(s.config.Dir, name)

	args := append(s.connArgs(), "--format=custom", "--no-owner", "--file", path, s.target.Name)
	if err := s.run(ctx, s.config.PgDumpPath, args); err != nil {
		_ = os.Remove(path)
		return "", err
	}

	s.logger.Info("database backup created", slog.String("file", name))
	s.events.Log(ctx, actorID, models.LogActionBackupCreated, name)

	if err := s.prune(); err != nil {
		s.logger.Warn("failed to prune old backups", slog.Any("error", err))
	}

	return path, nil
}

// Restore replaces the database contents with an uploaded dump.
func (s *BackupService) Restore(ctx context.Context, actorID string, r io.Reader) error {
	tmp, err := os.CreateTemp("", "restore-*"+backupExt)
	if err != nil {
		s.logger.Error("failed to create restore temp file", slog.Any("error", err))
		return models.ErrBackupFailed
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		s.logger.Error("failed to write restore upload", slog.Any("error", err))
		return models.ErrBackupFailed
	}
	if err := tmp.Close(); err != nil {
		return models.ErrBackupFailed
	}

	args := append(s.connArgs(), "--clean", "--if-exists", "--no-owner", "--dbname", s.target.Name, tmp.Name())
	if err := s.run(ctx, s.config.PgRestorePath, args); err != nil {
		return err
	}

	s.logger.Warn("database restored from upload", slog.String("actor_id", actorID))
	s.events.Log(ctx, actorID, models.LogActionBackupRestored, "restored from uploaded dump")
	return nil
}

// List returns stored dumps, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupFile, error) {
	files, err := s.files()
	if err != nil {
		s.logger.Error("failed to list backups", slog.String("dir", s.config.Dir), slog.Any("error", err))
		return nil, models.ErrBackupFailed
	}
	return files, nil
}

func (s *BackupService) files() ([]BackupFile, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupFile{}, nil
		}
		return nil, err
	}

	files := make([]BackupFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, BackupFile{Name: e.Name(), SizeBytes: info.Size(), CreatedAt: info.ModTime()})
	}

	// Names embed the UTC timestamp so lexical order is chronological.
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// prune deletes dumps beyond the retention count.
func (s *BackupService) prune() error {
	if s.config.Retention <= 0 {
		return nil
	}
	files, err := s.files()
	if err != nil {
		return err
	}
	for _, f := range files[min(len(files), s.config.Retention):] {
		if err := os.Remove(filepath.Join(s.config.Dir, f.Name)); err != nil && !os.IsNotExist(err) {
			return err
		}
		s.logger.Info("pruned old backup", slog.String("file", f.Name))
	}
	return nil
}

func (s *BackupService) connArgs() []string {
	return []string{
		"--host", s.target.Host,
		"--port", strconv.Itoa(s.target.Port),
		"--username", s.target.User,
		"--no-password",
	}
}

// run executes a client tool with the password passed through the environment.
func (s *BackupService) run(ctx context.Context, bin string, args []string) error {
	env := []string{"PGPASSWORD=" + s.target.Password}
	out, err := s.runner.Run(ctx, env, bin, args...)
	if err != nil {
		s.logger.Error("backup command failed",
			slog.String("command", filepath.Base(bin)),
			slog.String("output", strings.TrimSpace(string(out))),
			slog.Any("error", err))
		return fmt.Errorf("%w: %s exited with an error", models.ErrBackupFailed, filepath.Base(bin))
	}
	return nil
}
