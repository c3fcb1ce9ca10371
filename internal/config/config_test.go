package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/grievance/internal/models"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   any
		expected any
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"RequestTimeout", cfg.Server.RequestTimeout, 60 * time.Second},
		{"SessionTTL", cfg.Auth.SessionTTL, 8 * time.Hour},
		{"CookieSecure", cfg.Auth.CookieSecure, false},
		{"RateLimit", cfg.Complaints.RateLimit, 3},
		{"RateWindow", cfg.Complaints.RateWindow, time.Hour},
		{"AbusivePenalty", cfg.Complaints.AbusivePenalty, 2 * time.Hour},
		{"MaxUploadBytes", cfg.Complaints.MaxUploadBytes, int64(5 << 20)},
		{"EmailEnabled", cfg.Email.Enabled, false},
		{"BackupSchedule", cfg.Backup.Schedule, ""},
		{"BackupRetention", cfg.Backup.Retention, 14},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	require.NotNil(t, cfg.Escalation)
	assert.True(t, cfg.Escalation.CanAssign(models.CategoryAcademic, models.RoleDepartmentHead))
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("COMPLAINT_RATE_LIMIT", "5")
	t.Setenv("COMPLAINT_RATE_WINDOW", "30m")
	t.Setenv("ABUSIVE_SUSPENSION_PENALTY", "4h")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,172.16.0.1 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5, cfg.Complaints.RateLimit)
	assert.Equal(t, 30*time.Minute, cfg.Complaints.RateWindow)
	assert.Equal(t, 4*time.Hour, cfg.Complaints.AbusivePenalty)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.Server.TrustedProxies)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	// Invalid duration should fall back to default
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing session secret",
			env:  map[string]string{"SESSION_SECRET": "", "DB_PASSWORD": "test"},
		},
		{
			name: "missing db password",
			env:  map[string]string{"SESSION_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": ""},
		},
		{
			name: "short secret in production",
			env:  map[string]string{"SESSION_SECRET": "only-twenty-chars!!!", "DB_PASSWORD": "test", "ENV": "production"},
		},
		{
			name: "zero rate limit",
			env:  map[string]string{"SESSION_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test", "COMPLAINT_RATE_LIMIT": "0"},
		},
		{
			name: "negative penalty",
			env:  map[string]string{"SESSION_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test", "ABUSIVE_SUSPENSION_PENALTY": "-1h"},
		},
		{
			name: "totp key wrong length",
			env:  map[string]string{"SESSION_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test", "TOTP_ENCRYPTION_KEY": "short"},
		},
		{
			name: "missing policy file",
			env:  map[string]string{"SESSION_SECRET": "test-secret-32-characters-long!", "DB_PASSWORD": "test", "ESCALATION_POLICY_FILE": "/nonexistent/policy.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateSessionSecret(t *testing.T) {
	assert.NoError(t, validateSessionSecret("sixteen-chars-ok", "development"))
	assert.Error(t, validateSessionSecret("short", "development"))
	assert.Error(t, validateSessionSecret("sixteen-chars-ok", "production"))
	assert.NoError(t, validateSessionSecret("a-thirty-two-character-secret!!!", "production"))
}

func TestLoad_PolicyFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	policy := []byte(`
assignable_roles:
  academic: [department_head]
  administrative: [dormitory_service]
escalation_paths:
  department_head: [college_dean]
`)
	require.NoError(t, os.WriteFile(path, policy, 0o600))
	t.Setenv("ESCALATION_POLICY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Escalation.CanAssign(models.CategoryAcademic, models.RoleDepartmentHead))
	assert.False(t, cfg.Escalation.CanAssign(models.CategoryAcademic, models.RoleRegistrar))
}
