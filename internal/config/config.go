package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Complaints ComplaintsConfig
	Redis      RedisConfig
	Email      EmailConfig
	Backup     BackupConfig
	Escalation *EscalationPolicy
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string // CIDR ranges allowed to set X-Forwarded-For
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type AuthConfig struct {
	SessionSecret      string
	SessionTTL         time.Duration
	CookieSecure       bool
	TOTPEncryptionKey  string
	CleanupSchedule    string
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	BootstrapAdminUser string
	BootstrapAdminPass string
	BootstrapAdminMail string
}

type ComplaintsConfig struct {
	RateLimit      int
	RateWindow     time.Duration
	AbusivePenalty time.Duration
	UploadDir      string
	MaxUploadBytes int64
}

type RedisConfig struct {
	URL      string
	FlashTTL time.Duration
}

type EmailConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
}

type BackupConfig struct {
	Dir           string
	PgDumpPath    string
	PgRestorePath string
	Schedule      string
	Retention     int
	MaxRestore    int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "grievance"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret:      sessionSecret,
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 8*time.Hour),
			CookieSecure:       getEnvAsBool("COOKIE_SECURE", env == "production"),
			TOTPEncryptionKey:  getEnv("TOTP_ENCRYPTION_KEY", ""),
			CleanupSchedule:    getEnv("SESSION_CLEANUP_SCHEDULE", "0 0 * * * *"),
			LoginRateLimit:     getEnvAsInt("LOGIN_RATE_LIMIT", 5),
			LoginRateWindow:    getEnvAsDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
			BootstrapAdminUser: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
			BootstrapAdminPass: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			BootstrapAdminMail: getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		},
		Complaints: ComplaintsConfig{
			RateLimit:      getEnvAsInt("COMPLAINT_RATE_LIMIT", 3),
			RateWindow:     getEnvAsDuration("COMPLAINT_RATE_WINDOW", 1*time.Hour),
			AbusivePenalty: getEnvAsDuration("ABUSIVE_SUSPENSION_PENALTY", 2*time.Hour),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			FlashTTL: getEnvAsDuration("FLASH_TTL", 5*time.Minute),
		},
		Email: EmailConfig{
			Enabled:     getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.edu"),
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", "./backups"),
			PgDumpPath:    getEnv("PG_DUMP_PATH", "pg_dump"),
			PgRestorePath: getEnv("PG_RESTORE_PATH", "pg_restore"),
			Schedule:      getEnv("BACKUP_SCHEDULE", ""),
			Retention:     getEnvAsInt("BACKUP_RETENTION", 14),
			MaxRestore:    int64(getEnvAsInt("BACKUP_MAX_RESTORE_BYTES", 1<<30)),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.Complaints.validate(); err != nil {
		return nil, err
	}

	if key := cfg.Auth.TOTPEncryptionKey; key != "" && len(key) != 32 {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY must be exactly 32 bytes (got %d)", len(key))
	}

	policy, err := LoadEscalationPolicy(getEnv("ESCALATION_POLICY_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Escalation = policy

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the session signing key
func validateSessionSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	// Check against common weak secrets
	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *ComplaintsConfig) validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("COMPLAINT_RATE_LIMIT must be positive (got %d)", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("COMPLAINT_RATE_WINDOW must be positive (got %s)", c.RateWindow)
	}
	if c.AbusivePenalty <= 0 {
		return fmt.Errorf("ABUSIVE_SUSPENSION_PENALTY must be positive (got %s)", c.AbusivePenalty)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive (got %d)", c.MaxUploadBytes)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		return splitList(originsStr)
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}

// splitList splits a comma separated value and drops empty entries
func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
