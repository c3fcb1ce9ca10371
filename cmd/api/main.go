package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/background"
	"github.com/BradenHooton/grievance/internal/config"
	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/flash"
	"github.com/BradenHooton/grievance/internal/handlers"
	middlewareCustom "github.com/BradenHooton/grievance/internal/middleware"
	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/moderation"
	"github.com/BradenHooton/grievance/internal/repositories"
	"github.com/BradenHooton/grievance/internal/routes"
	"github.com/BradenHooton/grievance/internal/services"
	"github.com/BradenHooton/grievance/internal/storage"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
	pkglogger "github.com/BradenHooton/grievance/pkg/logger"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("level", cfg.Server.LogLevel))
	}
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		pkglogger.RedactedAttr("db_host", cfg.Database.Host, cfg.Server.Env),
		pkglogger.RedactedAttr("db_user", cfg.Database.User, cfg.Server.Env),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Initialize database
	db, err := database.NewConnection(startupCtx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(startupCtx); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Flash messages
	redisClient, err := flash.NewClient(startupCtx, cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()
	flashStore := flash.NewStore(redisClient, cfg.Redis.FlashTTL, logger)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)
	escalationRepo := repositories.NewEscalationRepository(db)
	decisionRepo := repositories.NewDecisionRepository(db)
	logRepo := repositories.NewComplaintLogRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	noticeRepo := repositories.NewNoticeRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	wordRepo := repositories.NewAbusiveWordRepository(db)
	revokeRepo := repositories.NewSessionRevocationRepository(db)

	// Collaborators
	var mailer services.Mailer
	if cfg.Email.Enabled {
		sesMailer, err := services.NewSESMailer(startupCtx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = sesMailer
	}

	var totpManager *auth.TOTPManager
	if cfg.Auth.TOTPEncryptionKey != "" {
		totpManager, err = auth.NewTOTPManager([]byte(cfg.Auth.TOTPEncryptionKey), "Grievance Desk")
		if err != nil {
			logger.Error("failed to initialize two-factor support", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("TOTP_ENCRYPTION_KEY not set, two-factor authentication disabled")
	}

	evidenceStore, err := storage.NewEvidenceStore(cfg.Complaints.UploadDir, cfg.Complaints.MaxUploadBytes, logger)
	if err != nil {
		logger.Error("failed to prepare upload directory", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	auditLogger := pkglogger.NewAuditLogger(logger)
	contentFilter := moderation.NewFilter(wordRepo)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, mailer, logger)
	logService := services.NewComplaintLogService(logRepo, logger)
	userService := services.NewUserService(userRepo, db, notificationService, logService, auditLogger, cfg.Complaints.AbusivePenalty, logger)
	accountService := services.NewAccountService(userRepo, revokeRepo, userService, sessionManager, totpManager,
		auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 250, RandomDelayMs: 100}), auditLogger, logger)
	limiter := services.NewSubmissionLimiter(complaintRepo, services.RateLimitConfig{
		MaxSubmissions: cfg.Complaints.RateLimit,
		Window:         cfg.Complaints.RateWindow,
	}, logger)
	complaintService := services.NewComplaintService(complaintRepo, escalationRepo, decisionRepo, userService,
		limiter, contentFilter, evidenceStore, notificationService, logService, logger)
	escalationService := services.NewEscalationService(complaintRepo, escalationRepo, decisionRepo, userService,
		cfg.Escalation, db, notificationService, logService, logger)
	adminService := services.NewAdminService(userRepo, complaintRepo, escalationRepo, logRepo, logger)
	moderationService := services.NewModerationService(wordRepo, contentFilter, logger)
	boardService := services.NewBoardService(noticeRepo, feedbackRepo, logger)
	backupService := services.NewBackupService(services.ExecRunner{},
		services.BackupTarget{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		},
		services.BackupConfig{
			Dir:           cfg.Backup.Dir,
			PgDumpPath:    cfg.Backup.PgDumpPath,
			PgRestorePath: cfg.Backup.PgRestorePath,
			Retention:     cfg.Backup.Retention,
		},
		logService, logger)

	// Bootstrap first admin user if configured
	if err := ensureAdminUser(startupCtx, userService, cfg.Auth, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}

	// Initialize handlers
	cookies := auth.CookieConfig{Secure: cfg.Auth.CookieSecure, SameSite: "lax"}
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(accountService, flashStore, cookies, logger),
		Complaints:    handlers.NewComplaintHandler(complaintService, flashStore, cfg.Complaints.MaxUploadBytes),
		Escalations:   handlers.NewEscalationHandler(escalationService, flashStore),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Board:         handlers.NewBoardHandler(boardService, flashStore),
		Users:         handlers.NewUserHandler(userService, flashStore),
		Moderation:    handlers.NewModerationHandler(moderationService, flashStore),
		Admin:         handlers.NewAdminHandler(adminService, logService, flashStore),
		Backups:       handlers.NewBackupHandler(backupService, flashStore, cfg.Backup.MaxRestore),
		Health:        db,
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.ClientIP(ipConfig))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, h, routes.Options{
		Sessions:    sessionManager,
		Revocations: revokeRepo,
		Users:       userRepo,
		Revocation:  auth.RevocationConfig{FailClosed: cfg.Server.Env == "production"},
		LoginLimit: middlewareCustom.RateLimitConfig{
			Requests: cfg.Auth.LoginRateLimit,
			Window:   cfg.Auth.LoginRateWindow,
		},
	}, logger)

	// Scheduled maintenance
	scheduler, err := background.NewScheduler(revokeRepo, backupService, background.Schedules{
		SessionCleanup: cfg.Auth.CleanupSchedule,
		Backup:         cfg.Backup.Schedule,
	}, logger)
	if err != nil {
		logger.Error("failed to configure scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	scheduler.Stop()

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin account when BOOTSTRAP_ADMIN_* is set
func ensureAdminUser(ctx context.Context, users *services.UserService, cfg config.AuthConfig, logger *slog.Logger) error {
	if cfg.BootstrapAdminUser == "" || cfg.BootstrapAdminPass == "" {
		logger.Info("no bootstrap admin configured, skipping admin user creation")
		return nil
	}

	email := cfg.BootstrapAdminMail
	if email == "" {
		email = cfg.BootstrapAdminUser + "@localhost"
	}

	_, err := users.CreateUser(ctx, services.CreateUserInput{
		Username: cfg.BootstrapAdminUser,
		Email:    email,
		Password: cfg.BootstrapAdminPass,
		FName:    "System",
		LName:    "Administrator",
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, models.ErrConflict) {
		logger.Info("admin user already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
