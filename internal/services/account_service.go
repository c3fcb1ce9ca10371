package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/models"
	pkgauth "github.com/BradenHooton/grievance/pkg/auth"
	pkglogger "github.com/BradenHooton/grievance/pkg/logger"
)

// AccountRepository is the subset of user persistence the account flows need.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateMFA(ctx context.Context, id string, enabled bool, secret, nonce []byte) error
	MarkTOTPUsed(ctx context.Context, id string, at time.Time) error
}

// SessionRevocationRepository defines the logout blocklist.
type SessionRevocationRepository interface {
	Revoke(ctx context.Context, rev *models.SessionRevocation) error
}

// SuspensionReconciler lifts expired suspensions.
type SuspensionReconciler interface {
	ReconcileSuspension(ctx context.Context, user *models.User) error
}

// RegisterInput is a self-service registration. The account always gets the user role.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FName      string
	LName      string
	College    string
	Department string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token  string
	Claims *models.SessionClaims
	User   *models.User
}

// AccountService handles registration, login, logout and the second factor.
type AccountService struct {
	repo        AccountRepository
	revocations SessionRevocationRepository
	reconciler  SuspensionReconciler
	sessions    *auth.SessionManager
	totp        *auth.TOTPManager // nil disables two-factor
	timing      *auth.TimingDelay
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
	logger      *slog.Logger
}

// NewAccountService creates a new AccountService. totp may be nil.
func NewAccountService(
	repo AccountRepository,
	revocations SessionRevocationRepository,
	reconciler SuspensionReconciler,
	sessions *auth.SessionManager,
	totp *auth.TOTPManager,
	timing *auth.TimingDelay,
	auditLogger *pkglogger.AuditLogger,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		repo:        repo,
		revocations: revocations,
		reconciler:  reconciler,
		sessions:    sessions,
		totp:        totp,
		timing:      timing,
		auditLogger: auditLogger,
		now:         time.Now,
		logger:      logger,
	}
}

// Register creates an active account with the user role.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	college, department := strings.TrimSpace(in.College), strings.TrimSpace(in.Department)
	if err := models.ValidateOrgUnit(models.RoleUser, college, department); err != nil {
		return nil, fmt.Errorf("%w: a department requires a college", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FName:        strings.TrimSpace(in.FName),
		LName:        strings.TrimSpace(in.LName),
		Role:         models.RoleUser,
		College:      college,
		Department:   department,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     pkglogger.EventRegister,
				Identifier:    in.Email,
				FailureReason: "duplicate",
			})
			return nil, fmt.Errorf("%w: username or email already taken", models.ErrConflict)
		}
		s.logger.Error("failed to register user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRegister,
		UserID:    user.ID,
		Success:   true,
	})

	return user, nil
}

// Login authenticates by username or email and issues a session. Blocked accounts are
// refused; suspended accounts may sign in. Accounts with two-factor enabled must present a
// current code.
func (s *AccountService) Login(ctx context.Context, identifier, password, code string) (*LoginResult, error) {
	start := time.Now()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.ErrUnauthorized
	}

	fail := func(userID, reason string, err error) (*LoginResult, error) {
		s.timing.WaitFrom(start)
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			UserID:        userID,
			Identifier:    identifier,
			FailureReason: reason,
		})
		return nil, err
	}

	user, err := s.repo.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fail("", "invalid_credentials", models.ErrUnauthorized)
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return fail(user.ID, "invalid_credentials", models.ErrUnauthorized)
	}

	if err := s.reconciler.ReconcileSuspension(ctx, user); err != nil {
		return nil, err
	}

	if user.Status == models.UserStatusBlocked {
		return fail(user.ID, "account_blocked", models.ErrAccountBlocked)
	}

	if user.MFAEnabled {
		if strings.TrimSpace(code) == "" {
			return nil, models.ErrMFARequired
		}
		if err := s.checkCode(ctx, user, code); err != nil {
			return fail(user.ID, "invalid_mfa_code", err)
		}
	}

	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		UserID:    user.ID,
		Success:   true,
	})

	return &LoginResult{Token: token, Claims: claims, User: user}, nil
}

// Logout revokes the session until it would have expired.
func (s *AccountService) Logout(ctx context.Context, claims *models.SessionClaims) error {
	expiresAt := s.now().Add(s.sessions.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	err := s.revocations.Revoke(ctx, &models.SessionRevocation{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
		RevokedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("failed to revoke session", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogout,
		UserID:    claims.UserID,
		Success:   true,
	})
	return nil
}

// Session returns the live account behind a session, with its suspension reconciled.
func (s *AccountService) Session(ctx context.Context, claims *models.SessionClaims) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load session user", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.reconciler.ReconcileSuspension(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetupMFA starts two-factor enrollment by storing a new, not yet enabled secret.
func (s *AccountService) SetupMFA(ctx context.Context, userID string) (*auth.TOTPEnrollment, error) {
	if s.totp == nil {
		return nil, fmt.Errorf("%w: two-factor authentication is not configured", models.ErrBadRequest)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, fmt.Errorf("%w: two-factor authentication is already enabled", models.ErrConflict)
	}

	enrollment, err := s.totp.Enroll(user.Email)
	if err != nil {
		s.logger.Error("failed to generate totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.UpdateMFA(ctx, userID, false, enrollment.EncryptedSecret, enrollment.Nonce); err != nil {
		s.logger.Error("failed to store totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventMFASetup, UserID: userID, Success: true})
	return enrollment, nil
}

// EnableMFA turns on two-factor once the user proves the pending secret works.
func (s *AccountService) EnableMFA(ctx context.Context, userID, code string) error {
	if s.totp == nil {
		return fmt.Errorf("%w: two-factor authentication is not configured", models.ErrBadRequest)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFAEnabled {
		return fmt.Errorf("%w: two-factor authentication is already enabled", models.ErrConflict)
	}
	if len(user.TOTPSecret) == 0 {
		return fmt.Errorf("%w: start two-factor setup first", models.ErrBadRequest)
	}

	if err := s.checkCode(ctx, user, code); err != nil {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventMFAFailed, UserID: userID, FailureReason: "enable"})
		return err
	}

	if err := s.repo.UpdateMFA(ctx, userID, true, user.TOTPSecret, user.TOTPNonce); err != nil {
		s.logger.Error("failed to enable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if err := s.repo.MarkTOTPUsed(ctx, userID, s.now()); err != nil {
		s.logger.Warn("failed to record totp use", slog.String("user_id", userID), slog.Any("error", err))
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventMFAEnabled, UserID: userID, Success: true})
	return nil
}

// DisableMFA turns off two-factor after checking a current code.
func (s *AccountService) DisableMFA(ctx context.Context, userID, code string) error {
	if s.totp == nil {
		return fmt.Errorf("%w: two-factor authentication is not configured", models.ErrBadRequest)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MFAEnabled {
		return fmt.Errorf("%w: two-factor authentication is not enabled", models.ErrBadRequest)
	}

	if err := s.checkCode(ctx, user, code); err != nil {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventMFAFailed, UserID: userID, FailureReason: "disable"})
		return err
	}

	if err := s.repo.UpdateMFA(ctx, userID, false, nil, nil); err != nil {
		s.logger.Error("failed to disable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventMFADisabled, UserID: userID, Success: true})
	return nil
}

// checkCode verifies a TOTP code and records its use for replay prevention.
func (s *AccountService) checkCode(ctx context.Context, user *models.User, code string) error {
	if s.totp == nil {
		return models.ErrInvalidMFACode
	}

	now := s.now()
	ok, err := s.totp.Verify(user.TOTPSecret, user.TOTPNonce, strings.TrimSpace(code), user.TOTPLastUsedAt, now)
	if err != nil && !errors.Is(err, auth.ErrTOTPReplay) {
		s.logger.Error("failed to verify totp code", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !ok {
		return models.ErrInvalidMFACode
	}

	if user.MFAEnabled {
		if err := s.repo.MarkTOTPUsed(ctx, user.ID, now); err != nil {
			s.logger.Warn("failed to record totp use", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
	return nil
}

func (s *AccountService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}
