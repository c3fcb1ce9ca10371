package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/suspension"
	"github.com/BradenHooton/grievance/pkg/auth"
	pkglogger "github.com/BradenHooton/grievance/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	UpdateSuspension(ctx context.Context, id, status string, until *time.Time) error
	ReconcileSuspension(ctx context.Context, id string, now time.Time) (bool, error)
}

// CreateUserInput is an admin-created account.
type CreateUserInput struct {
	Username   string
	Email      string
	Password   string
	FName      string
	LName      string
	Role       string
	College    string
	Department string
}

// UpdateUserInput carries the admin-editable profile fields. Nil fields are left unchanged.
type UpdateUserInput struct {
	Email      *string
	FName      *string
	LName      *string
	Role       *string
	College    *string
	Department *string
}

const timeLayout = "2006-01-02 15:04 MST"

// UserService handles account administration and the suspension lifecycle.
type UserService struct {
	repo     UserRepository
	tx       Transactor
	notifier Notifier
	events   EventLogger
	audit    *pkglogger.AuditLogger
	penalty  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewUserService creates a new UserService. penalty is the automatic suspension length; audit may be nil.
func NewUserService(repo UserRepository, tx Transactor, notifier Notifier, events EventLogger, audit *pkglogger.AuditLogger, penalty time.Duration, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		events:   events,
		audit:    audit,
		penalty:  penalty,
		now:      time.Now,
		logger:   logger,
	}
}

// ReconcileSuspension lifts the user's suspension when it has expired and updates user in
// place. It is idempotent: the store update is guarded, so a repeat affects nothing.
func (s *UserService) ReconcileSuspension(ctx context.Context, user *models.User) error {
	now := s.now()

	next, changed := suspension.Reconcile(suspension.FromUser(user), now)
	if !changed {
		return nil
	}

	lifted, err := s.repo.ReconcileSuspension(ctx, user.ID, now)
	if err != nil {
		s.logger.Error("failed to reconcile suspension", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if lifted {
		user.Status = next.Status
		user.SuspendedUntil = next.Until
		s.logger.Info("expired suspension lifted", slog.String("user_id", user.ID))
		return nil
	}

	// Someone else changed the row first; take whatever it holds now.
	current, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to reload user", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	user.Status = current.Status
	user.SuspendedUntil = current.SuspendedUntil
	user.Role = current.Role
	return nil
}

// GetUser retrieves a user by ID with its suspension reconciled.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.ReconcileSuspension(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers retrieves users with pagination, reconciling each suspension it returns.
// Rows whose reconciled status no longer matches filter.Status are dropped.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, 50, 200)

	users, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", filter.Limit), slog.Int("offset", filter.Offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	kept := users[:0]
	for _, u := range users {
		if err := s.ReconcileSuspension(ctx, u); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		kept = append(kept, u)
	}

	return kept, nil
}

// CreateUser creates an account with any role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !models.IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, in.Role)
	}
	if err := models.ValidateOrgUnit(in.Role, in.College, in.Department); err != nil {
		return nil, fmt.Errorf("%w: college/department do not fit role %s", models.ErrBadRequest, in.Role)
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hash, err := auth.HashPassword(in.Password)
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
		Role:         in.Role,
		College:      strings.TrimSpace(in.College),
		Department:   strings.TrimSpace(in.Department),
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: username or email already taken", models.ErrConflict)
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", user.ID), slog.String("role", user.Role))
	return user, nil
}

// UpdateUser applies profile, role and org changes. Admins cannot demote themselves.
func (s *UserService) UpdateUser(ctx context.Context, actor models.Principal, id string, in UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.FName != nil {
		user.FName = strings.TrimSpace(*in.FName)
	}
	if in.LName != nil {
		user.LName = strings.TrimSpace(*in.LName)
	}
	if in.Role != nil {
		if !models.IsValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, *in.Role)
		}
		if actor.UserID == id && *in.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: admins cannot change their own role", models.ErrForbidden)
		}
		user.Role = *in.Role
	}
	if in.College != nil {
		user.College = strings.TrimSpace(*in.College)
	}
	if in.Department != nil {
		user.Department = strings.TrimSpace(*in.Department)
	}

	if err := models.ValidateOrgUnit(user.Role, user.College, user.Department); err != nil {
		return nil, fmt.Errorf("%w: college/department do not fit role %s", models.ErrBadRequest, user.Role)
	}

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: email already taken", models.ErrConflict)
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated", slog.String("user_id", id), slog.String("actor_id", actor.UserID))
	s.audit.LogAccountAction(ctx, actor.UserID, id, "update")
	return updated, nil
}

// DeleteUser deletes a user that owns no complaints.
func (s *UserService) DeleteUser(ctx context.Context, actor models.Principal, id string) error {
	if actor.UserID == id {
		return fmt.Errorf("%w: admins cannot delete themselves", models.ErrForbidden)
	}

	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrHasDependents):
		return fmt.Errorf("%w: user has complaints on record", models.ErrHasDependents)
	default:
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id), slog.String("actor_id", actor.UserID))
	s.audit.LogAccountAction(ctx, actor.UserID, id, "delete")
	return nil
}

// ToggleBlock blocks an active or suspended user, or unblocks a blocked one.
func (s *UserService) ToggleBlock(ctx context.Context, actor models.Principal, id string) (*models.User, error) {
	if actor.UserID == id {
		return nil, fmt.Errorf("%w: admins cannot block themselves", models.ErrForbidden)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	next := suspension.ToggleBlock(suspension.FromUser(user))
	if err := s.persistState(ctx, user, next); err != nil {
		return nil, err
	}

	action, message := models.LogActionUserBlocked, "Your account has been blocked by an administrator."
	if next.Status == models.UserStatusActive {
		action, message = models.LogActionUserUnblocked, "Your account has been unblocked."
	}

	s.notifier.Notify(ctx, user.ID, nil, message)
	s.events.Log(ctx, actor.UserID, action, fmt.Sprintf("user %s (%s)", user.Username, user.ID))
	s.audit.LogAccountAction(ctx, actor.UserID, user.ID, action)

	return user, nil
}

// AdjustSuspension adds hours and minutes (either may be negative) to the user's suspension.
// An adjustment that would not change anything returns ErrNoSuspensionChange.
func (s *UserService) AdjustSuspension(ctx context.Context, actor models.Principal, id string, hours, minutes int) (*models.User, suspension.Outcome, error) {
	if actor.UserID == id {
		return nil, suspension.Unchanged, fmt.Errorf("%w: admins cannot suspend themselves", models.ErrForbidden)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, suspension.Unchanged, err
	}

	delta := suspension.Delta(hours, minutes)
	next, outcome := suspension.Adjust(suspension.FromUser(user), delta, s.now())
	if outcome == suspension.Unchanged {
		return user, outcome, models.ErrNoSuspensionChange
	}

	if err := s.persistState(ctx, user, next); err != nil {
		return nil, suspension.Unchanged, err
	}

	message := "Your suspension has been lifted."
	if outcome == suspension.Suspended {
		message = fmt.Sprintf("Your account is suspended until %s.", next.Until.Format(timeLayout))
	}

	s.notifier.Notify(ctx, user.ID, nil, message)
	s.events.Log(ctx, actor.UserID, models.LogActionSuspensionAdjusted,
		fmt.Sprintf("user %s (%s) adjusted by %s: %s", user.Username, user.ID, delta, outcome))
	s.audit.LogAccountAction(ctx, actor.UserID, user.ID, "suspension_"+outcome.String())

	return user, outcome, nil
}

// AutoSuspend suspends the user for the configured penalty and records the abusive attempt in
// the same transaction. The user is notified after commit.
func (s *UserService) AutoSuspend(ctx context.Context, userID string, matched []string) (time.Time, error) {
	next := suspension.AutoSuspend(s.now(), s.penalty)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateSuspension(ctx, userID, next.Status, next.Until); err != nil {
			return err
		}
		return s.events.Record(ctx, userID, models.LogActionAbusiveAttempt,
			"matched words: "+strings.Join(matched, ", "))
	})
	if err != nil {
		s.logger.Error("failed to auto-suspend user", slog.String("user_id", userID), slog.Any("error", err))
		return time.Time{}, models.ErrInternalServer
	}

	s.logger.Warn("user auto-suspended",
		slog.String("user_id", userID),
		slog.Time("until", *next.Until),
		slog.Int("matches", len(matched)),
	)

	s.notifier.Notify(ctx, userID, nil, fmt.Sprintf(
		"Your account has been suspended until %s because your complaint contained abusive language.",
		next.Until.Format(timeLayout)))

	return *next.Until, nil
}

func (s *UserService) persistState(ctx context.Context, user *models.User, next suspension.State) error {
	if err := s.repo.UpdateSuspension(ctx, user.ID, next.Status, next.Until); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to update account status", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.Status = next.Status
	user.SuspendedUntil = next.Until
	return nil
}
