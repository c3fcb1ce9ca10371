package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/grievance/internal/models"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// RecipientDirectory resolves notification recipients.
type RecipientDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRoleInScope(ctx context.Context, role, college, department string) ([]*models.User, error)
}

const notificationSubject = "Complaint desk notification"

// NotificationService appends in-app notifications and optionally mails a copy.
type NotificationService struct {
	repo   NotificationRepository
	users  RecipientDirectory
	mailer Mailer // nil disables email
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService. mailer may be nil.
func NewNotificationService(repo NotificationRepository, users RecipientDirectory, mailer Mailer, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		users:  users,
		mailer: mailer,
		logger: logger,
	}
}

// Notify appends a notification for one recipient.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, complaintID *string, message string) {
	s.deliver(ctx, recipientID, "", complaintID, message)
}

// NotifyRole notifies every non-blocked user holding role inside the org scope and returns how
// many notifications were stored.
func (s *NotificationService) NotifyRole(ctx context.Context, role, college, department string, complaintID *string, message string) int {
	users, err := s.users.ListByRoleInScope(ctx, role, college, department)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve role recipients",
			slog.String("role", role),
			slog.Any("error", err),
		)
		return 0
	}

	if len(users) == 0 {
		s.logger.WarnContext(ctx, "no recipients for role notification",
			slog.String("role", role),
			slog.String("college", college),
			slog.String("department", department),
		)
	}

	sent := 0
	for _, u := range users {
		if s.deliver(ctx, u.ID, u.Email, complaintID, message) {
			sent++
		}
	}
	return sent
}

func (s *NotificationService) deliver(ctx context.Context, recipientID, email string, complaintID *string, message string) bool {
	_, err := s.repo.Create(ctx, &models.Notification{
		UserID:      recipientID,
		ComplaintID: complaintID,
		Description: message,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store notification",
			slog.String("recipient_id", recipientID),
			slog.Any("error", err),
		)
		return false
	}

	if s.mailer != nil {
		s.mail(ctx, recipientID, email, message)
	}
	return true
}

func (s *NotificationService) mail(ctx context.Context, recipientID, email, message string) {
	if email == "" {
		u, err := s.users.GetByID(ctx, recipientID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to look up notification email",
				slog.String("recipient_id", recipientID),
				slog.Any("error", err),
			)
			return
		}
		email = u.Email
	}

	if err := s.mailer.Send(ctx, email, notificationSubject, message); err != nil {
		s.logger.WarnContext(ctx, "notification email not sent",
			slog.String("recipient_id", recipientID),
			slog.Any("error", err),
		)
	}
}

// List returns the recipient's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	limit, offset = clampPage(limit, offset, 20, 100)

	items, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

// UnreadCount returns how many notifications the recipient has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count notifications", slog.String("user_id", userID), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}
	return n, nil
}

// MarkRead marks one of the recipient's notifications read. Other users' ids are not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to mark notification read", slog.String("id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// MarkAllRead marks every notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("failed to mark notifications read", slog.String("user_id", userID), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}
	return n, nil
}
