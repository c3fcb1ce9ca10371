package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/grievance/internal/models"
)

// Notice and feedback limits.
const (
	MaxNoticeTitleLength = 200
	MaxNoticeBodyLength  = 5000
	MaxFeedbackLength    = 2000
)

// NoticeRepository defines the interface for announcements
type NoticeRepository interface {
	Create(ctx context.Context, n *models.Notice) (*models.Notice, error)
	List(ctx context.Context, limit, offset int) ([]*models.Notice, error)
	Update(ctx context.Context, id, title, body string) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
}

// FeedbackRepository defines the interface for user feedback
type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	List(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
	Delete(ctx context.Context, id string) error
}

// BoardService manages admin notices and user feedback.
type BoardService struct {
	notices  NoticeRepository
	feedback FeedbackRepository
	logger   *slog.Logger
}

// NewBoardService creates a new BoardService
func NewBoardService(notices NoticeRepository, feedback FeedbackRepository, logger *slog.Logger) *BoardService {
	return &BoardService{notices: notices, feedback: feedback, logger: logger}
}

// ListNotices returns the newest notices first.
func (s *BoardService) ListNotices(ctx context.Context, limit, offset int) ([]*models.Notice, error) {
	limit, offset = clampPage(limit, offset, 20, 100)
	notices, err := s.notices.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notices", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return notices, nil
}

// PostNotice publishes a notice.
func (s *BoardService) PostNotice(ctx context.Context, actor models.Principal, title, body string) (*models.Notice, error) {
	title, body, err := validateNotice(title, body)
	if err != nil {
		return nil, err
	}

	n, err := s.notices.Create(ctx, &models.Notice{Title: title, Body: body, PostedBy: actor.UserID})
	if err != nil {
		s.logger.Error("failed to create notice", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return n, nil
}

// EditNotice replaces a notice's title and body.
func (s *BoardService) EditNotice(ctx context.Context, id, title, body string) (*models.Notice, error) {
	title, body, err := validateNotice(title, body)
	if err != nil {
		return nil, err
	}

	n, err := s.notices.Update(ctx, id, title, body)
	if err != nil {
		return nil, s.storeError("update notice", id, err)
	}
	return n, nil
}

// DeleteNotice removes a notice.
func (s *BoardService) DeleteNotice(ctx context.Context, id string) error {
	if err := s.notices.Delete(ctx, id); err != nil {
		return s.storeError("delete notice", id, err)
	}
	return nil
}

// SubmitFeedback stores a message for the administrators, optionally about one complaint.
func (s *BoardService) SubmitFeedback(ctx context.Context, actor models.Principal, message string, complaintID *string) (*models.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrBadRequest)
	}
	if len(message) > MaxFeedbackLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", models.ErrBadRequest, MaxFeedbackLength)
	}
	if complaintID != nil && *complaintID == "" {
		complaintID = nil
	}

	f, err := s.feedback.Create(ctx, &models.Feedback{UserID: actor.UserID, ComplaintID: complaintID, Message: message})
	if err != nil {
		if errors.Is(err, models.ErrHasDependents) {
			return nil, fmt.Errorf("%w: unknown complaint", models.ErrBadRequest)
		}
		s.logger.Error("failed to create feedback", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return f, nil
}

// ListFeedback returns the newest feedback first.
func (s *BoardService) ListFeedback(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	limit, offset = clampPage(limit, offset, 50, 200)
	items, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list feedback", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

// DeleteFeedback removes a feedback entry.
func (s *BoardService) DeleteFeedback(ctx context.Context, id string) error {
	if err := s.feedback.Delete(ctx, id); err != nil {
		return s.storeError("delete feedback", id, err)
	}
	return nil
}

func (s *BoardService) storeError(op, id string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	s.logger.Error("failed to "+op, slog.String("id", id), slog.Any("error", err))
	return models.ErrInternalServer
}

func validateNotice(title, body string) (string, string, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	switch {
	case title == "" || body == "":
		return "", "", fmt.Errorf("%w: title and body are required", models.ErrBadRequest)
	case len(title) > MaxNoticeTitleLength:
		return "", "", fmt.Errorf("%w: title must be at most %d characters", models.ErrBadRequest, MaxNoticeTitleLength)
	case len(body) > MaxNoticeBodyLength:
		return "", "", fmt.Errorf("%w: body must be at most %d characters", models.ErrBadRequest, MaxNoticeBodyLength)
	}
	return title, body, nil
}
