package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BradenHooton/grievance/internal/models"
)

// Field limits for complaint text
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// ComplaintRepository defines the interface for complaint persistence
type ComplaintRepository interface {
	CreateAssigned(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error)
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	ListByOwner(ctx context.Context, userID string, filter models.ComplaintFilter) ([]*models.Complaint, error)
	ListByHandler(ctx context.Context, handlerID string, filter models.ComplaintFilter) ([]*models.Complaint, error)
	UpdatePending(ctx context.Context, id, ownerID string, update models.ComplaintUpdate) (*models.Complaint, error)
	TransitionStatus(ctx context.Context, id string, from []string, to string, resolutionDate *time.Time) error
	LockForUpdate(ctx context.Context, id string) error
}

// TimelineReader reads a complaint's escalation and decision history.
type TimelineReader interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]*models.Escalation, error)
}

// DecisionReader reads the written verdicts attached to a complaint.
type DecisionReader interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]*models.Decision, error)
}

// AccountGate loads accounts with their suspension reconciled and applies automatic suspension.
type AccountGate interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	AutoSuspend(ctx context.Context, userID string, matched []string) (time.Time, error)
}

// ContentFilter finds blocklisted words in free text.
type ContentFilter interface {
	Scan(ctx context.Context, text string) ([]string, error)
}

// EvidenceStore keeps uploaded evidence files.
type EvidenceStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Delete(name string) error
}

// EvidenceUpload is an evidence file attached to a submission or edit.
type EvidenceUpload struct {
	Filename string
	Content  io.Reader
}

// SubmitInput is a new complaint.
type SubmitInput struct {
	Title       string
	Description string
	Category    string
	Visibility  string
	Evidence    *EvidenceUpload
}

// ModifyInput is an owner edit of a pending complaint. An empty Visibility keeps the current one.
type ModifyInput struct {
	Title       string
	Description string
	Visibility  string
	Evidence    *EvidenceUpload
}

// ComplaintService implements submission, owner edits and complaint queries.
type ComplaintService struct {
	repo        ComplaintRepository
	escalations TimelineReader
	decisions   DecisionReader
	accounts    AccountGate
	limiter     *SubmissionLimiter
	filter      ContentFilter
	evidence    EvidenceStore
	notifier    Notifier
	events      EventLogger
	now         func() time.Time
	logger      *slog.Logger
}

// NewComplaintService creates a new ComplaintService
func NewComplaintService(
	repo ComplaintRepository,
	escalations TimelineReader,
	decisions DecisionReader,
	accounts AccountGate,
	limiter *SubmissionLimiter,
	filter ContentFilter,
	evidence EvidenceStore,
	notifier Notifier,
	events EventLogger,
	logger *slog.Logger,
) *ComplaintService {
	return &ComplaintService{
		repo:        repo,
		escalations: escalations,
		decisions:   decisions,
		accounts:    accounts,
		limiter:     limiter,
		filter:      filter,
		evidence:    evidence,
		notifier:    notifier,
		events:      events,
		now:         time.Now,
		logger:      logger,
	}
}

// Submit files a complaint for the actor.
//
// The account must be neither suspended nor blocked and under the submission limit. Text that
// trips the abusive-content filter suspends the account and nothing is stored. Otherwise the
// complaint is stored pending and assigned to the least loaded active handler.
func (s *ComplaintService) Submit(ctx context.Context, actor models.Principal, in SubmitInput) (*models.Complaint, error) {
	user, err := s.activeAccount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Check(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}

	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityStandard
	}
	if err := validateComplaintText(title, description, visibility); err != nil {
		return nil, err
	}
	if in.Category != models.CategoryAcademic && in.Category != models.CategoryAdministrative {
		return nil, fmt.Errorf("%w: category must be academic or administrative", models.ErrBadRequest)
	}

	if err := s.screen(ctx, user.ID, title, description); err != nil {
		return nil, err
	}

	evidenceFile, err := s.storeEvidence(ctx, in.Evidence)
	if err != nil {
		return nil, err
	}

	complaint, err := s.repo.CreateAssigned(ctx, &models.Complaint{
		UserID:       user.ID,
		Title:        title,
		Description:  description,
		Category:     in.Category,
		Visibility:   visibility,
		EvidenceFile: evidenceFile,
	})
	if err != nil {
		s.discardEvidence(evidenceFile)
		s.logger.Error("failed to store complaint", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaint submitted",
		slog.String("complaint_id", complaint.ID),
		slog.String("user_id", user.ID),
		slog.Bool("assigned", complaint.HandlerID != nil),
	)

	s.notifier.Notify(ctx, user.ID, &complaint.ID,
		fmt.Sprintf("Your complaint %q has been submitted and is pending review.", complaint.Title))

	if complaint.HandlerID != nil {
		s.notifier.Notify(ctx, *complaint.HandlerID, &complaint.ID,
			fmt.Sprintf("A new %s complaint %q has been assigned to you.", complaint.Category, complaint.Title))
	} else {
		s.events.Log(ctx, user.ID, models.LogActionNoHandler, "complaint "+complaint.ID+" has no handler")
	}

	s.events.Log(ctx, user.ID, models.LogActionComplaintSubmitted,
		fmt.Sprintf("complaint %s: %s", complaint.ID, complaint.Title))

	return complaint, nil
}

// Modify edits the actor's own complaint while it is still pending. Complaints owned by
// someone else are reported as not found.
func (s *ComplaintService) Modify(ctx context.Context, actor models.Principal, id string, in ModifyInput) (*models.Complaint, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if current.UserID != actor.UserID {
		return nil, models.ErrNotFound
	}
	if current.Status != models.ComplaintStatusPending {
		return nil, models.ErrComplaintNotPending
	}

	if _, err := s.activeAccount(ctx, actor.UserID); err != nil {
		return nil, err
	}

	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	visibility := in.Visibility
	if visibility == "" {
		visibility = current.Visibility
	}
	if err := validateComplaintText(title, description, visibility); err != nil {
		return nil, err
	}

	if err := s.screen(ctx, actor.UserID, title, description); err != nil {
		return nil, err
	}

	newFile, err := s.storeEvidence(ctx, in.Evidence)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePending(ctx, id, actor.UserID, models.ComplaintUpdate{
		Title:        title,
		Description:  description,
		Visibility:   visibility,
		EvidenceFile: newFile,
	})
	if err != nil {
		s.discardEvidence(newFile)
		if errors.Is(err, models.ErrNotFound) {
			// The row moved out of pending after it was read
			return nil, models.ErrComplaintNotPending
		}
		s.logger.Error("failed to update complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if newFile != nil && current.EvidenceFile != nil {
		s.discardEvidence(current.EvidenceFile)
	}

	s.events.Log(ctx, actor.UserID, models.LogActionComplaintModified,
		fmt.Sprintf("complaint %s: %s", updated.ID, updated.Title))

	return updated, nil
}

// ListMine returns the actor's own complaints.
func (s *ComplaintService) ListMine(ctx context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, 20, 100)

	complaints, err := s.repo.ListByOwner(ctx, actor.UserID, filter)
	if err != nil {
		s.logger.Error("failed to list complaints", slog.String("user_id", actor.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return complaints, nil
}

// HandlerQueue returns the complaints assigned to a handler, or every complaint for an admin.
func (s *ComplaintService) HandlerQueue(ctx context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, 20, 100)

	handlerID := actor.UserID
	if actor.IsAdmin() {
		handlerID = ""
	} else if actor.Role != models.RoleHandler {
		return nil, models.ErrForbidden
	}

	complaints, err := s.repo.ListByHandler(ctx, handlerID, filter)
	if err != nil {
		s.logger.Error("failed to list handler queue", slog.String("user_id", actor.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	for _, c := range complaints {
		maskOwner(c, actor)
	}
	return complaints, nil
}

// GetDetail returns a complaint with its escalation timeline and decisions. It is visible to
// the owner, admins, the assigned handler and escalation staff the complaint was routed to
// within their org scope. Anyone else gets ErrNotFound.
func (s *ComplaintService) GetDetail(ctx context.Context, actor models.Principal, id string) (*models.ComplaintDetail, error) {
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	timeline, err := s.escalations.ListByComplaint(ctx, id)
	if err != nil {
		s.logger.Error("failed to load escalations", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	allowed, err := s.canView(ctx, actor, complaint, timeline)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrNotFound
	}

	decisions, err := s.decisions.ListByComplaint(ctx, id)
	if err != nil {
		s.logger.Error("failed to load decisions", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	maskOwner(complaint, actor)

	return &models.ComplaintDetail{
		Complaint:   complaint,
		Escalations: timeline,
		Decisions:   decisions,
		CanResolve:  complaint.Status == models.ComplaintStatusInProgress && CanResolve(timeline),
	}, nil
}

// CanResolve reports whether a complaint with the given timeline (oldest first) may be
// resolved: its latest escalation exists and is resolved.
func CanResolve(timeline []*models.Escalation) bool {
	if len(timeline) == 0 {
		return false
	}
	return timeline[len(timeline)-1].IsResolved()
}

func (s *ComplaintService) canView(ctx context.Context, actor models.Principal, c *models.Complaint, timeline []*models.Escalation) (bool, error) {
	switch {
	case actor.UserID == c.UserID, actor.IsAdmin():
		return true, nil
	case actor.Role == models.RoleHandler:
		return c.HandlerID != nil && *c.HandlerID == actor.UserID, nil
	case !models.IsEscalationRole(actor.Role):
		return false, nil
	}

	staff, err := s.accounts.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	for _, e := range timeline {
		if e.EscalatedTo == staff.Role && models.InScope(staff.Role, staff.College, staff.Department, e.College, e.Department) {
			return true, nil
		}
	}
	return false, nil
}

// activeAccount loads the actor's account and refuses suspended or blocked ones.
func (s *ComplaintService) activeAccount(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}

	switch user.Status {
	case models.UserStatusBlocked:
		return nil, models.ErrAccountBlocked
	case models.UserStatusSuspended:
		return nil, fmt.Errorf("%w until %s", models.ErrAccountSuspended, user.SuspendedUntil.Format(timeLayout))
	}
	return user, nil
}

// screen runs the abusive-content filter and suspends the author on a match.
func (s *ComplaintService) screen(ctx context.Context, userID, title, description string) error {
	matched, err := s.filter.Scan(ctx, title+" "+description)
	if err != nil {
		s.logger.Error("failed to scan complaint text", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if len(matched) == 0 {
		return nil
	}

	until, err := s.accounts.AutoSuspend(ctx, userID, matched)
	if err != nil {
		return err
	}

	return fmt.Errorf("%w: your account is suspended until %s", models.ErrAbusiveContent, until.Format(timeLayout))
}

func (s *ComplaintService) storeEvidence(ctx context.Context, upload *EvidenceUpload) (*string, error) {
	if upload == nil {
		return nil, nil
	}

	name, err := s.evidence.Save(ctx, upload.Filename, upload.Content)
	if err != nil {
		if errors.Is(err, models.ErrInvalidEvidence) {
			return nil, err
		}
		s.logger.Error("failed to store evidence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &name, nil
}

func (s *ComplaintService) discardEvidence(name *string) {
	if name == nil {
		return
	}
	if err := s.evidence.Delete(*name); err != nil {
		s.logger.Warn("failed to delete evidence file", slog.String("file", *name), slog.Any("error", err))
	}
}

func validateComplaintText(title, description, visibility string) error {
	if n := utf8.RuneCountInString(title); n == 0 || n > MaxTitleLength {
		return fmt.Errorf("%w: title must be 1-%d characters", models.ErrBadRequest, MaxTitleLength)
	}
	if n := utf8.RuneCountInString(description); n == 0 || n > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be 1-%d characters", models.ErrBadRequest, MaxDescriptionLength)
	}
	if visibility != models.VisibilityStandard && visibility != models.VisibilityAnonymous {
		return fmt.Errorf("%w: visibility must be standard or anonymous", models.ErrBadRequest)
	}
	return nil
}

// maskOwner hides the owner of an anonymous complaint from everyone but the owner and admins.
func maskOwner(c *models.Complaint, viewer models.Principal) {
	if !c.IsAnonymous() || viewer.UserID == c.UserID || viewer.IsAdmin() {
		return
	}
	c.UserID = ""
	c.OwnerName = "Anonymous"
	c.OwnerCollege = ""
	c.OwnerDepartment = ""
}
