package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// EscalationRepository defines the interface for the escalation timeline
type EscalationRepository interface {
	Create(ctx context.Context, e *models.Escalation) (*models.Escalation, error)
	GetByID(ctx context.Context, id string) (*models.Escalation, error)
	Latest(ctx context.Context, complaintID string) (*models.Escalation, error)
	ListInbox(ctx context.Context, role, college, department string) ([]*models.Escalation, error)
	Resolve(ctx context.Context, id, details string, at time.Time) error
}

// DecisionRepository stores handler verdicts.
type DecisionRepository interface {
	Create(ctx context.Context, d *models.Decision) (*models.Decision, error)
}

// EscalationPolicy decides where complaints may be routed.
type EscalationPolicy interface {
	CanAssign(category, role string) bool
	EscalationTarget(fromRole, requested string) (string, bool)
}

// StaffDirectory loads the acting staff member's account.
type StaffDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

var errAssignmentPending = fmt.Errorf("%w: the current assignment is still pending", models.ErrInvalidTransition)

// EscalationService implements handler verdicts and the escalation chain.
type EscalationService struct {
	complaints  ComplaintRepository
	escalations EscalationRepository
	decisions   DecisionRepository
	staff       StaffDirectory
	policy      EscalationPolicy
	tx          Transactor
	notifier    Notifier
	events      EventLogger
	now         func() time.Time
	logger      *slog.Logger
}

// NewEscalationService creates a new EscalationService
func NewEscalationService(
	complaints ComplaintRepository,
	escalations EscalationRepository,
	decisions DecisionRepository,
	staff StaffDirectory,
	policy EscalationPolicy,
	tx Transactor,
	notifier Notifier,
	events EventLogger,
	logger *slog.Logger,
) *EscalationService {
	return &EscalationService{
		complaints:  complaints,
		escalations: escalations,
		decisions:   decisions,
		staff:       staff,
		policy:      policy,
		tx:          tx,
		notifier:    notifier,
		events:      events,
		now:         time.Now,
		logger:      logger,
	}
}

// Validate accepts a pending complaint for handling.
func (s *EscalationService) Validate(ctx context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error) {
	c, err := s.handledComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.complaints.TransitionStatus(ctx, c.ID, []string{models.ComplaintStatusPending}, models.ComplaintStatusValidated, nil); err != nil {
			return err
		}
		return s.decide(ctx, c.ID, actor.UserID, models.DecisionValidated, strings.TrimSpace(details))
	})
	if err != nil {
		return nil, s.txError("validate complaint", c.ID, err)
	}
	c.Status = models.ComplaintStatusValidated

	s.notifier.Notify(ctx, c.UserID, &c.ID, fmt.Sprintf("Your complaint %q has been validated and will be handled.", c.Title))
	s.events.Log(ctx, actor.UserID, models.LogActionComplaintValidated, "complaint "+c.ID)

	return c, nil
}

// Reject closes a pending or validated complaint with a reason.
func (s *EscalationService) Reject(ctx context.Context, actor models.Principal, complaintID, reason string) (*models.Complaint, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", models.ErrBadRequest)
	}

	c, err := s.handledComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		from := []string{models.ComplaintStatusPending, models.ComplaintStatusValidated}
		if err := s.complaints.TransitionStatus(ctx, c.ID, from, models.ComplaintStatusRejected, &now); err != nil {
			return err
		}
		return s.decide(ctx, c.ID, actor.UserID, models.DecisionRejected, reason)
	})
	if err != nil {
		return nil, s.txError("reject complaint", c.ID, err)
	}
	c.Status = models.ComplaintStatusRejected
	c.ResolutionDate = &now

	s.notifier.Notify(ctx, c.UserID, &c.ID, fmt.Sprintf("Your complaint %q was rejected: %s", c.Title, reason))
	s.events.Log(ctx, actor.UserID, models.LogActionComplaintRejected, fmt.Sprintf("complaint %s: %s", c.ID, reason))

	return c, nil
}

// Assign routes a validated or in-progress complaint to an office. The previous assignment
// or escalation, if any, must already be resolved.
func (s *EscalationService) Assign(ctx context.Context, actor models.Principal, complaintID, role string) (*models.Escalation, error) {
	c, err := s.handledComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}

	if c.Status != models.ComplaintStatusValidated && c.Status != models.ComplaintStatusInProgress {
		return nil, fmt.Errorf("%w: only validated or in-progress complaints can be assigned", models.ErrInvalidTransition)
	}
	if !s.policy.CanAssign(c.Category, role) {
		return nil, fmt.Errorf("%w: %s complaints cannot be assigned to %s", models.ErrBadRequest, c.Category, role)
	}

	college, department, err := orgSnapshot(role, c)
	if err != nil {
		return nil, err
	}

	var created *models.Escalation
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		latest, err := s.lockedLatest(ctx, c.ID)
		if err != nil {
			return err
		}
		if latest != nil && !latest.IsResolved() {
			return errAssignmentPending
		}

		from := []string{models.ComplaintStatusValidated, models.ComplaintStatusInProgress}
		if err := s.complaints.TransitionStatus(ctx, c.ID, from, models.ComplaintStatusInProgress, nil); err != nil {
			return err
		}

		created, err = s.escalations.Create(ctx, &models.Escalation{
			ComplaintID:       c.ID,
			ActionType:        models.EscalationActionAssignment,
			EscalatedTo:       role,
			EscalatedBy:       actor.UserID,
			College:           college,
			Department:        department,
			OriginalHandlerID: c.HandlerID,
			CreatedAt:         s.now(),
		})
		return err
	})
	if err != nil {
		return nil, s.txError("assign complaint", c.ID, err)
	}

	s.notifier.NotifyRole(ctx, role, college, department, &c.ID,
		fmt.Sprintf("Complaint %q has been assigned to your office.", c.Title))
	s.notifier.Notify(ctx, c.UserID, &c.ID,
		fmt.Sprintf("Your complaint %q has been forwarded to %s.", c.Title, roleLabel(role)))
	s.events.Log(ctx, actor.UserID, models.LogActionComplaintAssigned, fmt.Sprintf("complaint %s to %s", c.ID, role))

	return created, nil
}

// ResolveEscalation closes the latest pending entry of a complaint's timeline on behalf of
// the office it was addressed to.
func (s *EscalationService) ResolveEscalation(ctx context.Context, actor models.Principal, escalationID, details string) (*models.Escalation, error) {
	details = strings.TrimSpace(details)
	if details == "" {
		return nil, fmt.Errorf("%w: resolution details are required", models.ErrBadRequest)
	}

	e, _, err := s.workableEscalation(ctx, actor, escalationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.escalations.Resolve(ctx, e.ID, details, now); err != nil {
		return nil, s.txError("resolve escalation", e.ComplaintID, err)
	}
	e.Status = models.EscalationStatusResolved
	e.ResolutionDetails = &details
	e.ResolvedAt = &now

	c, err := s.complaints.GetByID(ctx, e.ComplaintID)
	if err != nil {
		s.logger.Error("failed to load complaint after resolving escalation", slog.String("complaint_id", e.ComplaintID), slog.Any("error", err))
		return e, nil
	}

	if e.OriginalHandlerID != nil {
		s.notifier.Notify(ctx, *e.OriginalHandlerID, &c.ID,
			fmt.Sprintf("%s resolved the escalation for complaint %q: %s", roleLabel(e.EscalatedTo), c.Title, details))
	}
	s.notifier.Notify(ctx, c.UserID, &c.ID,
		fmt.Sprintf("Update on your complaint %q from %s: %s", c.Title, roleLabel(e.EscalatedTo), details))
	s.events.Log(ctx, actor.UserID, models.LogActionEscalationResolved, fmt.Sprintf("complaint %s escalation %s", c.ID, e.ID))

	return e, nil
}

// Escalate hands the latest pending entry up the chain. The current entry is resolved with a
// note naming the new office and a new pending entry is appended for that office.
func (s *EscalationService) Escalate(ctx context.Context, actor models.Principal, escalationID, requestedRole, note string) (*models.Escalation, error) {
	e, staff, err := s.workableEscalation(ctx, actor, escalationID)
	if err != nil {
		return nil, err
	}

	target, ok := s.policy.EscalationTarget(staff.Role, requestedRole)
	if !ok {
		if requestedRole == "" {
			return nil, fmt.Errorf("%w: %s has no office to escalate to", models.ErrBadRequest, staff.Role)
		}
		return nil, fmt.Errorf("%w: %s cannot escalate to %s", models.ErrBadRequest, staff.Role, requestedRole)
	}

	c, err := s.complaints.GetByID(ctx, e.ComplaintID)
	if err != nil {
		s.logger.Error("failed to load complaint", slog.String("complaint_id", e.ComplaintID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	college, department, err := orgSnapshot(target, c)
	if err != nil {
		return nil, err
	}

	details := "Escalated to " + roleLabel(target)
	if note = strings.TrimSpace(note); note != "" {
		details += ": " + note
	}

	now := s.now()
	var created *models.Escalation
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		latest, err := s.lockedLatest(ctx, e.ComplaintID)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != e.ID || latest.IsResolved() {
			return models.ErrInvalidTransition
		}

		if err := s.escalations.Resolve(ctx, e.ID, details, now); err != nil {
			return err
		}

		created, err = s.escalations.Create(ctx, &models.Escalation{
			ComplaintID:       e.ComplaintID,
			ActionType:        models.EscalationActionEscalation,
			EscalatedTo:       target,
			EscalatedBy:       actor.UserID,
			College:           college,
			Department:        department,
			OriginalHandlerID: e.OriginalHandlerID,
			CreatedAt:         now,
		})
		return err
	})
	if err != nil {
		return nil, s.txError("escalate complaint", e.ComplaintID, err)
	}

	s.notifier.NotifyRole(ctx, target, college, department, &c.ID,
		fmt.Sprintf("Complaint %q has been escalated to your office by %s.", c.Title, roleLabel(staff.Role)))
	s.notifier.Notify(ctx, c.UserID, &c.ID,
		fmt.Sprintf("Your complaint %q has been escalated to %s.", c.Title, roleLabel(target)))
	s.events.Log(ctx, actor.UserID, models.LogActionComplaintEscalated,
		fmt.Sprintf("complaint %s from %s to %s", c.ID, staff.Role, target))

	return created, nil
}

// ResolveComplaint closes an in-progress complaint once its latest escalation is resolved.
func (s *EscalationService) ResolveComplaint(ctx context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error) {
	c, err := s.handledComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}

	if c.Status != models.ComplaintStatusInProgress {
		return nil, fmt.Errorf("%w: only in-progress complaints can be resolved", models.ErrInvalidTransition)
	}

	now := s.now()
	details = strings.TrimSpace(details)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		latest, err := s.lockedLatest(ctx, c.ID)
		if err != nil {
			return err
		}
		if latest == nil || !latest.IsResolved() {
			return models.ErrResolveNotAllowed
		}

		if err := s.complaints.TransitionStatus(ctx, c.ID, []string{models.ComplaintStatusInProgress}, models.ComplaintStatusResolved, &now); err != nil {
			return err
		}
		return s.decide(ctx, c.ID, actor.UserID, models.DecisionResolved, details)
	})
	if err != nil {
		return nil, s.txError("resolve complaint", c.ID, err)
	}
	c.Status = models.ComplaintStatusResolved
	c.ResolutionDate = &now

	message := fmt.Sprintf("Your complaint %q has been resolved.", c.Title)
	if details != "" {
		message = fmt.Sprintf("Your complaint %q has been resolved: %s", c.Title, details)
	}
	s.notifier.Notify(ctx, c.UserID, &c.ID, message)
	s.events.Log(ctx, actor.UserID, models.LogActionComplaintResolved, "complaint "+c.ID)

	return c, nil
}

// Inbox lists the pending entries addressed to the actor's office and scope.
func (s *EscalationService) Inbox(ctx context.Context, actor models.Principal) ([]*models.Escalation, error) {
	if !models.IsEscalationRole(actor.Role) {
		return nil, models.ErrForbidden
	}

	staff, err := s.staff.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	college, department := scopeOf(staff)
	items, err := s.escalations.ListInbox(ctx, staff.Role, college, department)
	if err != nil {
		s.logger.Error("failed to list inbox", slog.String("user_id", actor.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

// handledComplaint loads a complaint the actor may act on as its handler.
func (s *EscalationService) handledComplaint(ctx context.Context, actor models.Principal, id string) (*models.Complaint, error) {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if c.UserID == actor.UserID {
		return nil, fmt.Errorf("%w: you cannot decide your own complaint", models.ErrForbidden)
	}
	if actor.IsAdmin() {
		return c, nil
	}
	if actor.Role == models.RoleHandler && c.HandlerID != nil && *c.HandlerID == actor.UserID {
		return c, nil
	}
	return nil, models.ErrForbidden
}

// workableEscalation loads an escalation the actor's office may act on. It must be addressed
// to the actor's role inside their scope, still pending and the latest on its complaint.
func (s *EscalationService) workableEscalation(ctx context.Context, actor models.Principal, id string) (*models.Escalation, *models.User, error) {
	e, err := s.escalations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrNotFound
		}
		s.logger.Error("failed to get escalation", slog.String("escalation_id", id), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	staff, err := s.staff.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}

	if staff.Role != e.EscalatedTo || !models.InScope(staff.Role, staff.College, staff.Department, e.College, e.Department) {
		return nil, nil, models.ErrForbidden
	}
	if e.IsResolved() {
		return nil, nil, fmt.Errorf("%w: escalation already resolved", models.ErrInvalidTransition)
	}

	latest, err := s.latest(ctx, e.ComplaintID)
	if err != nil {
		return nil, nil, err
	}
	if latest == nil || latest.ID != e.ID {
		return nil, nil, fmt.Errorf("%w: a newer escalation exists", models.ErrInvalidTransition)
	}

	return e, staff, nil
}

// lockedLatest locks the complaint row for the rest of the transaction, then reads the newest
// timeline entry. Every timeline change takes the same lock, so the gate it returns holds
// until commit.
func (s *EscalationService) lockedLatest(ctx context.Context, complaintID string) (*models.Escalation, error) {
	if err := s.complaints.LockForUpdate(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.latest(ctx, complaintID)
}

// latest returns the newest timeline entry or nil when the complaint has none.
func (s *EscalationService) latest(ctx context.Context, complaintID string) (*models.Escalation, error) {
	e, err := s.escalations.Latest(ctx, complaintID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to load latest escalation", slog.String("complaint_id", complaintID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return e, nil
}

func (s *EscalationService) decide(ctx context.Context, complaintID, actorID, verdict, details string) error {
	_, err := s.decisions.Create(ctx, &models.Decision{
		ComplaintID: complaintID,
		DecidedBy:   actorID,
		Decision:    verdict,
		Details:     details,
	})
	return err
}

// txError keeps state-race sentinels and hides everything else.
func (s *EscalationService) txError(op, complaintID string, err error) error {
	switch {
	case errors.Is(err, errAssignmentPending),
		errors.Is(err, models.ErrResolveNotAllowed),
		errors.Is(err, models.ErrInternalServer):
		return err
	}
	if errors.Is(err, models.ErrInvalidTransition) {
		return fmt.Errorf("%w: the complaint changed while you were working on it", models.ErrInvalidTransition)
	}
	s.logger.Error("failed to "+op, slog.String("complaint_id", complaintID), slog.Any("error", err))
	return models.ErrInternalServer
}

// orgSnapshot returns the org unit an entry for role must carry, taken from the owner.
func orgSnapshot(role string, c *models.Complaint) (string, string, error) {
	switch role {
	case models.RoleDepartmentHead:
		if c.OwnerCollege == "" || c.OwnerDepartment == "" {
			return "", "", fmt.Errorf("%w: the complainant has no department on record", models.ErrBadRequest)
		}
		return c.OwnerCollege, c.OwnerDepartment, nil
	case models.RoleCollegeDean:
		if c.OwnerCollege == "" {
			return "", "", fmt.Errorf("%w: the complainant has no college on record", models.ErrBadRequest)
		}
		return c.OwnerCollege, "", nil
	default:
		return "", "", nil
	}
}

// scopeOf returns the org filter for a staff member's inbox.
func scopeOf(u *models.User) (string, string) {
	switch u.Role {
	case models.RoleDepartmentHead:
		return u.College, u.Department
	case models.RoleCollegeDean:
		return u.College, ""
	default:
		return "", ""
	}
}

func roleLabel(role string) string {
	return strings.ReplaceAll(role, "_", " ")
}
