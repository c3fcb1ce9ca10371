package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// testNow is the fixed clock used across service tests.
var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockTransactor runs fn inline and counts transactions
type MockTransactor struct {
	Calls int
	Err   error
}

func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// SentNotification is one notification captured by MockNotifier
type SentNotification struct {
	RecipientID string
	Role        string
	College     string
	Department  string
	ComplaintID *string
	Message     string
}

// MockNotifier records notifications instead of storing them
type MockNotifier struct {
	mu     sync.Mutex
	Direct []SentNotification
	ByRole []SentNotification
}

func (m *MockNotifier) Notify(ctx context.Context, recipientID string, complaintID *string, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Direct = append(m.Direct, SentNotification{RecipientID: recipientID, ComplaintID: complaintID, Message: message})
}

func (m *MockNotifier) NotifyRole(ctx context.Context, role, college, department string, complaintID *string, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ByRole = append(m.ByRole, SentNotification{Role: role, College: college, Department: department, ComplaintID: complaintID, Message: message})
	return 1
}

// Recipients returns the direct recipients in send order.
func (m *MockNotifier) Recipients() []string {
	ids := make([]string, 0, len(m.Direct))
	for _, n := range m.Direct {
		ids = append(ids, n.RecipientID)
	}
	return ids
}

// LoggedEvent is one complaint log entry captured by MockEventLogger
type LoggedEvent struct {
	ActorID string
	Action  string
	Details string
}

// MockEventLogger records complaint log entries
type MockEventLogger struct {
	Events    []LoggedEvent
	RecordErr error
}

func (m *MockEventLogger) Log(ctx context.Context, actorID, action, details string) {
	m.Events = append(m.Events, LoggedEvent{ActorID: actorID, Action: action, Details: details})
}

func (m *MockEventLogger) Record(ctx context.Context, actorID, action, details string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Events = append(m.Events, LoggedEvent{ActorID: actorID, Action: action, Details: details})
	return nil
}

// Actions returns the logged actions in order.
func (m *MockEventLogger) Actions() []string {
	actions := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		actions = append(actions, e.Action)
	}
	return actions
}

// MockUserRepository implements UserRepository and AccountRepository for testing
type MockUserRepository struct {
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	GetByLoginFunc          func(ctx context.Context, identifier string) (*models.User, error)
	ListFunc                func(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	CreateFunc              func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc              func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteFunc              func(ctx context.Context, id string) error
	UpdateSuspensionFunc    func(ctx context.Context, id, status string, until *time.Time) error
	ReconcileSuspensionFunc func(ctx context.Context, id string, now time.Time) (bool, error)
	UpdateMFAFunc           func(ctx context.Context, id string, enabled bool, secret, nonce []byte) error
	MarkTOTPUsedFunc        func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	if m.GetByLoginFunc != nil {
		return m.GetByLoginFunc(ctx, identifier)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return user, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UpdateSuspension(ctx context.Context, id, status string, until *time.Time) error {
	if m.UpdateSuspensionFunc != nil {
		return m.UpdateSuspensionFunc(ctx, id, status, until)
	}
	return nil
}

func (m *MockUserRepository) ReconcileSuspension(ctx context.Context, id string, now time.Time) (bool, error) {
	if m.ReconcileSuspensionFunc != nil {
		return m.ReconcileSuspensionFunc(ctx, id, now)
	}
	return true, nil
}

func (m *MockUserRepository) UpdateMFA(ctx context.Context, id string, enabled bool, secret, nonce []byte) error {
	if m.UpdateMFAFunc != nil {
		return m.UpdateMFAFunc(ctx, id, enabled, secret, nonce)
	}
	return nil
}

func (m *MockUserRepository) MarkTOTPUsed(ctx context.Context, id string, at time.Time) error {
	if m.MarkTOTPUsedFunc != nil {
		return m.MarkTOTPUsedFunc(ctx, id, at)
	}
	return nil
}

// MockComplaintRepository implements ComplaintRepository for testing
type MockComplaintRepository struct {
	CreateAssignedFunc   func(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	GetByIDFunc          func(ctx context.Context, id string) (*models.Complaint, error)
	ListByOwnerFunc      func(ctx context.Context, userID string, filter models.ComplaintFilter) ([]*models.Complaint, error)
	ListByHandlerFunc    func(ctx context.Context, handlerID string, filter models.ComplaintFilter) ([]*models.Complaint, error)
	UpdatePendingFunc    func(ctx context.Context, id, ownerID string, update models.ComplaintUpdate) (*models.Complaint, error)
	TransitionStatusFunc func(ctx context.Context, id string, from []string, to string, resolutionDate *time.Time) error
	LockForUpdateFunc    func(ctx context.Context, id string) error
	Locked               []string
}

func (m *MockComplaintRepository) CreateAssigned(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	if m.CreateAssignedFunc != nil {
		return m.CreateAssignedFunc(ctx, c)
	}
	return nil, models.ErrInternalServer
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) ListByOwner(ctx context.Context, userID string, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, userID, filter)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) ListByHandler(ctx context.Context, handlerID string, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if m.ListByHandlerFunc != nil {
		return m.ListByHandlerFunc(ctx, handlerID, filter)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintRepository) UpdatePending(ctx context.Context, id, ownerID string, update models.ComplaintUpdate) (*models.Complaint, error) {
	if m.UpdatePendingFunc != nil {
		return m.UpdatePendingFunc(ctx, id, ownerID, update)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintRepository) TransitionStatus(ctx context.Context, id string, from []string, to string, resolutionDate *time.Time) error {
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, id, from, to, resolutionDate)
	}
	return nil
}

func (m *MockComplaintRepository) LockForUpdate(ctx context.Context, id string) error {
	m.Locked = append(m.Locked, id)
	if m.LockForUpdateFunc != nil {
		return m.LockForUpdateFunc(ctx, id)
	}
	return nil
}

// MockEscalationRepository keeps an in-memory timeline per complaint
type MockEscalationRepository struct {
	Entries    []*models.Escalation
	ResolveErr error
	CreateErr  error
	nextID     int
}

func (m *MockEscalationRepository) Create(ctx context.Context, e *models.Escalation) (*models.Escalation, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	e.ID = fmt.Sprintf("esc-%d", m.nextID)
	e.Status = models.EscalationStatusPending
	m.Entries = append(m.Entries, e)
	return e, nil
}

func (m *MockEscalationRepository) GetByID(ctx context.Context, id string) (*models.Escalation, error) {
	for _, e := range m.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockEscalationRepository) ListByComplaint(ctx context.Context, complaintID string) ([]*models.Escalation, error) {
	var out []*models.Escalation
	for _, e := range m.Entries {
		if e.ComplaintID == complaintID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEscalationRepository) Latest(ctx context.Context, complaintID string) (*models.Escalation, error) {
	timeline, _ := m.ListByComplaint(ctx, complaintID)
	if len(timeline) == 0 {
		return nil, models.ErrNotFound
	}
	return timeline[len(timeline)-1], nil
}

func (m *MockEscalationRepository) ListInbox(ctx context.Context, role, college, department string) ([]*models.Escalation, error) {
	var out []*models.Escalation
	for _, e := range m.Entries {
		if e.EscalatedTo != role || e.IsResolved() {
			continue
		}
		if college != "" && e.College != college {
			continue
		}
		if department != "" && e.Department != department {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MockEscalationRepository) Resolve(ctx context.Context, id, details string, at time.Time) error {
	if m.ResolveErr != nil {
		return m.ResolveErr
	}
	e, err := m.GetByID(ctx, id)
	if err != nil || e.IsResolved() {
		return models.ErrInvalidTransition
	}
	e.Status = models.EscalationStatusResolved
	e.ResolutionDetails = &details
	e.ResolvedAt = &at
	return nil
}

// MockDecisionRepository records decisions
type MockDecisionRepository struct {
	Decisions []*models.Decision
}

func (m *MockDecisionRepository) Create(ctx context.Context, d *models.Decision) (*models.Decision, error) {
	d.ID = fmt.Sprintf("dec-%d", len(m.Decisions)+1)
	m.Decisions = append(m.Decisions, d)
	return d, nil
}

func (m *MockDecisionRepository) ListByComplaint(ctx context.Context, complaintID string) ([]*models.Decision, error) {
	var out []*models.Decision
	for _, d := range m.Decisions {
		if d.ComplaintID == complaintID {
			out = append(out, d)
		}
	}
	return out, nil
}

// MockContentFilter returns a fixed match list
type MockContentFilter struct {
	ScanFunc func(ctx context.Context, text string) ([]string, error)
}

func (m *MockContentFilter) Scan(ctx context.Context, text string) ([]string, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, text)
	}
	return nil, nil
}

// MockEvidenceStore records saved and deleted evidence names
type MockEvidenceStore struct {
	SaveErr error
	Saved   []string
	Deleted []string
}

func (m *MockEvidenceStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	name := fmt.Sprintf("file-%d.pdf", len(m.Saved)+1)
	m.Saved = append(m.Saved, name)
	return name, nil
}

func (m *MockEvidenceStore) Delete(name string) error {
	m.Deleted = append(m.Deleted, name)
	return nil
}

// MockEscalationPolicy allows every assignment and escalates along a fixed map
type MockEscalationPolicy struct {
	Assignable map[string]bool
	Next       map[string]string
}

func (m *MockEscalationPolicy) CanAssign(category, role string) bool {
	return m.Assignable[category+":"+role]
}

func (m *MockEscalationPolicy) EscalationTarget(fromRole, requested string) (string, bool) {
	next, ok := m.Next[fromRole]
	if !ok || (requested != "" && requested != next) {
		return "", false
	}
	return next, true
}

// MockStaffDirectory resolves staff accounts from a map
type MockStaffDirectory map[string]*models.User

func (m MockStaffDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

// NewTestUser creates an active account with the given role
func NewTestUser(id, role string) *models.User {
	return &models.User{
		ID:        id,
		Username:  id,
		Email:     id + "@uni.example.edu",
		FName:     "Test",
		LName:     "User",
		Role:      role,
		Status:    models.UserStatusActive,
		CreatedAt: testNow.Add(-30 * 24 * time.Hour),
		UpdatedAt: testNow.Add(-30 * 24 * time.Hour),
	}
}

// NewTestSuspendedUser creates a user suspended until until
func NewTestSuspendedUser(id string, until time.Time) *models.User {
	u := NewTestUser(id, models.RoleUser)
	u.Status = models.UserStatusSuspended
	u.SuspendedUntil = &until
	return u
}

// NewTestComplaint creates a complaint owned by ownerID and handled by handlerID
func NewTestComplaint(id, ownerID, handlerID, status string) *models.Complaint {
	c := &models.Complaint{
		ID:              id,
		UserID:          ownerID,
		Title:           "Broken projector in room 204",
		Description:     "The projector has not worked for two weeks.",
		Category:        models.CategoryAcademic,
		Visibility:      models.VisibilityStandard,
		Status:          status,
		CreatedAt:       testNow.Add(-24 * time.Hour),
		UpdatedAt:       testNow.Add(-24 * time.Hour),
		OwnerName:       "Test User",
		OwnerCollege:    "Engineering",
		OwnerDepartment: "Computer Science",
	}
	if handlerID != "" {
		c.HandlerID = &handlerID
	}
	return c
}
