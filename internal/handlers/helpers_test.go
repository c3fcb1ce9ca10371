package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/flash"
	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
	"github.com/BradenHooton/grievance/internal/suspension"
	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

// newTestRequest creates an HTTP request with a JSON body
func newTestRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withSession attaches session claims for the given user and role
func withSession(req *http.Request, userID, role string) *http.Request {
	claims := &models.SessionClaims{
		UserID: userID,
		Role:   role,
		FName:  "Test",
		RegisteredClaims: jwt.RegisteredClaims{
			ID: "session-" + userID,
		},
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// withURLParam sets a chi route parameter
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func assertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message)
}

// recordingFlash keeps every queued flash message
type recordingFlash struct {
	mu       sync.Mutex
	messages []flash.Message
	sessions []string
	pending  *flash.Message
	popErr   error
}

func (f *recordingFlash) Success(_ context.Context, sessionID, message string) {
	f.add(sessionID, flash.Message{Kind: flash.KindSuccess, Message: message})
}

func (f *recordingFlash) Error(_ context.Context, sessionID, message string) {
	f.add(sessionID, flash.Message{Kind: flash.KindError, Message: message})
}

func (f *recordingFlash) Pop(_ context.Context, _ string) (*flash.Message, error) {
	return f.pending, f.popErr
}

func (f *recordingFlash) add(sessionID string, m flash.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.messages = append(f.messages, m)
}

func (f *recordingFlash) last() flash.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return flash.Message{}
	}
	return f.messages[len(f.messages)-1]
}

// mockAccountService implements AccountServiceInterface
type mockAccountService struct {
	RegisterFunc   func(in services.RegisterInput) (*models.User, error)
	LoginFunc      func(identifier, password, code string) (*services.LoginResult, error)
	LogoutFunc     func(claims *models.SessionClaims) error
	SessionFunc    func(claims *models.SessionClaims) (*models.User, error)
	SetupMFAFunc   func(userID string) (*auth.TOTPEnrollment, error)
	EnableMFAFunc  func(userID, code string) error
	DisableMFAFunc func(userID, code string) error
}

func (m *mockAccountService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return m.RegisterFunc(in)
}

func (m *mockAccountService) Login(_ context.Context, identifier, password, code string) (*services.LoginResult, error) {
	return m.LoginFunc(identifier, password, code)
}

func (m *mockAccountService) Logout(_ context.Context, claims *models.SessionClaims) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(claims)
}

func (m *mockAccountService) Session(_ context.Context, claims *models.SessionClaims) (*models.User, error) {
	return m.SessionFunc(claims)
}

func (m *mockAccountService) SetupMFA(_ context.Context, userID string) (*auth.TOTPEnrollment, error) {
	return m.SetupMFAFunc(userID)
}

func (m *mockAccountService) EnableMFA(_ context.Context, userID, code string) error {
	return m.EnableMFAFunc(userID, code)
}

func (m *mockAccountService) DisableMFA(_ context.Context, userID, code string) error {
	return m.DisableMFAFunc(userID, code)
}

// mockComplaintService implements ComplaintServiceInterface
type mockComplaintService struct {
	SubmitFunc       func(actor models.Principal, in services.SubmitInput) (*models.Complaint, error)
	ModifyFunc       func(actor models.Principal, id string, in services.ModifyInput) (*models.Complaint, error)
	ListMineFunc     func(actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error)
	HandlerQueueFunc func(actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error)
	GetDetailFunc    func(actor models.Principal, id string) (*models.ComplaintDetail, error)
}

func (m *mockComplaintService) Submit(_ context.Context, actor models.Principal, in services.SubmitInput) (*models.Complaint, error) {
	return m.SubmitFunc(actor, in)
}

func (m *mockComplaintService) Modify(_ context.Context, actor models.Principal, id string, in services.ModifyInput) (*models.Complaint, error) {
	return m.ModifyFunc(actor, id, in)
}

func (m *mockComplaintService) ListMine(_ context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	return m.ListMineFunc(actor, filter)
}

func (m *mockComplaintService) HandlerQueue(_ context.Context, actor models.Principal, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	return m.HandlerQueueFunc(actor, filter)
}

func (m *mockComplaintService) GetDetail(_ context.Context, actor models.Principal, id string) (*models.ComplaintDetail, error) {
	return m.GetDetailFunc(actor, id)
}

// mockEscalationService implements EscalationServiceInterface
type mockEscalationService struct {
	ValidateFunc          func(actor models.Principal, complaintID, details string) (*models.Complaint, error)
	RejectFunc            func(actor models.Principal, complaintID, reason string) (*models.Complaint, error)
	AssignFunc            func(actor models.Principal, complaintID, role string) (*models.Escalation, error)
	ResolveComplaintFunc  func(actor models.Principal, complaintID, details string) (*models.Complaint, error)
	ResolveEscalationFunc func(actor models.Principal, escalationID, details string) (*models.Escalation, error)
	EscalateFunc          func(actor models.Principal, escalationID, role, note string) (*models.Escalation, error)
	InboxFunc             func(actor models.Principal) ([]*models.Escalation, error)
}

func (m *mockEscalationService) Validate(_ context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error) {
	return m.ValidateFunc(actor, complaintID, details)
}

func (m *mockEscalationService) Reject(_ context.Context, actor models.Principal, complaintID, reason string) (*models.Complaint, error) {
	return m.RejectFunc(actor, complaintID, reason)
}

func (m *mockEscalationService) Assign(_ context.Context, actor models.Principal, complaintID, role string) (*models.Escalation, error) {
	return m.AssignFunc(actor, complaintID, role)
}

func (m *mockEscalationService) ResolveComplaint(_ context.Context, actor models.Principal, complaintID, details string) (*models.Complaint, error) {
	return m.ResolveComplaintFunc(actor, complaintID, details)
}

func (m *mockEscalationService) ResolveEscalation(_ context.Context, actor models.Principal, escalationID, details string) (*models.Escalation, error) {
	return m.ResolveEscalationFunc(actor, escalationID, details)
}

func (m *mockEscalationService) Escalate(_ context.Context, actor models.Principal, escalationID, role, note string) (*models.Escalation, error) {
	return m.EscalateFunc(actor, escalationID, role, note)
}

func (m *mockEscalationService) Inbox(_ context.Context, actor models.Principal) ([]*models.Escalation, error) {
	return m.InboxFunc(actor)
}

// mockUserService implements UserServiceInterface
type mockUserService struct {
	GetUserFunc          func(id string) (*models.User, error)
	ListUsersFunc        func(filter models.UserFilter) ([]*models.User, error)
	CreateUserFunc       func(in services.CreateUserInput) (*models.User, error)
	UpdateUserFunc       func(actor models.Principal, id string, in services.UpdateUserInput) (*models.User, error)
	DeleteUserFunc       func(actor models.Principal, id string) error
	ToggleBlockFunc      func(actor models.Principal, id string) (*models.User, error)
	AdjustSuspensionFunc func(actor models.Principal, id string, hours, minutes int) (*models.User, suspension.Outcome, error)
}

func (m *mockUserService) GetUser(_ context.Context, id string) (*models.User, error) {
	return m.GetUserFunc(id)
}

func (m *mockUserService) ListUsers(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	return m.ListUsersFunc(filter)
}

func (m *mockUserService) CreateUser(_ context.Context, in services.CreateUserInput) (*models.User, error) {
	return m.CreateUserFunc(in)
}

func (m *mockUserService) UpdateUser(_ context.Context, actor models.Principal, id string, in services.UpdateUserInput) (*models.User, error) {
	return m.UpdateUserFunc(actor, id, in)
}

func (m *mockUserService) DeleteUser(_ context.Context, actor models.Principal, id string) error {
	return m.DeleteUserFunc(actor, id)
}

func (m *mockUserService) ToggleBlock(_ context.Context, actor models.Principal, id string) (*models.User, error) {
	return m.ToggleBlockFunc(actor, id)
}

func (m *mockUserService) AdjustSuspension(_ context.Context, actor models.Principal, id string, hours, minutes int) (*models.User, suspension.Outcome, error) {
	return m.AdjustSuspensionFunc(actor, id, hours, minutes)
}

// mockModerationService implements ModerationServiceInterface
type mockModerationService struct {
	ListWordsFunc  func() ([]*models.AbusiveWord, error)
	AddWordFunc    func(actor models.Principal, word string) (*models.AbusiveWord, error)
	DeleteWordFunc func(actor models.Principal, id string) error
	CheckTextFunc  func(text string) (*services.TextCheck, error)
}

func (m *mockModerationService) ListWords(_ context.Context) ([]*models.AbusiveWord, error) {
	return m.ListWordsFunc()
}

func (m *mockModerationService) AddWord(_ context.Context, actor models.Principal, word string) (*models.AbusiveWord, error) {
	return m.AddWordFunc(actor, word)
}

func (m *mockModerationService) DeleteWord(_ context.Context, actor models.Principal, id string) error {
	return m.DeleteWordFunc(actor, id)
}

func (m *mockModerationService) CheckText(_ context.Context, text string) (*services.TextCheck, error) {
	return m.CheckTextFunc(text)
}

// mockLogService implements LogServiceInterface
type mockLogService struct {
	ListFunc  func(filter models.LogFilter) ([]*models.ComplaintLog, error)
	PurgeFunc func(days int) (int64, error)
}

func (m *mockLogService) List(_ context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error) {
	return m.ListFunc(filter)
}

func (m *mockLogService) Purge(_ context.Context, days int) (int64, error) {
	return m.PurgeFunc(days)
}

// mockBackupService implements BackupServiceInterface
type mockBackupService struct {
	CreateFunc  func(actorID string) (string, error)
	ListFunc    func() ([]services.BackupFile, error)
	RestoreFunc func(actorID string, r io.Reader) error
}

func (m *mockBackupService) Create(_ context.Context, actorID string) (string, error) {
	return m.CreateFunc(actorID)
}

func (m *mockBackupService) List(_ context.Context) ([]services.BackupFile, error) {
	return m.ListFunc()
}

func (m *mockBackupService) Restore(_ context.Context, actorID string, r io.Reader) error {
	return m.RestoreFunc(actorID, r)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
