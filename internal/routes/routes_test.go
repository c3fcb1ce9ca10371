package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/grievance/internal/auth"
	"github.com/BradenHooton/grievance/internal/handlers"
	"github.com/BradenHooton/grievance/internal/middleware"
	"github.com/BradenHooton/grievance/internal/models"
	"github.com/BradenHooton/grievance/internal/services"
)

// complaintStub answers every query with an empty result
type complaintStub struct{}

func (complaintStub) Submit(_ context.Context, actor models.Principal, in services.SubmitInput) (*models.Complaint, error) {
	return &models.Complaint{ID: "c1", UserID: actor.UserID, Title: in.Title, Category: in.Category, Status: models.ComplaintStatusPending}, nil
}

func (complaintStub) Modify(context.Context, models.Principal, string, services.ModifyInput) (*models.Complaint, error) {
	return nil, models.ErrNotFound
}

func (complaintStub) ListMine(context.Context, models.Principal, models.ComplaintFilter) ([]*models.Complaint, error) {
	return nil, nil
}

func (complaintStub) HandlerQueue(context.Context, models.Principal, models.ComplaintFilter) ([]*models.Complaint, error) {
	return nil, nil
}

func (complaintStub) GetDetail(context.Context, models.Principal, string) (*models.ComplaintDetail, error) {
	return nil, models.ErrNotFound
}

type revocationStub map[string]bool

func (s revocationStub) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s[jti], nil
}

// userStub is the live account table behind the sessions
type userStub map[string]*models.User

func (s userStub) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type healthStub struct{}

func (healthStub) HealthCheck(context.Context) error { return nil }

type testServer struct {
	router   *chi.Mux
	sessions *auth.SessionManager
	revoked  revocationStub
	users    userStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := auth.NewSessionManager("routes-test-secret-0123456789abcdef", time.Hour)
	revoked := revocationStub{}
	users := userStub{}

	h := Handlers{
		Auth:       handlers.NewAuthHandler(nil, nil, auth.CookieConfig{}, logger),
		Complaints: handlers.NewComplaintHandler(complaintStub{}, nil, 1<<20),
		Health:     healthStub{},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, h, Options{
		Sessions:    sessions,
		Revocations: revoked,
		Users:       users,
		LoginLimit:  middleware.RateLimitConfig{Requests: 3, Window: time.Minute},
	}, logger)

	return &testServer{router: router, sessions: sessions, revoked: revoked, users: users}
}

// login issues a session for role and returns its cookies
func (s *testServer) login(t *testing.T, role string) (*http.Cookie, *http.Cookie, string) {
	t.Helper()
	user := &models.User{ID: "user-" + role, Role: role, FName: "Test", Status: models.UserStatusActive}
	s.users[user.ID] = user
	token, claims, err := s.sessions.Issue(user)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: token},
		&http.Cookie{Name: auth.CSRFCookieName, Value: "csrf-" + role},
		claims.ID
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRoleGating(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		path       string
		wantStatus int
	}{
		{"anonymous caller", "", "/complaints/mine", http.StatusUnauthorized},
		{"student lists own complaints", models.RoleUser, "/complaints/mine", http.StatusOK},
		{"dean may also file complaints", models.RoleCollegeDean, "/complaints/mine", http.StatusOK},
		{"admin cannot file complaints", models.RoleAdmin, "/complaints/mine", http.StatusForbidden},
		{"handler queue for handler", models.RoleHandler, "/handler/complaints", http.StatusOK},
		{"handler queue for admin", models.RoleAdmin, "/handler/complaints", http.StatusOK},
		{"handler queue for student", models.RoleUser, "/handler/complaints", http.StatusForbidden},
		{"inbox for handler", models.RoleHandler, "/escalations/inbox", http.StatusForbidden},
		{"admin area for student", models.RoleUser, "/admin/users", http.StatusForbidden},
		{"admin area for dean", models.RoleCollegeDean, "/admin/logs", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.role != "" {
				session, _, _ := srv.login(t, tt.role)
				req.AddCookie(session)
			}

			w := srv.do(req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestRevokedSession(t *testing.T) {
	srv := newTestServer(t)
	session, _, jti := srv.login(t, models.RoleUser)
	srv.revoked[jti] = true

	req := httptest.NewRequest(http.MethodGet, "/complaints/mine", nil)
	req.AddCookie(session)

	assert.Equal(t, http.StatusUnauthorized, srv.do(req).Code)
}

func TestAccountChangesApplyToOpenSessions(t *testing.T) {
	tests := []struct {
		name       string
		change     func(u *models.User)
		wantStatus int
	}{
		{"unchanged", func(*models.User) {}, http.StatusOK},
		{"blocked", func(u *models.User) { u.Status = models.UserStatusBlocked }, http.StatusForbidden},
		{"demoted", func(u *models.User) { u.Role = models.RoleUser }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			session, _, _ := srv.login(t, models.RoleHandler)
			tt.change(srv.users["user-"+models.RoleHandler])

			req := httptest.NewRequest(http.MethodGet, "/handler/complaints", nil)
			req.AddCookie(session)

			assert.Equal(t, tt.wantStatus, srv.do(req).Code)
		})
	}
}

func TestCSRFOnSessionMutations(t *testing.T) {
	body := `{"title":"Late grades","description":"Grades for MATH201 are a month late.","category":"academic"}`

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusForbidden},
		{"wrong header", "csrf-someone-else", http.StatusForbidden},
		{"matching header", "csrf-user", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			session, csrf, _ := srv.login(t, models.RoleUser)

			req := httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(session)
			req.AddCookie(csrf)
			if tt.header != "" {
				req.Header.Set(auth.CSRFHeaderName, tt.header)
			}

			w := srv.do(req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
		w := srv.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusTooManyRequests, srv.do(req).Code)
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusOK, srv.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}
