package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/grievance/internal/models"
)

// MockNotificationRepository stores notifications in memory
type MockNotificationRepository struct {
	Stored    []*models.Notification
	CreateErr error
	MarkErr   error
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Stored = append(m.Stored, n)
	return n, nil
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.Stored {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	unread, _ := m.ListByUser(ctx, userID, true, 0, 0)
	return int64(len(unread)), nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	return m.MarkErr
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

type mockRecipients struct {
	users map[string]*models.User
	err   error
}

func (m *mockRecipients) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockRecipients) ListByRoleInScope(ctx context.Context, role, college, department string) ([]*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.User
	for _, u := range m.users {
		if u.Role == role && (college == "" || u.College == college) && (department == "" || u.Department == department) {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, to)
	return m.err
}

func TestNotificationService_Notify(t *testing.T) {
	repo := &MockNotificationRepository{}
	mailer := &mockMailer{}
	users := &mockRecipients{users: map[string]*models.User{"student-1": NewTestUser("student-1", models.RoleUser)}}
	svc := NewNotificationService(repo, users, mailer, testLogger())

	id := "complaint-1"
	svc.Notify(context.Background(), "student-1", &id, "submitted")

	require.Len(t, repo.Stored, 1)
	assert.Equal(t, "student-1", repo.Stored[0].UserID)
	assert.Equal(t, &id, repo.Stored[0].ComplaintID)
	assert.Equal(t, []string{"student-1@uni.example.edu"}, mailer.sent)
}

func TestNotificationService_Notify_FailuresAreSwallowed(t *testing.T) {
	repo := &MockNotificationRepository{}
	mailer := &mockMailer{err: errors.New("ses throttled")}
	svc := NewNotificationService(repo, &mockRecipients{}, mailer, testLogger())

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), "unknown", nil, "hello")
	})
	assert.Len(t, repo.Stored, 1, "the in-app copy is stored even without an email")
	assert.Empty(t, mailer.sent)

	repo.CreateErr = errors.New("insert failed")
	svc.Notify(context.Background(), "unknown", nil, "hello")
	assert.Len(t, repo.Stored, 1)
}

func TestNotificationService_NotifyRole(t *testing.T) {
	headCS := NewTestUser("head-cs", models.RoleDepartmentHead)
	headCS.College, headCS.Department = "Engineering", "Computer Science"
	headEE := NewTestUser("head-ee", models.RoleDepartmentHead)
	headEE.College, headEE.Department = "Engineering", "Electrical"

	repo := &MockNotificationRepository{}
	svc := NewNotificationService(repo, &mockRecipients{users: map[string]*models.User{
		"head-cs": headCS,
		"head-ee": headEE,
	}}, nil, testLogger())

	sent := svc.NotifyRole(context.Background(), models.RoleDepartmentHead, "Engineering", "Computer Science", nil, "assigned")

	assert.Equal(t, 1, sent)
	require.Len(t, repo.Stored, 1)
	assert.Equal(t, "head-cs", repo.Stored[0].UserID)

	assert.Equal(t, 0, svc.NotifyRole(context.Background(), models.RolePresident, "", "", nil, "assigned"))
}

func TestNotificationService_ReadState(t *testing.T) {
	repo := &MockNotificationRepository{Stored: []*models.Notification{
		{ID: "n1", UserID: "student-1", CreatedAt: testNow},
		{ID: "n2", UserID: "student-1", IsRead: true, CreatedAt: testNow.Add(-time.Hour)},
	}}
	svc := NewNotificationService(repo, &mockRecipients{}, nil, testLogger())
	ctx := context.Background()

	n, err := svc.UnreadCount(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err := svc.List(ctx, "student-1", true, 0, -5)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	repo.MarkErr = models.ErrNotFound
	assert.ErrorIs(t, svc.MarkRead(ctx, "student-2", "n1"), models.ErrNotFound)
}
