package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/grievance/internal/models"
)

type mockNoticeRepo struct {
	notices []*models.Notice
}

func (m *mockNoticeRepo) Create(ctx context.Context, n *models.Notice) (*models.Notice, error) {
	n.ID = "notice-1"
	m.notices = append(m.notices, n)
	return n, nil
}

func (m *mockNoticeRepo) List(ctx context.Context, limit, offset int) ([]*models.Notice, error) {
	return m.notices, nil
}

func (m *mockNoticeRepo) Update(ctx context.Context, id, title, body string) (*models.Notice, error) {
	for _, n := range m.notices {
		if n.ID == id {
			n.Title, n.Body = title, body
			return n, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockNoticeRepo) Delete(ctx context.Context, id string) error {
	return models.ErrNotFound
}

type mockFeedbackRepo struct {
	created   []*models.Feedback
	createErr error
}

func (m *mockFeedbackRepo) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, f)
	return f, nil
}

func (m *mockFeedbackRepo) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	return m.created, nil
}

func (m *mockFeedbackRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestBoardService_Notices(t *testing.T) {
	notices := &mockNoticeRepo{}
	svc := NewBoardService(notices, &mockFeedbackRepo{}, testLogger())
	ctx := context.Background()

	_, err := svc.PostNotice(ctx, adminActor, "", "body")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.PostNotice(ctx, adminActor, strings.Repeat("t", MaxNoticeTitleLength+1), "body")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	n, err := svc.PostNotice(ctx, adminActor, " Exam week ", " Library hours are extended. ")
	require.NoError(t, err)
	assert.Equal(t, "Exam week", n.Title)
	assert.Equal(t, "admin-1", n.PostedBy)

	n, err = svc.EditNotice(ctx, n.ID, "Exam week", "Library opens at 7.")
	require.NoError(t, err)
	assert.Equal(t, "Library opens at 7.", n.Body)

	_, err = svc.EditNotice(ctx, "missing", "a", "b")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteNotice(ctx, "missing"), models.ErrNotFound)
}

func TestBoardService_SubmitFeedback(t *testing.T) {
	feedback := &mockFeedbackRepo{}
	svc := NewBoardService(&mockNoticeRepo{}, feedback, testLogger())
	ctx := context.Background()
	student := models.Principal{UserID: "student-1", Role: models.RoleUser}

	_, err := svc.SubmitFeedback(ctx, student, "   ", nil)
	assert.ErrorIs(t, err, models.ErrBadRequest)

	empty := ""
	f, err := svc.SubmitFeedback(ctx, student, "The new portal is easier to use.", &empty)
	require.NoError(t, err)
	assert.Nil(t, f.ComplaintID)
	assert.Equal(t, "student-1", f.UserID)

	feedback.createErr = models.ErrHasDependents
	unknown := "complaint-x"
	_, err = svc.SubmitFeedback(ctx, student, "About my complaint", &unknown)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
