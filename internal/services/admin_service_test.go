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

type mockDashboardSource struct {
	usersByStatus      map[string]int64
	usersByRole        map[string]int64
	complaintsByStatus map[string]int64
	pending            int64
	abusive            int64
	logs               []*models.ComplaintLog
	err                error

	abusiveSince time.Time
	listFilters  []models.LogFilter
}

type dashboardUsers struct{ *mockDashboardSource }

func (m dashboardUsers) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return m.usersByStatus, m.err
}

func (m dashboardUsers) CountByRole(ctx context.Context) (map[string]int64, error) {
	return m.usersByRole, nil
}

type dashboardComplaints struct{ *mockDashboardSource }

func (m dashboardComplaints) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return m.complaintsByStatus, nil
}

func (m *mockDashboardSource) CountPending(ctx context.Context) (int64, error) {
	return m.pending, nil
}

func (m *mockDashboardSource) List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error) {
	m.listFilters = append(m.listFilters, filter)
	var out []*models.ComplaintLog
	for _, l := range m.logs {
		if l.Action == filter.Action {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockDashboardSource) CountSince(ctx context.Context, action string, since time.Time) (int64, error) {
	m.abusiveSince = since
	return m.abusive, nil
}

func newTestAdminService(src *mockDashboardSource) *AdminService {
	svc := NewAdminService(dashboardUsers{src}, dashboardComplaints{src}, src, src, testLogger())
	svc.now = func() time.Time { return testNow.Add(5 * time.Hour) }
	return svc
}

func TestAdminService_GetDashboardStats(t *testing.T) {
	src := &mockDashboardSource{
		usersByStatus: map[string]int64{
			models.UserStatusActive:    40,
			models.UserStatusSuspended: 3,
			models.UserStatusBlocked:   2,
		},
		usersByRole: map[string]int64{models.RoleUser: 38, models.RoleHandler: 4, models.RoleAdmin: 3},
		complaintsByStatus: map[string]int64{
			models.ComplaintStatusPending:  7,
			models.ComplaintStatusResolved: 12,
		},
		pending: 5,
		abusive: 2,
	}

	stats, err := newTestAdminService(src).GetDashboardStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(45), stats.TotalUsers)
	assert.Equal(t, int64(40), stats.ActiveUsers)
	assert.Equal(t, int64(3), stats.SuspendedUsers)
	assert.Equal(t, int64(2), stats.BlockedUsers)
	assert.Equal(t, int64(4), stats.RoleBreakdown[models.RoleHandler])
	assert.Equal(t, int64(19), stats.TotalComplaints)
	assert.Equal(t, int64(5), stats.PendingEscalations)
	assert.Equal(t, int64(2), stats.AbusiveAttemptsToday)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), src.abusiveSince)
}

func TestAdminService_GetDashboardStats_Error(t *testing.T) {
	src := &mockDashboardSource{err: errors.New("db down")}

	stats, err := newTestAdminService(src).GetDashboardStats(context.Background())

	assert.Nil(t, stats)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAdminService_GetRecentActivity(t *testing.T) {
	src := &mockDashboardSource{
		logs: []*models.ComplaintLog{
			{UserID: "student-1", Action: models.LogActionComplaintSubmitted, Details: "complaint c1", CreatedAt: testNow},
			{UserID: "student-2", Action: models.LogActionAbusiveAttempt, Details: "matched words: idiot", CreatedAt: testNow},
		},
	}

	activity, err := newTestAdminService(src).GetRecentActivity(context.Background(), 500)

	require.NoError(t, err)
	require.Len(t, activity.RecentSubmissions, 1)
	assert.Equal(t, "student-1", activity.RecentSubmissions[0].ActorID)
	assert.Equal(t, testNow.Format(time.RFC3339), activity.RecentSubmissions[0].Timestamp)
	require.Len(t, activity.AbusiveAttempts, 1)
	assert.Empty(t, activity.RecentEscalations)

	for _, f := range src.listFilters {
		assert.Equal(t, 20, f.Limit, "limit is clamped")
	}
}
