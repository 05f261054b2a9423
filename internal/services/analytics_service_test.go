package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"github.com/tasknexus/server/internal/testutil"
)

type stubAnalyticsRepo struct {
	counts   *repository.DashboardCounts
	activity []repository.TaskActivity
	err      error
	now      time.Time
	since    time.Time
}

func (s *stubAnalyticsRepo) DashboardCounts(ctx context.Context, userID uint64, now time.Time) (*repository.DashboardCounts, error) {
	s.now = now
	return s.counts, s.err
}

func (s *stubAnalyticsRepo) TaskActivitySince(ctx context.Context, userID uint64, since time.Time) ([]repository.TaskActivity, error) {
	s.since = since
	return s.activity, s.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDashboardSummary_ZeroFillsBreakdowns(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	repo := &stubAnalyticsRepo{counts: &repository.DashboardCounts{
		TotalTasks: 5,
		ByStatus: []repository.StatusCount{
			{Status: models.TaskStatusDone, Count: 2},
			{Status: "legacy", Count: 1},
			{Status: models.TaskStatusTodo, Count: 2},
		},
		ByPriority: []repository.PriorityCount{
			{Priority: models.PriorityUrgent, Count: 5},
		},
	}}

	summary, err := NewAnalyticsService(repo, fixedClock(now)).DashboardSummary(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, now, repo.now)
	assert.Equal(t, []repository.StatusCount{
		{Status: models.TaskStatusTodo, Count: 2},
		{Status: models.TaskStatusInProgress, Count: 0},
		{Status: models.TaskStatusReview, Count: 0},
		{Status: models.TaskStatusDone, Count: 2},
		{Status: "legacy", Count: 1},
	}, summary.TasksByStatus)
	assert.Equal(t, []repository.PriorityCount{
		{Priority: models.PriorityLow, Count: 0},
		{Priority: models.PriorityMedium, Count: 0},
		{Priority: models.PriorityHigh, Count: 0},
		{Priority: models.PriorityUrgent, Count: 5},
	}, summary.TasksByPriority)

	var sum int64
	for _, sc := range summary.TasksByStatus {
		sum += sc.Count
	}
	assert.Equal(t, summary.TotalTasks, sum)
}

func TestDashboardSummary_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewAnalyticsService(&stubAnalyticsRepo{err: boom}, nil).DashboardSummary(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestWeeklySeries_AlwaysSevenDays(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	repo := &stubAnalyticsRepo{}

	series, err := NewAnalyticsService(repo, fixedClock(now)).WeeklySeries(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, series, 7)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), repo.since)
	assert.Equal(t, "2024-03-09", series[0].Date)
	assert.Equal(t, "Sat", series[0].Day)
	assert.Equal(t, "2024-03-15", series[6].Date)
	assert.Equal(t, "Fri", series[6].Day)
	for _, point := range series {
		assert.Zero(t, point.Created)
		assert.Zero(t, point.Completed)
	}
}

func TestWeeklySeries_Buckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return time.Date(2024, 3, 15+offset, hour, 0, 0, 0, time.UTC)
	}
	repo := &stubAnalyticsRepo{activity: []repository.TaskActivity{
		{CreatedAt: day(0, 9), UpdatedAt: day(0, 9)},
		{CreatedAt: day(-1, 9), UpdatedAt: day(0, 10), Completed: true},
		{CreatedAt: day(-20, 9), UpdatedAt: day(-6, 23), Completed: true},
		{CreatedAt: day(-6, 0), UpdatedAt: day(-6, 0)},
		// Updated but not completed does not count as completed.
		{CreatedAt: day(-30, 0), UpdatedAt: day(-2, 0)},
	}}

	series, err := NewAnalyticsService(repo, fixedClock(now)).WeeklySeries(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, DayActivity{Day: "Sat", Date: "2024-03-09", Created: 1, Completed: 1}, series[0])
	assert.Equal(t, DayActivity{Day: "Thu", Date: "2024-03-14", Created: 1}, series[5])
	assert.Equal(t, DayActivity{Day: "Fri", Date: "2024-03-15", Created: 1, Completed: 1}, series[6])
	assert.Equal(t, DayActivity{Day: "Wed", Date: "2024-03-13"}, series[4])
}

func TestWeeklySeries_AgainstDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	project := testutil.CreateProject(t, db, "p", testutil.CreateWorkspace(t, db, "ws", alice))
	bobProject := testutil.CreateProject(t, db, "b", testutil.CreateWorkspace(t, db, "bws", bob))

	testutil.CreateTask(t, db, project, &models.Task{Title: "new", CreatedAt: now, UpdatedAt: now})
	testutil.CreateTask(t, db, project, &models.Task{Title: "done", Status: models.TaskStatusDone, CreatedAt: now, UpdatedAt: now})
	testutil.CreateTask(t, db, bobProject, &models.Task{Title: "hidden", CreatedAt: now, UpdatedAt: now})

	svc := NewAnalyticsService(repository.NewAnalyticsRepository(db), fixedClock(now))
	series, err := svc.WeeklySeries(context.Background(), alice.ID)
	require.NoError(t, err)

	require.Len(t, series, 7)
	today := series[6]
	assert.Equal(t, now.Format("2006-01-02"), today.Date)
	assert.Equal(t, int64(2), today.Created)
	assert.Equal(t, int64(1), today.Completed)

	summary, err := svc.DashboardSummary(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalTasks)
	assert.Equal(t, int64(1), summary.CompletedTasks)
	assert.Len(t, summary.TasksByStatus, 4)
}
