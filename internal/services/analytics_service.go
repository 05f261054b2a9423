package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
)

// DashboardSummary is the per-user dashboard aggregate.
type DashboardSummary struct {
	TotalTasks      int64
	CompletedTasks  int64
	InProgressTasks int64
	OverdueTasks    int64
	TotalProjects   int64
	TotalWorkspaces int64
	TasksByStatus   []repository.StatusCount
	TasksByPriority []repository.PriorityCount
}

// DayActivity is one point of the weekly series.
type DayActivity struct {
	Day       string
	Date      string
	Completed int64
	Created   int64
}

// AnalyticsService computes dashboard figures over the tasks a user can reach.
type AnalyticsService struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. A nil clock means time.Now.
func NewAnalyticsService(repo repository.AnalyticsRepository, clock func() time.Time) *AnalyticsService {
	if clock == nil {
		clock = time.Now
	}
	return &AnalyticsService{repo: repo, now: clock}
}

// DashboardSummary returns the counters and zero-filled breakdowns for userID.
func (s *AnalyticsService) DashboardSummary(ctx context.Context, userID uint64) (*DashboardSummary, error) {
	counts, err := s.repo.DashboardCounts(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard: %w", err)
	}

	return &DashboardSummary{
		TotalTasks:      counts.TotalTasks,
		CompletedTasks:  counts.CompletedTasks,
		InProgressTasks: counts.InProgressTasks,
		OverdueTasks:    counts.OverdueTasks,
		TotalProjects:   counts.TotalProjects,
		TotalWorkspaces: counts.TotalWorkspaces,
		TasksByStatus:   fillStatuses(counts.ByStatus),
		TasksByPriority: fillPriorities(counts.ByPriority),
	}, nil
}

// WeeklySeries returns seven points from six days ago through today, oldest first.
func (s *AnalyticsService) WeeklySeries(ctx context.Context, userID uint64) ([]DayActivity, error) {
	now := s.now()
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(constants.WeeklySeriesDays - 1))

	activity, err := s.repo.TaskActivitySince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to compute weekly series: %w", err)
	}

	series := make([]DayActivity, constants.WeeklySeriesDays)
	index := make(map[string]int, constants.WeeklySeriesDays)
	for i := range series {
		day := start.AddDate(0, 0, i)
		date := day.Format(constants.DateLayout)
		series[i] = DayActivity{
			Day:  day.Format(constants.DayLabelLayout),
			Date: date,
		}
		index[date] = i
	}

	for _, a := range activity {
		if i, ok := index[a.CreatedAt.In(loc).Format(constants.DateLayout)]; ok {
			series[i].Created++
		}
		if !a.Completed {
			continue
		}
		if i, ok := index[a.UpdatedAt.In(loc).Format(constants.DateLayout)]; ok {
			series[i].Completed++
		}
	}

	return series, nil
}

// fillStatuses lists every known status in board order, then any unknown stored values.
func fillStatuses(rows []repository.StatusCount) []repository.StatusCount {
	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] += r.Count
	}

	out := make([]repository.StatusCount, 0, len(models.TaskStatuses)+len(rows))
	for _, status := range models.TaskStatuses {
		out = append(out, repository.StatusCount{Status: status, Count: counts[status]})
		delete(counts, status)
	}
	for _, r := range rows {
		if c, ok := counts[r.Status]; ok {
			out = append(out, repository.StatusCount{Status: r.Status, Count: c})
			delete(counts, r.Status)
		}
	}
	return out
}

func fillPriorities(rows []repository.PriorityCount) []repository.PriorityCount {
	counts := make(map[models.TaskPriority]int64, len(rows))
	for _, r := range rows {
		counts[r.Priority] += r.Count
	}

	out := make([]repository.PriorityCount, 0, len(models.TaskPriorities)+len(rows))
	for _, priority := range models.TaskPriorities {
		out = append(out, repository.PriorityCount{Priority: priority, Count: counts[priority]})
		delete(counts, priority)
	}
	for _, r := range rows {
		if c, ok := counts[r.Priority]; ok {
			out = append(out, repository.PriorityCount{Priority: r.Priority, Count: c})
			delete(counts, r.Priority)
		}
	}
	return out
}
