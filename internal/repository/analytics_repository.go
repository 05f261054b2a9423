package repository

import (
	"context"
	"time"

	"github.com/tasknexus/server/internal/database"
	"github.com/tasknexus/server/internal/models"
	"gorm.io/gorm"
)

// GormAnalyticsRepository is a GORM implementation of AnalyticsRepository
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// DashboardCounts runs every dashboard aggregation inside one read transaction
// so the counters come from the same snapshot where the isolation level allows it.
func (r *GormAnalyticsRepository) DashboardCounts(ctx context.Context, userID uint64, now time.Time) (*DashboardCounts, error) {
	counts := &DashboardCounts{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := func() *gorm.DB {
			return tx.Model(&models.Task{}).Scopes(database.VisibleTasks(userID))
		}

		if err := tasks().Count(&counts.TotalTasks).Error; err != nil {
			return err
		}
		if err := tasks().Where("tasks.completed = ?", true).Count(&counts.CompletedTasks).Error; err != nil {
			return err
		}
		if err := tasks().Where("tasks.status = ?", models.TaskStatusInProgress).Count(&counts.InProgressTasks).Error; err != nil {
			return err
		}
		if err := tasks().
			Where("tasks.completed = ?", false).
			Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", now).
			Count(&counts.OverdueTasks).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Project{}).
			Scopes(database.VisibleProjects(userID)).
			Count(&counts.TotalProjects).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.WorkspaceMember{}).
			Where("user_id = ?", userID).
			Count(&counts.TotalWorkspaces).Error; err != nil {
			return err
		}

		if err := tasks().
			Select("tasks.status AS status, COUNT(*) AS count").
			Group("tasks.status").
			Scan(&counts.ByStatus).Error; err != nil {
			return err
		}
		return tasks().
			Select("tasks.priority AS priority, COUNT(*) AS count").
			Group("tasks.priority").
			Scan(&counts.ByPriority).Error
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// TaskActivitySince returns the timestamps of visible tasks created since the
// cutoff, or completed with a last update since the cutoff.
func (r *GormAnalyticsRepository) TaskActivitySince(ctx context.Context, userID uint64, since time.Time) ([]TaskActivity, error) {
	activity := []TaskActivity{}
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.VisibleTasks(userID)).
		Select("tasks.created_at AS created_at, tasks.updated_at AS updated_at, tasks.completed AS completed").
		Where("tasks.created_at >= ? OR (tasks.completed = ? AND tasks.updated_at >= ?)", since, true, since).
		Scan(&activity).Error
	if err != nil {
		return nil, err
	}
	return activity, nil
}
