package repository

import (
	"context"

	"github.com/tasknexus/server/internal/database"
	"github.com/tasknexus/server/internal/models"
	"gorm.io/gorm"
)

const projectStatsColumns = `projects.id, projects.name, projects.description, projects.color,
	projects.workspace_id, projects.created_at, projects.updated_at,
	(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count,
	(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id AND tasks.completed = ?) AS completed_count`

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByWorkspace lists a workspace's projects with their task counters
func (r *GormProjectRepository) ListByWorkspace(ctx context.Context, workspaceID uint64) ([]models.ProjectWithStats, error) {
	projects := []models.ProjectWithStats{}
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Select(projectStatsColumns, true).
		Where("projects.workspace_id = ?", workspaceID).
		Order("projects.id ASC").
		Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ListForUser lists projects across all of the user's workspaces
func (r *GormProjectRepository) ListForUser(ctx context.Context, userID uint64) ([]models.ProjectWithStats, error) {
	projects := []models.ProjectWithStats{}
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Scopes(database.VisibleProjects(userID)).
		Select(projectStatsColumns, true).
		Order("projects.id ASC").
		Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Delete deletes a project and its tasks in a transaction
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}
