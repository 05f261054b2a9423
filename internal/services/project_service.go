package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectNameRequired = errors.New("project name is required")
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	wsRepo      repository.WorkspaceRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, wsRepo repository.WorkspaceRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		wsRepo:      wsRepo,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	Color       string
	WorkspaceID uint64
	ActorID     uint64
}

// ListProjectsForUser returns every project reachable through the user's memberships.
func (s *ProjectService) ListProjectsForUser(ctx context.Context, userID uint64) ([]models.ProjectWithStats, error) {
	projects, err := s.projectRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ListWorkspaceProjects returns a workspace's projects after checking membership.
func (s *ProjectService) ListWorkspaceProjects(ctx context.Context, wsID, userID uint64) ([]models.ProjectWithStats, error) {
	if err := ensureWorkspaceMember(ctx, s.wsRepo, wsID, userID); err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListByWorkspace(ctx, wsID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace projects: %w", err)
	}
	return projects, nil
}

// CreateProject creates a project in a workspace the actor belongs to.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.ProjectWithStats, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	if err := ensureWorkspaceMember(ctx, s.wsRepo, input.WorkspaceID, input.ActorID); err != nil {
		return nil, err
	}

	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = constants.DefaultProjectColor
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Color:       color,
		WorkspaceID: input.WorkspaceID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return withStats(project, 0, 0), nil
}

// GetProject returns a project by ID
func (s *ProjectService) GetProject(ctx context.Context, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// DeleteProject deletes a project and its tasks
func (s *ProjectService) DeleteProject(ctx context.Context, projectID uint64) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func withStats(p *models.Project, taskCount, completedCount int64) *models.ProjectWithStats {
	return &models.ProjectWithStats{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Color:          p.Color,
		WorkspaceID:    p.WorkspaceID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		TaskCount:      taskCount,
		CompletedCount: completedCount,
	}
}
