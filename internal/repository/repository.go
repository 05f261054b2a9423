package repository

import (
	"context"
	"time"

	"github.com/tasknexus/server/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateWithDefaultWorkspace creates a user, their default workspace, the
	// owner membership and a starter project within a single transaction.
	CreateWithDefaultWorkspace(ctx context.Context, user *models.User, ws *models.Workspace, member *models.WorkspaceMember, project *models.Project) error
}

// WorkspaceRepository defines the interface for workspace and membership data access
type WorkspaceRepository interface {
	// CreateWithOwner creates a workspace and its owner membership atomically
	CreateWithOwner(ctx context.Context, ws *models.Workspace, owner *models.WorkspaceMember) error

	// FindByID finds a workspace by ID
	FindByID(ctx context.Context, id uint64) (*models.Workspace, error)

	// FindByInviteCode finds a workspace by invite code
	FindByInviteCode(ctx context.Context, code string) (*models.Workspace, error)

	// Update saves a workspace
	Update(ctx context.Context, ws *models.Workspace) error

	// Delete deletes a workspace with its projects, tasks and memberships
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a member to a workspace
	AddMember(ctx context.Context, member *models.WorkspaceMember) error

	// RemoveMember removes a member from a workspace
	RemoveMember(ctx context.Context, workspaceID, userID uint64) error

	// FindMember finds a specific membership; gorm.ErrRecordNotFound means "not a member"
	FindMember(ctx context.Context, workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// ListMembershipsByUserID lists the user's memberships with their workspaces
	ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.WorkspaceMember, error)

	// ListMembers lists all members of a workspace with their users
	ListMembers(ctx context.Context, workspaceID uint64) ([]models.WorkspaceMember, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// ListByWorkspace lists a workspace's projects with task counters
	ListByWorkspace(ctx context.Context, workspaceID uint64) ([]models.ProjectWithStats, error)

	// ListForUser lists every project the user reaches through membership, with task counters
	ListForUser(ctx context.Context, userID uint64) ([]models.ProjectWithStats, error)

	// Delete deletes a project and its tasks
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks visible to filter.UserID with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields applies column updates to a task in a single statement
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// Delete deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID    uint64
	ProjectID *uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Page      int
	PageSize  int
}

// AnalyticsRepository runs the dashboard aggregations
type AnalyticsRepository interface {
	// DashboardCounts computes the summary counters for tasks visible to userID
	DashboardCounts(ctx context.Context, userID uint64, now time.Time) (*DashboardCounts, error)

	// TaskActivitySince returns creation/completion timestamps of visible tasks
	// created or completed at or after since
	TaskActivitySince(ctx context.Context, userID uint64, since time.Time) ([]TaskActivity, error)
}

// DashboardCounts is the raw result of the dashboard aggregation
type DashboardCounts struct {
	TotalTasks      int64
	CompletedTasks  int64
	InProgressTasks int64
	OverdueTasks    int64
	TotalProjects   int64
	TotalWorkspaces int64
	ByStatus        []StatusCount
	ByPriority      []PriorityCount
}

type StatusCount struct {
	Status models.TaskStatus
	Count  int64
}

type PriorityCount struct {
	Priority models.TaskPriority
	Count    int64
}

// TaskActivity carries the fields the weekly series buckets on
type TaskActivity struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Completed bool
}
