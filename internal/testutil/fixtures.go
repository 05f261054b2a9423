package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tasknexus/server/internal/models"
	"gorm.io/gorm"
)

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateWorkspace creates a workspace owned by owner together with the owner membership.
func CreateWorkspace(t *testing.T, db *gorm.DB, name string, owner *models.User) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{
		Name:       name,
		OwnerID:    owner.ID,
		InviteCode: fmt.Sprintf("%s-code-%d", name, time.Now().UnixNano()),
	}
	require.NoError(t, db.Create(ws).Error)
	AddMember(t, db, ws, owner, models.RoleOwner)
	return ws
}

func AddMember(t *testing.T, db *gorm.DB, ws *models.Workspace, user *models.User, role models.WorkspaceRole) {
	t.Helper()
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      user.ID,
		Role:        role,
		JoinedAt:    time.Now(),
	}).Error)
}

func CreateProject(t *testing.T, db *gorm.DB, name string, ws *models.Workspace) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:        name,
		Color:       "#3B82F6",
		WorkspaceID: ws.ID,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTask inserts task as given after pointing it at project. Zero status and
// priority fall back to the column defaults.
func CreateTask(t *testing.T, db *gorm.DB, project *models.Project, task *models.Task) *models.Task {
	t.Helper()
	task.ProjectID = project.ID
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.Completed = task.Status == models.TaskStatusDone
	require.NoError(t, db.Create(task).Error)
	return task
}
