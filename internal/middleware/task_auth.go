package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"go.uber.org/zap"
)

// RequireProjectAccess checks if the user has access to a project.
// User must be a member of the project's workspace.
func RequireProjectAccess(projectRepo repository.ProjectRepository, wsRepo repository.WorkspaceRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := ParseIDParam(c, "id", "Invalid project ID")
		if !ok {
			return
		}

		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		project, err := projectRepo.FindByID(c.Request.Context(), projectID)
		if err != nil {
			abortLookup(c, log, err, "Project not found")
			return
		}

		if _, err := wsRepo.FindMember(c.Request.Context(), project.WorkspaceID, userID); err != nil {
			abortLookup(c, log, err, "Project not found")
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// RequireTaskAccess checks if the user has access to a task through
// task -> project -> workspace membership.
func RequireTaskAccess(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, wsRepo repository.WorkspaceRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, ok := ParseIDParam(c, "id", "Invalid task ID")
		if !ok {
			return
		}

		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		task, err := taskRepo.FindByID(c.Request.Context(), taskID)
		if err != nil {
			abortLookup(c, log, err, "Task not found")
			return
		}

		project, err := projectRepo.FindByID(c.Request.Context(), task.ProjectID)
		if err != nil {
			abortLookup(c, log, err, "Task not found")
			return
		}

		if _, err := wsRepo.FindMember(c.Request.Context(), project.WorkspaceID, userID); err != nil {
			abortLookup(c, log, err, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

func GetProject(c *gin.Context) (*models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := value.(*models.Project)
	return project, ok
}

func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
