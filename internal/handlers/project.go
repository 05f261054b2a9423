package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/dto"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/middleware"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectService *services.ProjectService
	log            *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		log:            log,
	}
}

// ListProjects returns every project the current user can access
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": nonNilProjects(projects)})
}

// ListWorkspaceProjects returns the projects of a single workspace
func (h *ProjectHandler) ListWorkspaceProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	wsID, ok := middleware.ParseIDParam(c, "workspaceId", "Invalid workspace ID")
	if !ok {
		return
	}

	projects, err := h.projectService.ListWorkspaceProjects(c.Request.Context(), wsID, userID)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": nonNilProjects(projects)})
}

// CreateProject creates a project in a workspace the user belongs to
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Color       string `json:"color" binding:"max=20"`
		WorkspaceID uint64 `json:"workspace_id" binding:"required"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Name and workspace_id are required", err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		WorkspaceID: req.WorkspaceID,
		ActorID:     userID,
	})
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GetProject returns the project loaded by the access middleware
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project with its tasks
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.NotFound(c, "Project not found")
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), project.ID); err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ProjectHandler) respondProjectError(c *gin.Context, err error) {
	if respondMembershipError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrProjectNameRequired):
		apierrors.BadRequest(c, err.Error())
	default:
		internalError(c, h.log, "project request failed", err)
	}
}

func nonNilProjects(projects []models.ProjectWithStats) []models.ProjectWithStats {
	if projects == nil {
		return []models.ProjectWithStats{}
	}
	return projects
}
