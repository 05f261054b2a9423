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

// WorkspaceHandler handles workspace-related HTTP requests
type WorkspaceHandler struct {
	wsService *services.WorkspaceService
	log       *zap.Logger
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(wsService *services.WorkspaceService, log *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		wsService: wsService,
		log:       log,
	}
}

// ListWorkspaces returns the workspaces the current user belongs to
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	memberships, err := h.wsService.ListWorkspacesForUser(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.log, "list workspaces failed", err)
		return
	}

	workspaces := make([]dto.WorkspaceWithRoleDTO, len(memberships))
	for i, m := range memberships {
		workspaces[i] = dto.ToWorkspaceWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// CreateWorkspace creates a workspace owned by the current user
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateWorkspaceRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Workspace name is required", err)
		return
	}

	ws, err := h.wsService.CreateWorkspace(c.Request.Context(), services.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.WorkspaceWithRoleDTO{
		WorkspaceDTO: dto.ToWorkspaceDTO(*ws, true),
		Role:         models.RoleOwner,
	})
}

// JoinWorkspace adds the current user to the workspace behind an invite code
func (h *WorkspaceHandler) JoinWorkspace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type JoinWorkspaceRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Invite code is required", err)
		return
	}

	ws, err := h.wsService.JoinWorkspaceByInvite(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WorkspaceWithRoleDTO{
		WorkspaceDTO: dto.ToWorkspaceDTO(*ws, false),
		Role:         models.RoleMember,
	})
}

// GetWorkspace returns a workspace with its members
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	member, ok := middleware.GetMember(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	ws, members, err := h.wsService.GetWorkspaceWithMembers(c.Request.Context(), member.WorkspaceID)
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*ws, members, member.Role))
}

// UpdateWorkspace changes a workspace's name or description
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	type UpdateWorkspaceRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Invalid request body", err)
		return
	}

	updated, err := h.wsService.UpdateWorkspace(c.Request.Context(), ws.ID, services.UpdateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*updated, true))
}

// DeleteWorkspace removes a workspace and everything in it
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.wsService.DeleteWorkspace(c.Request.Context(), ws.ID, userID); err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegenerateInviteCode issues a fresh invite code
func (h *WorkspaceHandler) RegenerateInviteCode(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	updated, err := h.wsService.RegenerateInviteCode(c.Request.Context(), ws.ID)
	if err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite_code": updated.InviteCode})
}

// RemoveMember removes another user from the workspace
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.NotFound(c, "Workspace not found")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := middleware.ParseIDParam(c, "userId", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.wsService.RemoveMember(c.Request.Context(), ws.ID, userID, targetID); err != nil {
		h.respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WorkspaceHandler) respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound):
		apierrors.NotFound(c, "Workspace not found")
	case errors.Is(err, services.ErrInvalidWorkspaceName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, "Invalid invite code")
	case errors.Is(err, services.ErrLastOwnedWorkspace):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrAlreadyWorkspaceMember):
		apierrors.Conflict(c, "Already a member of this workspace")
	case errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceMemberNotFound):
		apierrors.NotFound(c, "Member not found")
	default:
		internalError(c, h.log, "workspace request failed", err)
	}
}
