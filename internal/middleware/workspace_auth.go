package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/constants"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/logger"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireWorkspaceAccess checks if the user is a member of the workspace named by :id
func RequireWorkspaceAccess(wsRepo repository.WorkspaceRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wsID, ok := ParseIDParam(c, "id", "Invalid workspace ID")
		if !ok {
			return
		}

		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		ws, err := wsRepo.FindByID(c.Request.Context(), wsID)
		if err != nil {
			abortLookup(c, log, err, "Workspace not found")
			return
		}

		member, err := wsRepo.FindMember(c.Request.Context(), wsID, userID)
		if err != nil {
			// Non-members get the same 404 as an unknown id
			abortLookup(c, log, err, "Workspace not found")
			return
		}

		c.Set(constants.ContextKeyWorkspace, ws)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireWorkspaceOwner checks if the user owns the workspace. It must run after RequireWorkspaceAccess.
func RequireWorkspaceOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetMember(c)
		if !ok {
			apierrors.Forbidden(c, "Workspace access required")
			c.Abort()
			return
		}

		if member.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Only workspace owners can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetWorkspace returns the workspace loaded by RequireWorkspaceAccess
func GetWorkspace(c *gin.Context) (*models.Workspace, bool) {
	value, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*models.Workspace)
	return ws, ok
}

// GetMember returns the caller's membership loaded by RequireWorkspaceAccess
func GetMember(c *gin.Context) (*models.WorkspaceMember, bool) {
	value, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return nil, false
	}
	member, ok := value.(*models.WorkspaceMember)
	return member, ok
}

// ParseIDParam parses a numeric path parameter, answering 400 when it is malformed.
func ParseIDParam(c *gin.Context, name, message string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, message)
		c.Abort()
		return 0, false
	}
	return id, true
}

func requireUserID(c *gin.Context) (uint64, bool) {
	userID, exists := GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		c.Abort()
		return 0, false
	}
	return userID, true
}

// abortLookup answers 404 for missing rows and 500 for anything else.
func abortLookup(c *gin.Context, log *zap.Logger, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.NotFound(c, notFound)
	} else {
		logger.WithRequestID(c.Request.Context(), log).Error("access check failed", zap.Error(err))
		apierrors.InternalError(c, "")
	}
	c.Abort()
}
