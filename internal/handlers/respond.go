package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/logger"
	"github.com/tasknexus/server/internal/middleware"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
)

func init() {
	// Validation errors name fields by their JSON keys.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// invalidBody answers a failed bind. Validation failures carry a details map
// of field to the rule it broke; malformed JSON gets the bare message.
func invalidBody(c *gin.Context, message string, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		apierrors.BadRequest(c, message)
		return
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	apierrors.BadRequestWithDetails(c, message, details)
}

// internalError logs err with the request id and answers with a generic 500.
// Storage error text never reaches the client.
func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	logger.WithRequestID(c.Request.Context(), log).Error(msg, zap.Error(err))
	apierrors.InternalError(c, "")
}

// respondMembershipError covers the lookups shared by project and task routes.
// Missing rows and missing membership both read as not found.
func respondMembershipError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrWorkspaceNotFound), errors.Is(err, services.ErrNotWorkspaceMember):
		apierrors.NotFound(c, "Workspace not found")
	default:
		return false
	}
	return true
}

func currentUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}
