package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/constants"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/logger"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

// RequireAuth checks the bearer token and stores the caller's identity in the context.
func RequireAuth(tokens TokenParser, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			apierrors.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.WithRequestID(c.Request.Context(), log).Debug("invalid bearer token", zap.Error(err))
			apierrors.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyClaims, claims)
		c.Set(constants.ContextKeyUserID, claims.ID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetClaims retrieves the decoded token claims from context
func GetClaims(c *gin.Context) (*services.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*services.Claims)
	return claims, ok
}
