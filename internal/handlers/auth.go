package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/dto"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/metrics"
	"github.com/tasknexus/server/internal/middleware"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. m may be nil.
func NewAuthHandler(authService *services.AuthService, m *metrics.Metrics, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     m,
		log:         log,
	}
}

// Register creates a user with a default workspace and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username string `json:"username" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,max=72"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Invalid or missing fields", err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.UsersRegistered.Inc()
	}
	c.JSON(http.StatusCreated, dto.ToAuthResponse(result))
}

// Login authenticates a user by email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Missing credentials", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuthResponse(result))
}

// Me returns the identity carried by the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, exists := middleware.GetClaims(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToClaimsUserDTO(claims)})
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameRequired), errors.Is(err, services.ErrPasswordTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid email or password")
	default:
		internalError(c, h.log, "auth request failed", err)
	}
}
