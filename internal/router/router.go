package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/config"
	"github.com/tasknexus/server/internal/handlers"
	"github.com/tasknexus/server/internal/metrics"
	"github.com/tasknexus/server/internal/middleware"
	"github.com/tasknexus/server/internal/repository"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators the HTTP layer is built from.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Tokens    *services.TokenService
	Suggester services.TaskSuggester
	// Clock drives the analytics windows. Nil means time.Now.
	Clock func() time.Time
}

// New wires repositories, services and handlers into a gin engine.
func New(deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(deps.DB)
	wsRepo := repository.NewWorkspaceRepository(deps.DB)
	projectRepo := repository.NewProjectRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)
	analyticsRepo := repository.NewAnalyticsRepository(deps.DB)

	authHandler := handlers.NewAuthHandler(services.NewAuthService(userRepo, deps.Tokens), deps.Metrics, log)
	wsHandler := handlers.NewWorkspaceHandler(services.NewWorkspaceService(wsRepo), log)
	projectHandler := handlers.NewProjectHandler(services.NewProjectService(projectRepo, wsRepo), log)
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(taskRepo, projectRepo, wsRepo, deps.Suggester), deps.Metrics, log)
	analyticsHandler := handlers.NewAnalyticsHandler(services.NewAnalyticsService(analyticsRepo, deps.Clock), log)
	healthHandler := handlers.NewHealthHandler(deps.DB, log)

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestID(), middleware.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", healthHandler.Health)

	requireAuth := middleware.RequireAuth(deps.Tokens, log)
	workspaceAccess := middleware.RequireWorkspaceAccess(wsRepo, log)
	projectAccess := middleware.RequireProjectAccess(projectRepo, wsRepo, log)
	taskAccess := middleware.RequireTaskAccess(taskRepo, projectRepo, wsRepo, log)
	ownerOnly := middleware.RequireWorkspaceOwner()

	api := r.Group("/api")
	{
		var rps float64
		var burst int
		if deps.Config != nil {
			rps, burst = deps.Config.RateLimit.AuthRPS, deps.Config.RateLimit.AuthBurst
		}
		authLimit := middleware.RateLimit(rps, burst)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authLimit, authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		workspaces := api.Group("/workspaces", requireAuth)
		{
			workspaces.GET("", wsHandler.ListWorkspaces)
			workspaces.POST("", wsHandler.CreateWorkspace)
			workspaces.POST("/join", wsHandler.JoinWorkspace)
			workspaces.GET("/:id", workspaceAccess, wsHandler.GetWorkspace)
			workspaces.PUT("/:id", workspaceAccess, ownerOnly, wsHandler.UpdateWorkspace)
			workspaces.DELETE("/:id", workspaceAccess, ownerOnly, wsHandler.DeleteWorkspace)
			workspaces.POST("/:id/regenerate-code", workspaceAccess, ownerOnly, wsHandler.RegenerateInviteCode)
			workspaces.DELETE("/:id/members/:userId", workspaceAccess, ownerOnly, wsHandler.RemoveMember)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/workspace/:workspaceId", projectHandler.ListWorkspaceProjects)
			projects.GET("/:id", projectAccess, projectHandler.GetProject)
			projects.DELETE("/:id", projectAccess, projectHandler.DeleteProject)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PUT("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
		}

		analytics := api.Group("/analytics", requireAuth)
		{
			analytics.GET("/dashboard", analyticsHandler.Dashboard)
			analytics.GET("/weekly", analyticsHandler.Weekly)
		}
	}

	return r
}
