package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tasknexus/server/internal/config"
	"github.com/tasknexus/server/internal/database"
	"github.com/tasknexus/server/internal/lifecycle"
	"github.com/tasknexus/server/internal/logger"
	"github.com/tasknexus/server/internal/metrics"
	"github.com/tasknexus/server/internal/router"
	"github.com/tasknexus/server/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	appName = "task-nexus"
	Version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logLevel)
		},
	}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Task Nexus API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(serve)
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(logLevel)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// bootstrap loads configuration and opens the logger and database.
func bootstrap(logLevel string) (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger error: %w", err)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

func runMigrate(logLevel string) error {
	_, log, db, err := bootstrap(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer database.Close(db)

	return database.Migrate(db, log)
}

func runServe(logLevel string) error {
	cfg, log, db, err := bootstrap(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	manager := lifecycle.New(cfg.HTTP.ShutdownTimeout, log)
	manager.Register("database", func(ctx context.Context) error {
		return database.Close(db)
	})

	if cfg.Migrations.Enabled {
		if err := database.Migrate(db, log); err != nil {
			_ = manager.Shutdown(context.Background())
			return err
		}
	}

	tokens, err := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return err
	}

	// A typed nil *AIService would hide the "not configured" path.
	var suggester services.TaskSuggester
	if cfg.AI.OpenAIAPIKey != "" {
		suggester = services.NewAIService(cfg.AI.OpenAIAPIKey, cfg.AI.Model, cfg.AI.Timeout)
	} else {
		log.Warn("OPENAI_API_KEY not set, task generation disabled")
	}

	gin.SetMode(cfg.GinMode)
	engine := router.New(router.Deps{
		DB:        db,
		Config:    cfg,
		Logger:    log,
		Metrics:   metrics.New(),
		Tokens:    tokens,
		Suggester: suggester,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	manager.Register("http_server", server.Shutdown)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("address", cfg.Address()), zap.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("server crashed", zap.Error(err))
			_ = manager.Shutdown(context.Background())
			return err
		}
	}

	if err := manager.Shutdown(context.Background()); err != nil {
		log.Error("graceful shutdown error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
