package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/features/backups"
	"github.com/Hossam1104/pos-admin-tool/internal/features/cleanup"
	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/restores"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	system_healthcheck "github.com/Hossam1104/pos-admin-tool/internal/features/system/healthcheck"
	system_info "github.com/Hossam1104/pos-admin-tool/internal/features/system/info"
	"github.com/Hossam1104/pos-admin-tool/internal/storage"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

// SetupDependencies prepares everything the controllers and workflows need:
// the history database schema, the settings file and the cross-feature wiring.
func SetupDependencies() error {
	if err := storage.Migrate(&operations.OperationResult{}); err != nil {
		return fmt.Errorf("failed to migrate history database: %w", err)
	}

	settings.SetupDependencies()

	if _, err := settings.GetSettingsManager().Load(); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	return nil
}

// NewRouter assembles the HTTP API. All feature routes live under /api/v1.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")

	system_healthcheck.GetHealthcheckController().RegisterRoutes(api)
	system_info.GetInfoController().RegisterRoutes(api)
	operations.GetOperationController().RegisterRoutes(api)
	services.GetServiceController().RegisterRoutes(api)
	databases.GetDatabaseController().RegisterRoutes(api)
	settings.GetSettingsController().RegisterRoutes(api)
	backups.GetBackupController().RegisterRoutes(api)
	restores.GetRestoreController().RegisterRoutes(api)
	cleanup.GetCleanupController().RegisterRoutes(api)

	return router
}

// Run starts the background services and the HTTP server, and blocks until
// ctx is canceled. The server is then drained with a short grace period.
func Run(ctx context.Context) error {
	log := logger.GetLogger()
	env := config.GetEnv()

	go services.GetServiceMonitor().Run(ctx)
	go operations.GetOperationHistoryBackgroundService().Run(ctx)

	httpServer := &http.Server{
		Addr:    ":" + env.Port,
		Handler: NewRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "port", env.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}
