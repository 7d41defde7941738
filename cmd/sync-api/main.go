package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/menuflow/platform/pkg/api"
	"github.com/menuflow/platform/pkg/common/config"
	"github.com/menuflow/platform/pkg/common/database"
	"github.com/menuflow/platform/pkg/common/httpclient"
	"github.com/menuflow/platform/pkg/common/logger"
	"github.com/menuflow/platform/pkg/menu"
	"github.com/menuflow/platform/pkg/observability/metrics"
	"github.com/menuflow/platform/pkg/platforms"
	"github.com/menuflow/platform/pkg/syncer"
)

func main() {
	logger.Init()
	cfg := config.Load()

	if len(cfg.AdminAPIKeys) == 0 {
		logger.Log.Fatal("ADMIN_API_KEYS must be configured")
	}

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	statusRepo := syncer.NewStatusRepository(db)
	errorRepo := syncer.NewErrorRepository(db)
	operationRepo := syncer.NewOperationRepository(db)
	for _, migrate := range []func() error{statusRepo.AutoMigrate, errorRepo.AutoMigrate, operationRepo.AutoMigrate} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate sync tables")
		}
	}

	platformCfg, err := platforms.LoadConfig(cfg.PlatformsConfigPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load platforms config")
	}
	registry, err := platforms.Build(platformCfg, httpclient.New(30*time.Second))
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to build platform registry")
	}

	menuClient := menu.NewClient(cfg.MenuServiceBaseURL, cfg.MenuServiceAPIKey, httpclient.New(cfg.MenuServiceTimeout)).
		WithCache(database.GetRedis(), cfg.MenuCacheTTL)

	syncService := syncer.NewService(menuClient, statusRepo, operationRepo, cfg.SyncRetryDelay)
	errorService := syncer.NewErrorService(errorRepo)
	validator := api.NewAPIKeyValidator(cfg.AdminAPIKeys)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	handler := api.NewHandler(syncService, errorService, registry, validator)
	handler.Register(router.PathPrefix("/api/v1").Subrouter())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":      cfg.ServerHost,
			"port":      cfg.ServerPort,
			"platforms": registry.Names(),
		}).Info("Sync API started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Sync API...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("failed to close redis")
	}

	logger.Log.Info("Sync API stopped")
}
