package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/bootstrap"
	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/erp/paysync/internal/interfaces/http/handler"
	"github.com/erp/paysync/internal/interfaces/http/router"
)

const tokenPurgeInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, logProvider, err := bootstrap.NewLogger(rootCtx, cfg)
	if err != nil {
		panic(err.Error())
	}
	defer func() {
		_ = log.Sync()
		if logProvider != nil {
			_ = logProvider.Shutdown(context.Background())
		}
	}()

	log.Info("Starting paysync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", bootstrap.Version),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := bootstrap.Build(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}

	syncScheduler, err := app.NewScheduler()
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if cfg.Sync.Enabled {
		if err := syncScheduler.Start(rootCtx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
	} else {
		log.Info("Document sync scheduler is disabled")
	}

	go purgeTokens(rootCtx, app, log)

	engine := router.NewEngine(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		MaxUploadSize:  cfg.HTTP.MaxUploadSize,
	}, router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, bootstrap.Version, app.Database, log),
		Token:        handler.NewTokenHandler(app.Auth),
		Counterparty: handler.NewCounterpartyHandler(app.Counterparties),
		Document:     handler.NewDocumentHandler(app.Auth, app.Lookup),
		Sync:         handler.NewSyncHandler(syncScheduler),
		Auth:         app.Auth,
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Sync scheduler did not stop in time", zap.Error(err))
	}
	if err := app.Shutdown(ctx); err != nil {
		log.Warn("Error releasing resources", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// purgeTokens deletes expired API tokens until ctx is cancelled
func purgeTokens(ctx context.Context, app *bootstrap.App, log *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		if n, err := app.Auth.PurgeExpiredTokens(ctx); err != nil {
			log.Warn("Failed to purge expired tokens", zap.Error(err))
		} else if n > 0 {
			log.Info("Expired tokens purged", zap.Int64("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
