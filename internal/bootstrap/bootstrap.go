// Package bootstrap assembles the service graph shared by the server and the
// operator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/application/docsync"
	identityapp "github.com/erp/paysync/internal/application/identity"
	"github.com/erp/paysync/internal/application/lookup"
	partnerapp "github.com/erp/paysync/internal/application/partner"
	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/infrastructure/auth"
	"github.com/erp/paysync/internal/infrastructure/cache"
	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/erp/paysync/internal/infrastructure/erp"
	"github.com/erp/paysync/internal/infrastructure/logger"
	"github.com/erp/paysync/internal/infrastructure/persistence"
	"github.com/erp/paysync/internal/infrastructure/remote"
	"github.com/erp/paysync/internal/infrastructure/scheduler"
	"github.com/erp/paysync/internal/infrastructure/telemetry"
)

const syncLockKey = "sync:cycle"

// App holds every long-lived component
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Database *persistence.Database
	Redis    *redis.Client
	Session  *erp.Session
	Gateway  *erp.Gateway
	Remote   *remote.Client
	Cache    document.Cache

	Auth           *identityapp.AuthService
	Counterparties *partnerapp.CounterpartyService
	Lookup         *lookup.Service
	Orchestrator   *docsync.Orchestrator
	Locker         scheduler.Locker

	tracer *telemetry.TracerProvider
	meter  *telemetry.MeterProvider
}

// TelemetryConfig converts the loaded settings into the telemetry package config
func TelemetryConfig(cfg *config.Config, enabled bool) telemetry.Config {
	return telemetry.Config{
		Enabled:           enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}
}

// Version is overridden at build time with -ldflags
var Version = "dev"

// NewLogger builds the service logger. When OTLP log export is enabled the
// returned provider must be shut down after the logger is synced.
func NewLogger(ctx context.Context, cfg *config.Config) (*zap.Logger, *telemetry.LoggerProvider, error) {
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	base, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if !cfg.Telemetry.LogsEnabled {
		return base, nil, nil
	}

	lp, err := telemetry.NewLoggerProvider(ctx, TelemetryConfig(cfg, true), base)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logCfg, lp.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, lp, nil
}

// Build opens every dependency and wires the application services
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Shutdown(context.WithoutCancel(ctx))
		}
	}()

	if app.tracer, err = telemetry.NewTracerProvider(ctx, TelemetryConfig(cfg, cfg.Telemetry.Enabled), log); err != nil {
		return nil, err
	}
	if app.meter, err = telemetry.NewMeterProvider(ctx, TelemetryConfig(cfg, cfg.Telemetry.MetricsEnabled), cfg.Telemetry.ExportInterval, log); err != nil {
		return nil, err
	}
	metrics := telemetry.NewNoopSyncMetrics()
	if app.meter.IsEnabled() {
		if metrics, err = telemetry.NewSyncMetrics(app.meter.Meter(cfg.Telemetry.ServiceName)); err != nil {
			return nil, err
		}
	}

	gl := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	if app.Database, err = persistence.NewDatabase(&cfg.Database, gl); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = app.Database.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        app.Database.Driver(),
		}, log)
		if err = plugin.Register(app.Database.DB); err != nil {
			return nil, err
		}
	}

	db := app.Database.DB
	store := persistence.NewGormDocumentCache(db)
	app.Cache = store
	if cfg.RedisEnabled() {
		if app.Redis, err = cache.NewRedisClient(ctx, cfg.Redis); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		hot := cache.NewRedisDocumentCache(app.Redis, cfg.Redis.KeyPrefix)
		app.Cache = cache.NewTieredDocumentCache(hot, store,
			cache.WithTTL(cfg.Redis.DocumentTTL),
			cache.WithLogger(log),
		)
		app.Locker = cache.NewRedisLock(app.Redis, cfg.Redis.KeyPrefix+syncLockKey, cfg.Sync.LockTTL)
		log.Info("Redis hot cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	app.Session = erp.NewSession(cfg.ERP.DSN(), erp.WithSessionLogger(log))
	app.Gateway = erp.NewGateway(app.Session, document.NormalizeOptions{
		Currency:     cfg.ERP.Currency,
		OriginatorID: cfg.ERP.OriginatorID,
		BuyerID:      cfg.ERP.BuyerID,
	}, cfg.ERP.Location(), log)

	app.Remote = remote.NewClient(cfg.Remote, remote.WithLogger(log))

	counterpartyRepo := persistence.NewGormCounterpartyRepository(db)
	app.Auth = identityapp.NewAuthService(
		persistence.NewGormCredentialRepository(db),
		persistence.NewGormIssuedTokenRepository(db),
		auth.NewJWTService(cfg.Auth),
		log,
	)
	app.Counterparties = partnerapp.NewCounterpartyService(counterpartyRepo, log)
	app.Lookup = lookup.NewService(app.Cache, app.Gateway, cfg.Sync.LookupConcurrency, log)
	app.Orchestrator = docsync.NewOrchestrator(
		counterpartyRepo,
		app.Cache,
		persistence.NewGormWatermarkStore(db),
		app.Gateway,
		app.Remote,
		docsync.WithMetrics(metrics),
		docsync.WithLogger(log),
	)

	if _, err = app.Auth.EnsureDefaultUser(ctx, cfg.Auth.DefaultUser, cfg.Auth.DefaultPassword); err != nil {
		return nil, fmt.Errorf("failed to seed default user: %w", err)
	}

	return app, nil
}

// NewScheduler creates the background sync loop for this app
func (a *App) NewScheduler() (*scheduler.DocumentSyncScheduler, error) {
	cfg := scheduler.DefaultSyncSchedulerConfig()
	cfg.Interval = a.Config.Sync.Interval
	cfg.HistorySize = a.Config.Sync.HistorySize

	var opts []scheduler.SyncSchedulerOption
	if a.Locker != nil {
		opts = append(opts, scheduler.WithLocker(a.Locker))
	}
	return scheduler.NewDocumentSyncScheduler(cfg, a.Orchestrator, a.Logger, opts...)
}

// Shutdown releases everything Build opened, in reverse order
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Gateway != nil {
		errs = append(errs, a.Gateway.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Database != nil {
		errs = append(errs, a.Database.Close())
	}
	if a.meter != nil {
		errs = append(errs, a.meter.Shutdown(ctx))
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
