package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/paysync/internal/domain/identity"
	"github.com/erp/paysync/internal/domain/partner"
	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/erp/paysync/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the local store connection
type Database struct {
	DB     *gorm.DB
	driver string
}

// NewDatabase opens the local store selected by cfg.Driver
func NewDatabase(cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector, cfg, gl)
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.Open(sqliteDSN(cfg.SQLiteFile)), nil
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func sqliteDSN(file string) string {
	if file == "" {
		file = "appdata.db"
	}
	if strings.Contains(file, "?") {
		return file
	}
	return file + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Open connects through an explicit dialector and applies pool settings
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	if gl == nil {
		gl = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// sqlite allows a single writer; in-memory databases are per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, driver: dialector.Name()}, nil
}

// Driver returns the dialect name in use
func (d *Database) Driver() string {
	return d.driver
}

// AutoMigrate creates or updates every table the service owns
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.DocumentModel{},
		&models.SentLogModel{},
		&partner.Counterparty{},
		&identity.Credential{},
		&identity.IssuedToken{},
	)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
