package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func TestNewDatabase_SQLiteFile(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLiteFile: filepath.Join(t.TempDir(), "paysync.db"),
	}

	db, err := NewDatabase(cfg, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.AutoMigrate())
	assert.NoError(t, db.Ping(context.Background()))

	for _, table := range []string{"documents", "sent_log", "counterparties", "users", "issued_tokens"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "appdata.db?_busy_timeout=5000&_journal_mode=WAL", sqliteDSN(""))
	assert.Equal(t, "/data/c.db?_busy_timeout=5000&_journal_mode=WAL", sqliteDSN("/data/c.db"))
	assert.Equal(t, "c.db?mode=ro", sqliteDSN("c.db?mode=ro"))
}

func TestOpen_PostgresPingAndClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectPing()
	mock.ExpectClose()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	db, err := Open(dialector, &config.DatabaseConfig{MaxOpenConns: 5, MaxIdleConns: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", db.Driver())

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
