package persistence

import (
	"testing"

	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// newTestDatabase opens a migrated in-memory sqlite database
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{Driver: "sqlite"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
