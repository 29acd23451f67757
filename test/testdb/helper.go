package testdb

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/sentiment-analyst/internal/adapters/database"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
)

// TestDB wraps a migrated test database whose tables are emptied on cleanup
type TestDB struct {
	DB *database.DB
}

// Setup connects to TEST_DATABASE_URL and applies migrations.
// The test is skipped when the variable is unset.
func Setup(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger.InitNop()

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(conn.DB, MigrationsPath()); err != nil {
		conn.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	tdb := &TestDB{DB: database.Wrap(conn)}
	tdb.Truncate(t)

	t.Cleanup(func() {
		tdb.Teardown(t)
	})

	return tdb
}

// Teardown empties tables and closes connection
func (tdb *TestDB) Teardown(t *testing.T) {
	t.Helper()

	tdb.Truncate(t)
	if err := tdb.DB.Close(); err != nil {
		t.Logf("warning: failed to close database: %v", err)
	}
}

// Truncate removes all rows written by tests
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	if _, err := tdb.DB.DB().Exec(`TRUNCATE news_snapshots, market_ohlcv`); err != nil {
		t.Logf("warning: failed to truncate tables: %v", err)
	}
}

// MigrationsPath returns absolute path of the repo migrations dir
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
