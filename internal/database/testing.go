package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the variable holding the integration test database DSN
const TestDSNEnv = "MLB_PREDICTOR_TEST_DATABASE_DSN"

// SetupTestDB connects to the integration database, skipping the test when
// none is configured
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("Integration test - set %s to run", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDBFromDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to prepare test schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
