package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/josema3054/predicciones-deportivas/internal/config"
)

// TestConfigEnv names the variable pointing at a config file for integration tests
const TestConfigEnv = "PREDICCIONES_TEST_CONFIG"

// SetupTestDB connects to the database named by PREDICCIONES_TEST_CONFIG and
// migrates it. The test is skipped when the variable is unset or -short is given.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestConfigEnv)
	if path == "" || testing.Short() {
		t.Skip("integration test - set " + TestConfigEnv + " to run")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { TeardownTestDB(t, db) })
	return db
}

// TeardownTestDB truncates the domain tables and closes the pool
func TeardownTestDB(t *testing.T, db *DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.pool.Exec(ctx, "TRUNCATE consensus_records, result_records, simulation_runs"); err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}
