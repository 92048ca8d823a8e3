package db

import (
	"path/filepath"
	"testing"
)

// openTestDB opens a migrated database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return database
}

// TestOpenCreatesDataDir tests that Open creates the data directory.
func TestOpenCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	database, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		t.Errorf("Expected opened database to be reachable: %v", err)
	}
}

// TestMigrationsApplyOnce tests that Up is idempotent.
func TestMigrationsApplyOnce(t *testing.T) {
	database := openTestDB(t)

	migrator := NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}

	version, err := migrator.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != len(migrationSteps) {
		t.Errorf("Expected schema version %d, got %d", len(migrationSteps), version)
	}

	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	if len(applied) != len(migrationSteps) {
		t.Errorf("Expected %d applied migrations, got %d", len(migrationSteps), len(applied))
	}
}
