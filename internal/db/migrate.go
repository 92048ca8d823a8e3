// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Migration represents an applied database schema migration.
type Migration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// migrationStep is a pending schema change compiled into the binary. The
// client database lives on end-user machines, so migrations ship in code
// rather than as loose .sql files.
type migrationStep struct {
	Version     int
	Description string
	SQL         string
}

var migrationSteps = []migrationStep{
	{
		Version:     1,
		Description: "offline_queue",
		SQL: `
		CREATE TABLE IF NOT EXISTS offline_queue (
			id TEXT PRIMARY KEY,
			floor_plan_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_offline_queue_plan
			ON offline_queue(floor_plan_id, position);`,
	},
	{
		Version:     2,
		Description: "plan_cache",
		SQL: `
		CREATE TABLE IF NOT EXISTS plan_cache (
			floor_plan_id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			last_modified_at TEXT NOT NULL,
			cached_at INTEGER NOT NULL
		);`,
	},
}

// Migrator handles database schema migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations() ([]Migration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var mig Migration
		var appliedAt int64
		if err := rows.Scan(&mig.Version, &appliedAt, &mig.Description, &mig.Checksum); err != nil {
			return nil, err
		}
		mig.AppliedAt = time.Unix(appliedAt, 0)
		migrations = append(migrations, mig)
	}
	return migrations, rows.Err()
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedVersions := make(map[int]bool)
	for _, mig := range applied {
		appliedVersions[mig.Version] = true
	}

	steps := make([]migrationStep, len(migrationSteps))
	copy(steps, migrationSteps)
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Version < steps[j].Version
	})

	for _, step := range steps {
		if appliedVersions[step.Version] {
			continue // Already applied
		}
		if err := m.applyMigration(step); err != nil {
			return fmt.Errorf("failed to apply migration V%d: %w", step.Version, err)
		}
	}

	return nil
}

// applyMigration applies a single migration inside a transaction.
func (m *Migrator) applyMigration(step migrationStep) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(step.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	hash := sha256.Sum256([]byte(step.SQL))
	checksum := hex.EncodeToString(hash[:])
	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, step.Version, time.Now().Unix(), step.Description, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
