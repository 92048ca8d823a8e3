// Package db provides CRUD repository operations for floorsync durable state.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/planwise/floorsync/internal/models"
	"github.com/planwise/floorsync/internal/uuid"
)

// Repository provides access to the offline queue and the plan snapshot
// cache. Only the sync engine (through the offline queue) mutates queue rows.
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a Repository over an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// Offline queue
// =====================================================

// AppendQueueEntries appends room mutations to the tail of a plan's offline
// queue, preserving their order, in one transaction.
func (r *Repository) AppendQueueEntries(planID models.UUID, updates []models.RoomUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int64
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(position), 0) FROM offline_queue WHERE floor_plan_id = ?",
		planID.String(),
	).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to read queue tail: %w", err)
	}

	now := time.Now().Unix()
	for _, update := range updates {
		payload, err := update.Encode()
		if err != nil {
			return fmt.Errorf("failed to encode room update: %w", err)
		}
		position++
		_, err = tx.Exec(
			`INSERT INTO offline_queue (id, floor_plan_id, payload, position, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.New(), planID.String(), string(payload), position, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert queue entry: %w", err)
		}
	}

	return tx.Commit()
}

// DrainQueue returns a plan's queued mutations in insertion order and
// atomically empties the queue.
func (r *Repository) DrainQueue(planID models.UUID) ([]models.RoomUpdate, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		"SELECT payload FROM offline_queue WHERE floor_plan_id = ? ORDER BY position",
		planID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	var updates []models.RoomUpdate
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		update, err := models.DecodeRoomUpdate(json.RawMessage(payload))
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode queue entry: %w", err)
		}
		updates = append(updates, update)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.Exec("DELETE FROM offline_queue WHERE floor_plan_id = ?", planID.String()); err != nil {
		return nil, fmt.Errorf("failed to clear queue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updates, nil
}

// QueueSize returns the number of queued mutations for a plan.
func (r *Repository) QueueSize(planID models.UUID) (int, error) {
	stmt, err := r.PrepareStmt("SELECT COUNT(*) FROM offline_queue WHERE floor_plan_id = ?")
	if err != nil {
		return 0, err
	}

	var count int
	if err := stmt.QueryRow(planID.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return count, nil
}

// ListQueueEntries returns the raw queue rows for a plan in insertion order,
// without removing them. Used for inspection and tests.
func (r *Repository) ListQueueEntries(planID models.UUID) ([]models.QueueEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, floor_plan_id, payload, position, created_at
		 FROM offline_queue WHERE floor_plan_id = ? ORDER BY position`,
		planID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		var payload string
		if err := rows.Scan(&e.ID, &e.FloorPlanID, &payload, &e.Position, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =====================================================
// Plan snapshot cache
// =====================================================

// SavePlanSnapshot upserts the last successfully fetched aggregate so the
// plan stays viewable while disconnected.
func (r *Repository) SavePlanSnapshot(plan *models.FloorPlan) error {
	snapshot, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan snapshot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO plan_cache (floor_plan_id, snapshot, last_modified_at, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(floor_plan_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			last_modified_at = excluded.last_modified_at,
			cached_at = excluded.cached_at`,
		plan.ID.String(), string(snapshot), plan.LastModifiedAt.UTC().Format(time.RFC3339Nano), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan snapshot: %w", err)
	}
	return nil
}

// LoadPlanSnapshot returns the cached aggregate for a plan.
// Returns sql.ErrNoRows when no snapshot has been cached.
func (r *Repository) LoadPlanSnapshot(planID models.UUID) (*models.FloorPlan, error) {
	var snapshot string
	err := r.db.QueryRow(
		"SELECT snapshot FROM plan_cache WHERE floor_plan_id = ?",
		planID.String(),
	).Scan(&snapshot)
	if err != nil {
		return nil, err
	}

	var plan models.FloorPlan
	if err := json.Unmarshal([]byte(snapshot), &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan snapshot: %w", err)
	}
	return &plan, nil
}
