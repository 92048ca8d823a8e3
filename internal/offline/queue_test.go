package offline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/planwise/floorsync/internal/db"
	"github.com/planwise/floorsync/internal/logging"
	"github.com/planwise/floorsync/internal/models"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo := db.NewRepository(database.DB)
	t.Cleanup(func() { repo.Close() })

	return NewQueue(repo, "plan-1", logging.NewNop())
}

// TestEnqueueThenDrainReturnsInOrder tests the basic queue contract.
func TestEnqueueThenDrainReturnsInOrder(t *testing.T) {
	q := newTestQueue(t)

	first := models.GeometryUpdate("room-a", models.Geometry{X: 10, Y: 10, Width: 100, Height: 50})
	second := models.GeometryUpdate("room-a", models.Geometry{X: 30, Y: 20, Width: 100, Height: 50})

	if err := q.Enqueue([]models.RoomUpdate{first, second}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	empty, err := q.IsEmpty()
	if err != nil {
		t.Fatalf("IsEmpty failed: %v", err)
	}
	if empty {
		t.Error("Expected queue to be non-empty after enqueue")
	}

	drained, err := q.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if diff := cmp.Diff([]models.RoomUpdate{first, second}, drained); diff != "" {
		t.Errorf("Drained mutations mismatch (-want +got):\n%s", diff)
	}
}

// TestDrainTwiceReturnsItemsOnce tests drain idempotence: items come out
// exactly once, empty thereafter.
func TestDrainTwiceReturnsItemsOnce(t *testing.T) {
	q := newTestQueue(t)

	q.Enqueue([]models.RoomUpdate{models.GeometryUpdate("room-a", models.Geometry{X: 1, Y: 2, Width: 3, Height: 4})})

	first, err := q.Drain()
	if err != nil {
		t.Fatalf("First drain failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 item from first drain, got %d", len(first))
	}

	second, err := q.Drain()
	if err != nil {
		t.Fatalf("Second drain failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected empty second drain, got %d items", len(second))
	}

	empty, _ := q.IsEmpty()
	if !empty {
		t.Error("Expected queue to be empty after drain")
	}
}

// TestEnqueueNothingIsNoop tests that an empty batch leaves no rows behind.
func TestEnqueueNothingIsNoop(t *testing.T) {
	q := newTestQueue(t)

	if err := q.Enqueue(nil); err != nil {
		t.Fatalf("Enqueue(nil) failed: %v", err)
	}

	size, err := q.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 0 {
		t.Errorf("Expected size 0, got %d", size)
	}
}
