// Package offline provides the durable queue of room mutations captured
// while disconnected.
package offline

import (
	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/db"
	"github.com/planwise/floorsync/internal/errors"
	"github.com/planwise/floorsync/internal/models"
)

// Queue is the append-only mutation log for one floor plan. Entries
// accumulate only while offline and are flushed as a single batch; they carry
// no version token. Only the sync engine drives Enqueue and Drain.
type Queue struct {
	repo   *db.Repository
	planID models.UUID
	logger *zap.Logger
}

// NewQueue creates a Queue scoped to one floor plan.
func NewQueue(repo *db.Repository, planID models.UUID, logger *zap.Logger) *Queue {
	return &Queue{
		repo:   repo,
		planID: planID,
		logger: logger,
	}
}

// PlanID returns the plan this queue belongs to.
func (q *Queue) PlanID() models.UUID {
	return q.planID
}

// Enqueue appends mutations verbatim, preserving caller order.
func (q *Queue) Enqueue(updates []models.RoomUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	if err := q.repo.AppendQueueEntries(q.planID, updates); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to enqueue offline mutations", err)
	}

	q.logger.Info("Queued offline mutations",
		zap.String("floor_plan_id", q.planID.String()),
		zap.Int("count", len(updates)),
	)
	return nil
}

// Drain returns the queued mutations in insertion order and atomically
// empties the queue. Calling Drain on an empty queue returns nothing.
func (q *Queue) Drain() ([]models.RoomUpdate, error) {
	updates, err := q.repo.DrainQueue(q.planID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to drain offline queue", err)
	}

	if len(updates) > 0 {
		q.logger.Info("Drained offline queue",
			zap.String("floor_plan_id", q.planID.String()),
			zap.Int("count", len(updates)),
		)
	}
	return updates, nil
}

// IsEmpty reports whether any mutations are queued.
func (q *Queue) IsEmpty() (bool, error) {
	size, err := q.Size()
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

// Size returns the number of queued mutations.
func (q *Queue) Size() (int, error) {
	size, err := q.repo.QueueSize(q.planID)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "failed to read offline queue size", err)
	}
	return size, nil
}
