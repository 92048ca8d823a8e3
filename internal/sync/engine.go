// Package sync coordinates the draft layout, the offline queue and the
// backend into one save/flush/refresh engine for a single floor plan.
package sync

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/api"
	"github.com/planwise/floorsync/internal/db"
	"github.com/planwise/floorsync/internal/draft"
	"github.com/planwise/floorsync/internal/errors"
	"github.com/planwise/floorsync/internal/models"
	"github.com/planwise/floorsync/internal/netstate"
	"github.com/planwise/floorsync/internal/offline"
)

// Outcome is the terminal result of a save or flush attempt. Every attempt
// resolves to exactly one outcome.
type Outcome string

const (
	// OutcomeSaved means the server accepted the batch and issued a new
	// version token.
	OutcomeSaved Outcome = "saved"

	// OutcomeConflict means the server rejected the batch because the local
	// version token was stale. The draft has been replaced with the current
	// server state.
	OutcomeConflict Outcome = "conflict"

	// OutcomeError means the attempt failed for a non-conflict reason. The
	// draft has been replaced with the current server state when reachable.
	OutcomeError Outcome = "error"

	// OutcomeQueued means the device was offline and the batch was appended
	// to the durable queue instead of being sent.
	OutcomeQueued Outcome = "queued"
)

// SaveResult describes how a save or flush attempt ended. Plan carries the
// aggregate the draft was reconciled to, when one was obtained. Err carries
// the cause for conflict and error outcomes.
type SaveResult struct {
	Outcome Outcome
	Plan    *models.FloorPlan
	Err     error
}

// Engine drives synchronization for one floor plan at a time. Saves and
// flushes are mutually exclusive; a second attempt while one is in flight is
// rejected rather than queued, so there is never more than one pending
// version-token comparison.
type Engine struct {
	client *api.Client
	store  *draft.Store
	queue  *offline.Queue
	repo   *db.Repository
	net    netstate.Monitor
	logger *zap.Logger

	inFlight atomic.Bool
	lastSync atomic.Pointer[time.Time]
}

// NewEngine creates an engine over an already-opened draft store and queue.
// The queue must be scoped to the same plan as the store.
func NewEngine(client *api.Client, store *draft.Store, queue *offline.Queue, repo *db.Repository, net netstate.Monitor, logger *zap.Logger) *Engine {
	return &Engine{
		client: client,
		store:  store,
		queue:  queue,
		repo:   repo,
		net:    net,
		logger: logger,
	}
}

// Saving reports whether a save or flush is currently in flight.
func (e *Engine) Saving() bool {
	return e.inFlight.Load()
}

// LastSync returns the time of the last successful server round trip, or nil.
func (e *Engine) LastSync() *time.Time {
	return e.lastSync.Load()
}

// OpenPlan loads the given plan into the draft store, preferring the server
// copy and falling back to the local snapshot when the server is unreachable.
// The snapshot path leaves the baseline at whatever token was cached, which
// is still the last server-confirmed one.
func (e *Engine) OpenPlan(ctx context.Context, planID models.UUID) (*models.FloorPlan, error) {
	plan, err := e.client.GetFloorPlan(ctx, planID)
	if err == nil {
		e.store.ForceLoad(plan)
		e.snapshot(plan)
		return plan, nil
	}
	if !errors.Is(err, errors.ErrTransport) {
		return nil, err
	}

	cached, cacheErr := e.repo.LoadPlanSnapshot(planID)
	if cacheErr == sql.ErrNoRows {
		return nil, err
	}
	if cacheErr != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "load cached plan", cacheErr)
	}

	e.logger.Warn("Server unreachable, opening cached plan",
		zap.String("floor_plan_id", planID.String()),
		zap.Time("cached_token", cached.LastModifiedAt),
	)
	e.store.ForceLoad(cached)
	return cached, nil
}

// Save sends one batched mutation guarded by the draft's baseline token.
//
// The returned error is non-nil only for precondition failures: another save
// in flight, no known baseline, or a queue storage failure. Once a request is
// attempted, the attempt always yields a SaveResult; conflict and error
// outcomes carry their cause in the result and leave the draft reconciled to
// the server.
func (e *Engine) Save(ctx context.Context, updates []models.RoomUpdate) (*SaveResult, error) {
	if len(updates) == 0 {
		return &SaveResult{Outcome: OutcomeSaved}, nil
	}

	if !e.net.Online() {
		if err := e.queue.Enqueue(updates); err != nil {
			return nil, err
		}
		e.logger.Info("Offline, save deferred to queue",
			zap.String("floor_plan_id", e.store.PlanID().String()),
			zap.Int("updates", len(updates)),
		)
		return &SaveResult{Outcome: OutcomeQueued}, nil
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, errors.New(errors.ErrSaveInFlight, "a save is already in flight")
	}
	defer e.inFlight.Store(false)

	if !e.store.HasBaseline() {
		return nil, errors.New(errors.ErrNoBaseline, "no server-confirmed version token")
	}

	payload := &models.UpdatePayload{
		FloorPlanID:          e.store.PlanID(),
		ClientLastModifiedAt: e.store.Baseline(),
		RoomUpdates:          updates,
	}
	updated, err := e.client.UpdateFloorPlan(ctx, payload)
	return e.settle(ctx, updated, err), nil
}

// FlushQueue drains the offline queue and commits it as a single batch.
//
// The queue is cleared before the request is attempted and stays cleared no
// matter how the attempt ends; a rejected batch is resolved by refetching,
// never by replaying. Flushing without a baseline token is unsafe and returns
// an error with the queue intact.
func (e *Engine) FlushQueue(ctx context.Context) (*SaveResult, error) {
	empty, err := e.queue.IsEmpty()
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}

	if !e.store.HasBaseline() {
		return nil, errors.New(errors.ErrNoBaseline, "cannot flush without a version token")
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, errors.New(errors.ErrSaveInFlight, "a save is already in flight")
	}
	defer e.inFlight.Store(false)

	updates, err := e.queue.Drain()
	if err != nil {
		return nil, err
	}
	e.logger.Info("Flushing offline queue",
		zap.String("floor_plan_id", e.queue.PlanID().String()),
		zap.Int("updates", len(updates)),
	)

	payload := &models.UpdatePayload{
		FloorPlanID:          e.store.PlanID(),
		ClientLastModifiedAt: e.store.Baseline(),
		RoomUpdates:          updates,
	}
	updated, err := e.client.CommitChanges(ctx, payload)
	return e.settle(ctx, updated, err), nil
}

// settle reconciles the draft after a save or flush attempt. On success the
// server's response is the new draft; on conflict or error the draft is
// discarded and replaced by a fresh fetch. Local edits are never merged into
// a rejected batch.
func (e *Engine) settle(ctx context.Context, updated *models.FloorPlan, err error) *SaveResult {
	if err == nil {
		e.store.ForceLoad(updated)
		e.snapshot(updated)
		now := time.Now().UTC()
		e.lastSync.Store(&now)
		return &SaveResult{Outcome: OutcomeSaved, Plan: updated}
	}

	outcome := OutcomeError
	if errors.Is(err, errors.ErrVersionConflict) {
		outcome = OutcomeConflict
		e.logger.Warn("Save rejected, discarding local edits",
			zap.String("floor_plan_id", e.store.PlanID().String()),
		)
	} else {
		e.logger.Error("Save failed",
			zap.String("floor_plan_id", e.store.PlanID().String()),
			zap.Error(err),
		)
	}

	fresh, fetchErr := e.client.GetFloorPlan(ctx, e.store.PlanID())
	if fetchErr != nil {
		// Draft is stale but the server is unreachable; the next refresh or
		// flush will reconcile.
		e.logger.Error("Post-save refetch failed", zap.Error(fetchErr))
		return &SaveResult{Outcome: outcome, Err: err}
	}
	e.store.ForceLoad(fresh)
	e.snapshot(fresh)
	return &SaveResult{Outcome: outcome, Plan: fresh, Err: err}
}

// Refresh re-fetches the plan and loads it into the draft. Without force the
// load is skipped when unsaved edits exist; the returned bool reports whether
// the draft was replaced.
func (e *Engine) Refresh(ctx context.Context, force bool) (*models.FloorPlan, bool, error) {
	plan, err := e.client.GetFloorPlan(ctx, e.store.PlanID())
	if err != nil {
		return nil, false, err
	}

	applied := true
	if force {
		e.store.ForceLoad(plan)
	} else {
		applied = e.store.Load(plan)
	}
	if applied {
		e.snapshot(plan)
	}
	return plan, applied, nil
}

// RefreshStatus fetches the plan with live booking annotations. The result is
// display-only and never touches the draft.
func (e *Engine) RefreshStatus(ctx context.Context) (*models.FloorPlan, error) {
	return e.client.GetFloorPlanStatus(ctx, e.store.PlanID())
}

// RestoreFromBackup asks the server to roll the plan back to its latest
// backup, then force-loads the restored aggregate. Unsaved edits are
// discarded; they were made against a layout that no longer exists.
func (e *Engine) RestoreFromBackup(ctx context.Context) (*models.FloorPlan, error) {
	restored, err := e.client.RestoreFloorPlan(ctx, e.store.PlanID())
	if err != nil {
		return nil, err
	}
	e.store.ForceLoad(restored)
	e.snapshot(restored)
	return restored, nil
}

// Versions lists the plan's historical snapshot markers.
func (e *Engine) Versions(ctx context.Context) ([]models.VersionRecord, error) {
	return e.client.ListVersions(ctx, e.store.PlanID())
}

// snapshot caches the plan locally so it can be opened offline. Best effort;
// a cache write failure never fails the sync operation that produced it.
func (e *Engine) snapshot(plan *models.FloorPlan) {
	if err := e.repo.SavePlanSnapshot(plan); err != nil {
		e.logger.Warn("Failed to cache plan snapshot",
			zap.String("floor_plan_id", plan.ID.String()),
			zap.Error(err),
		)
	}
}

// Run watches connectivity and flushes the offline queue on every transition
// back online. It blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-e.net.Changes():
			if !ok {
				return
			}
			if !online {
				continue
			}
			result, err := e.FlushQueue(ctx)
			if err != nil {
				e.logger.Error("Auto-flush failed", zap.Error(err))
				continue
			}
			if result != nil {
				e.logger.Info("Auto-flush finished", zap.String("outcome", string(result.Outcome)))
			}
		}
	}
}
