// Package draft holds the in-memory editable copy of a floor plan's rooms,
// independent of the last-confirmed server copy.
package draft

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/planwise/floorsync/internal/models"
)

// Store is the draft room set for one floor plan at a time. Every mutating
// operation is synchronous and total; validation is the caller's concern.
// Only the Store's own operations may touch rooms and the dirty flag.
type Store struct {
	mu       sync.RWMutex
	planID   models.UUID
	rooms    []models.Room
	baseline time.Time
	dirty    bool
}

// NewStore creates an empty draft store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the draft with a deep copy of the plan's rooms and records
// the plan's version token as the new baseline. Rejected while dirty: a clean
// background re-fetch must never clobber unsaved edits. Returns whether the
// load was applied.
func (s *Store) Load(plan *models.FloorPlan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		return false
	}
	s.replace(plan)
	return true
}

// ForceLoad replaces the draft unconditionally, discarding unsaved edits.
// Used after a conflict or error outcome, when the local state is stale by
// definition.
func (s *Store) ForceLoad(plan *models.FloorPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(plan)
}

// replace installs a deep copy of the plan's rooms. Caller holds the lock.
func (s *Store) replace(plan *models.FloorPlan) {
	rooms := make([]models.Room, 0, len(plan.Rooms))
	_ = copier.CopyWithOption(&rooms, &plan.Rooms, copier.Option{DeepCopy: true, IgnoreEmpty: true})

	// Live-status annotations are display-only and never belong to a draft.
	for i := range rooms {
		rooms[i].CurrentStatus = ""
		rooms[i].CurrentBookingDetails = nil
	}

	s.planID = plan.ID
	s.rooms = rooms
	s.baseline = plan.LastModifiedAt
	s.dirty = false
}

// ApplyGeometry updates one room's pixel footprint and marks the draft dirty.
// Returns whether the room was found.
func (s *Store) ApplyGeometry(roomID models.UUID, g models.Geometry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			s.rooms[i].SetGeometry(g)
			s.dirty = true
			return true
		}
	}
	return false
}

// UpsertRoom adds or fully replaces a room and marks the draft dirty.
func (s *Store) UpsertRoom(room models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored models.Room
	_ = copier.CopyWithOption(&stored, &room, copier.Option{DeepCopy: true, IgnoreEmpty: true})

	for i := range s.rooms {
		if s.rooms[i].ID == stored.ID {
			s.rooms[i] = stored
			s.dirty = true
			return
		}
	}
	s.rooms = append(s.rooms, stored)
	s.dirty = true
}

// RemoveRoom deletes a room from the draft. Marks the draft dirty and returns
// true when the room existed.
func (s *Store) RemoveRoom(roomID models.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// MarkClean clears the dirty flag without changing rooms. Called after a
// confirmed save.
func (s *Store) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// SetBaseline records the server-confirmed version token for the draft.
func (s *Store) SetBaseline(token time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = token
}

// Rooms returns a deep copy of the draft room set in insertion order.
func (s *Store) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]models.Room, 0, len(s.rooms))
	_ = copier.CopyWithOption(&rooms, &s.rooms, copier.Option{DeepCopy: true, IgnoreEmpty: true})
	return rooms
}

// Dirty reports whether the draft holds unsaved edits.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Baseline returns the last server-confirmed version token.
func (s *Store) Baseline() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline
}

// HasBaseline reports whether a trustworthy version token is known. Flushing
// queued edits without one is unsafe and is skipped.
func (s *Store) HasBaseline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.baseline.IsZero()
}

// PlanID returns the id of the plan the draft is scoped to.
func (s *Store) PlanID() models.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planID
}
