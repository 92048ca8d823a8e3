// Package models provides data model definitions for the floorsync core.
package models

import "encoding/json"

// QueueEntry is a room mutation captured while disconnected, persisted so a
// process restart does not lose queued edits. Entries carry no version token;
// they are replayed against whatever token is current at flush time.
type QueueEntry struct {
	ID          UUID            `db:"id" json:"id"`
	FloorPlanID UUID            `db:"floor_plan_id" json:"floor_plan_id"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Position    int64           `db:"position" json:"position"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`
}

// TableName returns the table name for QueueEntry.
func (QueueEntry) TableName() string {
	return "offline_queue"
}

// Update decodes the stored room mutation.
func (e *QueueEntry) Update() (RoomUpdate, error) {
	return DecodeRoomUpdate(e.Payload)
}
