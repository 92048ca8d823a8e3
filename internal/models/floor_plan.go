// Package models provides data model definitions for the floorsync core.
package models

import (
	"encoding/json"
	"time"
)

// FloorPlan is the aggregate root: a plan together with its full room set.
// LastModifiedAt is the sole concurrency-control token for the aggregate;
// there is no per-room versioning. It advances if and only if the server
// accepts a room-set mutation for this plan.
type FloorPlan struct {
	ID             UUID                   `json:"id"`
	CompanyID      UUID                   `json:"company_id,omitempty"`
	Name           string                 `json:"name"`
	Width          float64                `json:"width"`
	Height         float64                `json:"height"`
	MapData        map[string]interface{} `json:"map_data,omitempty"`
	LastModifiedAt time.Time              `json:"last_modified_at"`
	Rooms          []Room                 `json:"rooms"`
}

// Room returns the room with the given id, or nil.
func (fp *FloorPlan) Room(id UUID) *Room {
	for i := range fp.Rooms {
		if fp.Rooms[i].ID == id {
			return &fp.Rooms[i]
		}
	}
	return nil
}

// UpdatePayload is the batched mutation request sent to the update and
// commit-changes endpoints. ClientLastModifiedAt is the caller's last-known
// version token; the server rejects the whole batch when it is stale.
type UpdatePayload struct {
	FloorPlanID          UUID         `json:"floor_plan_id"`
	ClientLastModifiedAt time.Time    `json:"client_last_modified_at"`
	RoomUpdates          []RoomUpdate `json:"room_updates"`
}

// RoomUpdate is a sparse per-room mutation. All fields except RoomID are
// optional; absent fields leave the server value untouched. Delete marks the
// room for removal instead of an upsert.
type RoomUpdate struct {
	RoomID   UUID     `json:"room_id"`
	Name     *string  `json:"name,omitempty"`
	Capacity *string  `json:"capacity,omitempty"`
	Features []string `json:"features,omitempty"`
	XCoord   *float64 `json:"x_coord,omitempty"`
	YCoord   *float64 `json:"y_coord,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Delete   bool     `json:"delete,omitempty"`
}

// GeometryUpdate builds a RoomUpdate carrying only geometry.
func GeometryUpdate(roomID UUID, g Geometry) RoomUpdate {
	x, y, w, h := g.X, g.Y, g.Width, g.Height
	return RoomUpdate{
		RoomID: roomID,
		XCoord: &x,
		YCoord: &y,
		Width:  &w,
		Height: &h,
	}
}

// Encode serializes the update for durable queue storage.
func (u RoomUpdate) Encode() (json.RawMessage, error) {
	return json.Marshal(u)
}

// DecodeRoomUpdate deserializes a queued update.
func DecodeRoomUpdate(raw json.RawMessage) (RoomUpdate, error) {
	var u RoomUpdate
	err := json.Unmarshal(raw, &u)
	return u, err
}
