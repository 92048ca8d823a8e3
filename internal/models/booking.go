// Package models provides data model definitions for the floorsync core.
package models

import "time"

// Booking is a reservation of a room. Bookings are created by the booking
// flow, never mutated here; the core only reads booking-derived room status
// and reacts to change notifications about it.
type Booking struct {
	ID           UUID      `json:"id"`
	RoomID       UUID      `json:"room_id"`
	UserID       UUID      `json:"user_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Participants int       `json:"participants"`
}
