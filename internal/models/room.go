// Package models provides data model definitions for the floorsync core.
package models

import "time"

// RoomStatus is the live availability of a room, derived server-side from
// bookings. It is display-only and must never be written back to the layout.
type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "Available"
	RoomStatusBooked    RoomStatus = "Booked"
)

// Geometry is a room's absolute pixel footprint on the plan canvas.
type Geometry struct {
	X      float64 `json:"x_coord"`
	Y      float64 `json:"y_coord"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Room is a bookable space placed on a floor plan.
// CurrentStatus and CurrentBookingDetails are ephemeral annotations carried
// only by the live-status read; they are not part of the persisted layout.
type Room struct {
	ID          UUID     `json:"id"`
	FloorPlanID UUID     `json:"floor_plan_id,omitempty"`
	Name        string   `json:"name"`
	Capacity    string   `json:"capacity"`
	Features    []string `json:"features,omitempty"`
	XCoord      float64  `json:"x_coord"`
	YCoord      float64  `json:"y_coord"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`

	CurrentStatus         RoomStatus      `json:"current_status,omitempty"`
	CurrentBookingDetails *BookingDetails `json:"current_booking_details,omitempty"`
}

// Geometry returns the room's pixel footprint.
func (r *Room) Geometry() Geometry {
	return Geometry{X: r.XCoord, Y: r.YCoord, Width: r.Width, Height: r.Height}
}

// SetGeometry replaces the room's pixel footprint.
func (r *Room) SetGeometry(g Geometry) {
	r.XCoord, r.YCoord, r.Width, r.Height = g.X, g.Y, g.Width, g.Height
}

// BookingDetails is the display payload attached to a booked room by the
// live-status read.
type BookingDetails struct {
	EndTime   time.Time `json:"end_time"`
	UserEmail string    `json:"user_email"`
}
