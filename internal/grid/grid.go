// Package grid converts between absolute pixel geometry and fixed-column
// grid cell addresses. The editor and the read-only booking view share this
// mapping so a layout renders identically in both.
package grid

import (
	"math"

	"github.com/planwise/floorsync/internal/models"
)

const (
	// Columns is the fixed number of grid columns on every plan canvas.
	Columns = 12

	// RowHeight is the pixel height of one grid row.
	RowHeight = 10.0
)

// Cell is a room's footprint in grid units.
type Cell struct {
	Col     int
	Row     int
	ColSpan int
	RowSpan int
}

// ColWidth derives the pixel width of one column from the plan width.
func ColWidth(planWidth float64) float64 {
	return planWidth / Columns
}

// ToCell snaps a pixel geometry to the nearest cell address. A computed span
// of zero is clamped to 1: a room may never shrink to an invisible footprint.
func ToCell(g models.Geometry, colWidth, rowHeight float64) Cell {
	c := Cell{
		Col:     int(math.Round(g.X / colWidth)),
		Row:     int(math.Round(g.Y / rowHeight)),
		ColSpan: int(math.Round(g.Width / colWidth)),
		RowSpan: int(math.Round(g.Height / rowHeight)),
	}
	if c.ColSpan < 1 {
		c.ColSpan = 1
	}
	if c.RowSpan < 1 {
		c.RowSpan = 1
	}
	return c
}

// ToPixels is the inverse linear scale, rounded to whole pixels. No clamping:
// collision and bounds display belong to the visual layer.
func ToPixels(c Cell, colWidth, rowHeight float64) models.Geometry {
	return models.Geometry{
		X:      math.Round(float64(c.Col) * colWidth),
		Y:      math.Round(float64(c.Row) * rowHeight),
		Width:  math.Round(float64(c.ColSpan) * colWidth),
		Height: math.Round(float64(c.RowSpan) * rowHeight),
	}
}
