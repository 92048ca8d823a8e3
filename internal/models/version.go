// Package models provides data model definitions for the floorsync core.
package models

import "time"

// VersionRecord marks a historical snapshot of a floor plan, produced
// server-side on every accepted mutation. The core lists and restores these;
// it never computes diffs itself.
type VersionRecord struct {
	VersionID   UUID      `json:"version_id"`
	CommitterID UUID      `json:"committer_id"`
	Timestamp   time.Time `json:"timestamp"`
}
