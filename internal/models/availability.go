package models

import "time"

// CellResult summarises the outcome of reconciling one (day, timezone) cell
// during an availability replacement. Cells commit independently, so a
// failed cell does not undo previously committed ones.
type CellResult struct {
	Day             time.Time `json:"day"`
	Timezone        string    `json:"timezone"`
	PreservedBooked int       `json:"preserved_booked"`
	Deleted         int       `json:"deleted_available_or_disabled"`
	Created         int       `json:"created_new_slots"`
	Error           string    `json:"error,omitempty"`
}

// ReplacePeriodsResult aggregates per-cell outcomes plus overall totals.
type ReplacePeriodsResult struct {
	Cells           []CellResult `json:"cells"`
	PreservedBooked int          `json:"preserved_booked"`
	Deleted         int          `json:"deleted_available_or_disabled"`
	Created         int          `json:"created_new_slots"`
}
