package models

import (
	"fmt"
	"strings"
	"time"
)

// SlotStatus is the persisted availability state of a slot. The "ALL" query
// wildcard is not a status; list endpoints accept it as an empty filter
// instead.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotDisabled  SlotStatus = "DISABLED"
	SlotPending   SlotStatus = "PENDING"
	SlotBlocked   SlotStatus = "BLOCKED"
)

// ParseSlotStatus validates a persisted slot status value.
func ParseSlotStatus(raw string) (SlotStatus, error) {
	switch SlotStatus(strings.ToUpper(raw)) {
	case SlotAvailable:
		return SlotAvailable, nil
	case SlotBooked:
		return SlotBooked, nil
	case SlotDisabled:
		return SlotDisabled, nil
	case SlotPending:
		return SlotPending, nil
	case SlotBlocked:
		return SlotBlocked, nil
	default:
		return "", fmt.Errorf("unknown slot status %q", raw)
	}
}

// Slot is a single bookable time unit for one provider on one calendar day.
// StartTime and EndTime are wall-clock HH:mm strings interpreted in Timezone;
// Date is truncated to midnight in that timezone and used for day grouping.
// A slot generated up to midnight stores EndTime "00:00" (midnight of the
// following day).
type Slot struct {
	ID         string     `db:"id" json:"id"`
	ProviderID string     `db:"provider_id" json:"provider_id"`
	Date       time.Time  `db:"date" json:"date"`
	StartTime  string     `db:"start_time" json:"start_time"`
	EndTime    string     `db:"end_time" json:"end_time"`
	Timezone   string     `db:"timezone" json:"timezone"`
	Status     SlotStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// CellKey identifies the reconciliation unit for availability replacement:
// one provider day in one timezone.
type CellKey struct {
	Day      time.Time
	Timezone string
}

// SlotFilter describes query params for listing slots. An empty Status means
// no status filtering (the "ALL" wildcard at the API boundary).
type SlotFilter struct {
	ProviderID string
	Date       *time.Time
	Status     SlotStatus
	Page       int
	PageSize   int
}
