package models

import "time"

// AppointmentStatus tracks the consultation lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment binds a pet owner's consultation to exactly one slot at a time.
// Cancellation soft-deletes the record and releases the bound slot; the row
// is never hard-deleted.
type Appointment struct {
	ID              string            `db:"id" json:"id"`
	SlotID          string            `db:"slot_id" json:"slot_id"`
	ProviderID      string            `db:"provider_id" json:"provider_id"`
	PetOwnerID      string            `db:"pet_owner_id" json:"pet_owner_id"`
	PetID           string            `db:"pet_id" json:"pet_id"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	MeetingLink     string            `db:"meeting_link" json:"meeting_link"`
	Fee             float64           `db:"fee" json:"fee"`
	Status          AppointmentStatus `db:"status" json:"status"`
	IsDeleted       bool              `db:"is_deleted" json:"is_deleted"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// RescheduleResult is returned to the caller after a committed reschedule.
type RescheduleResult struct {
	Appointment        Appointment `json:"appointment"`
	NewAppointmentDate time.Time   `json:"new_appointment_date"`
	NewSlot            Slot        `json:"new_slot"`
}
