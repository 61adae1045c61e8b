package models

import "time"

// NotificationKind enumerates durable notification record types.
type NotificationKind string

const (
	NotificationAppointmentBooked      NotificationKind = "APPOINTMENT_BOOKED"
	NotificationAppointmentRescheduled NotificationKind = "APPOINTMENT_RESCHEDULED"
	NotificationAppointmentCancelled   NotificationKind = "APPOINTMENT_CANCELLED"
)

// Notification is the durable record written inside a booking transaction.
// Downstream delivery (email, push) happens after commit and never touches
// this row again.
type Notification struct {
	ID              string           `db:"id" json:"id"`
	RecipientUserID string           `db:"recipient_user_id" json:"recipient_user_id"`
	Kind            NotificationKind `db:"kind" json:"kind"`
	AppointmentID   string           `db:"appointment_id" json:"appointment_id"`
	AppointmentDate time.Time        `db:"appointment_date" json:"appointment_date"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
