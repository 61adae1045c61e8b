package models

import "time"

// Provider is a veterinarian offering telehealth consultations. Only the
// fields the scheduling engine reads are modelled here; profile management
// lives elsewhere.
type Provider struct {
	ID              string    `db:"id" json:"id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Timezone        string    `db:"timezone" json:"timezone"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
