package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/vetlink-api/internal/models"
)

const appointmentColumns = "id, slot_id, provider_id, pet_owner_id, pet_id, appointment_date, meeting_link, fee, status, is_deleted, created_at, updated_at"

// AppointmentRepository provides persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// FindByID loads a non-deleted appointment by id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1 AND is_deleted = FALSE", appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FindByIDTx loads a non-deleted appointment inside an open transaction,
// locking the row for the duration of the transaction.
func (r *AppointmentRepository) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1 AND is_deleted = FALSE FOR UPDATE", appointmentColumns)
	var appt models.Appointment
	if err := tx.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// CreateTx inserts a new appointment within an open transaction.
func (r *AppointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	_, err := tx.ExecContext(ctx,
		"INSERT INTO appointments (id, slot_id, provider_id, pet_owner_id, pet_id, appointment_date, meeting_link, fee, status, is_deleted, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		appt.ID, appt.SlotID, appt.ProviderID, appt.PetOwnerID, appt.PetID, appt.AppointmentDate, appt.MeetingLink, appt.Fee, appt.Status, appt.IsDeleted, appt.CreatedAt, appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// UpdateRescheduleTx rebinds the appointment to a new slot, date and meeting
// link within an open transaction.
func (r *AppointmentRepository) UpdateRescheduleTx(ctx context.Context, tx *sqlx.Tx, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE appointments SET slot_id = $1, appointment_date = $2, meeting_link = $3, updated_at = $4 WHERE id = $5 AND is_deleted = FALSE",
		appt.SlotID, appt.AppointmentDate, appt.MeetingLink, appt.UpdatedAt, appt.ID)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment rows: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("appointment %s not updated", appt.ID)
	}
	return nil
}

// SoftDeleteTx cancels an appointment without removing the row.
func (r *AppointmentRepository) SoftDeleteTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE appointments SET is_deleted = TRUE, status = $1, updated_at = $2 WHERE id = $3 AND is_deleted = FALSE",
		models.AppointmentCancelled, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("soft delete appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete appointment rows: %w", err)
	}
	return n == 1, nil
}

// SumFeesInRange totals recorded fees of non-deleted appointments for the
// provider whose date falls within [from, to].
func (r *AppointmentRepository) SumFeesInRange(ctx context.Context, providerID string, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(fee), 0) FROM appointments WHERE provider_id = $1 AND is_deleted = FALSE AND appointment_date >= $2 AND appointment_date <= $3",
		providerID, from, to)
	if err != nil {
		return 0, fmt.Errorf("sum appointment fees: %w", err)
	}
	return total, nil
}
