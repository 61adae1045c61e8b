package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/vetlink-api/internal/models"
)

func appointmentRows(appts ...models.Appointment) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "slot_id", "provider_id", "pet_owner_id", "pet_id", "appointment_date", "meeting_link", "fee", "status", "is_deleted", "created_at", "updated_at"})
	for _, a := range appts {
		rows.AddRow(a.ID, a.SlotID, a.ProviderID, a.PetOwnerID, a.PetID, a.AppointmentDate, a.MeetingLink, a.Fee, a.Status, a.IsDeleted, a.CreatedAt, a.UpdatedAt)
	}
	return rows
}

func TestAppointmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	want := models.Appointment{
		ID: "appt-1", SlotID: "slot-1", ProviderID: "prov-1", PetOwnerID: "owner-1", PetID: "pet-1",
		AppointmentDate: time.Now(), MeetingLink: "https://meet.vetlink.io/r/abc", Fee: 45,
		Status: models.AppointmentScheduled, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slot_id, provider_id, pet_owner_id, pet_id, appointment_date, meeting_link, fee, status, is_deleted, created_at, updated_at FROM appointments WHERE id = $1 AND is_deleted = FALSE")).
		WithArgs("appt-1").
		WillReturnRows(appointmentRows(want))

	appt, err := repo.FindByID(context.Background(), "appt-1")
	require.NoError(t, err)
	require.Equal(t, "slot-1", appt.SlotID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByIDDeleted(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id = ").
		WithArgs("appt-1").
		WillReturnRows(appointmentRows())

	_, err := repo.FindByID(context.Background(), "appt-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateTx(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments (id, slot_id, provider_id, pet_owner_id, pet_id, appointment_date, meeting_link, fee, status, is_deleted, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	appt := models.Appointment{SlotID: "slot-1", ProviderID: "prov-1", PetOwnerID: "owner-1", PetID: "pet-1", AppointmentDate: time.Now(), Fee: 45, Status: models.AppointmentScheduled}
	require.NoError(t, repo.CreateTx(context.Background(), tx, &appt))
	require.NotEmpty(t, appt.ID, "a missing id is minted")
	require.False(t, appt.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateRescheduleTx(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET slot_id = $1, appointment_date = $2, meeting_link = $3, updated_at = $4 WHERE id = $5 AND is_deleted = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	appt := models.Appointment{ID: "appt-1", SlotID: "slot-2", AppointmentDate: time.Now(), MeetingLink: "https://meet.vetlink.io/r/new"}
	require.NoError(t, repo.UpdateRescheduleTx(context.Background(), tx, &appt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateRescheduleTxMissingRow(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments SET slot_id = ").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)
	appt := models.Appointment{ID: "appt-1", SlotID: "slot-2", AppointmentDate: time.Now()}
	require.Error(t, repo.UpdateRescheduleTx(context.Background(), tx, &appt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositorySoftDeleteTx(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET is_deleted = TRUE, status = $1, updated_at = $2 WHERE id = $3 AND is_deleted = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	deleted, err := repo.SoftDeleteTx(context.Background(), tx, "appt-1")
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositorySumFeesInRange(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(fee), 0) FROM appointments WHERE provider_id = $1 AND is_deleted = FALSE AND appointment_date >= $2 AND appointment_date <= $3")).
		WithArgs("prov-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(135.5))

	total, err := repo.SumFeesInRange(context.Background(), "prov-1", from, to)
	require.NoError(t, err)
	require.InDelta(t, 135.5, total, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}
