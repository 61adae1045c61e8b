package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/vetlink-api/internal/models"
)

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func notificationRows(list ...models.Notification) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "recipient_user_id", "kind", "appointment_id", "appointment_date", "created_at"})
	for _, n := range list {
		rows.AddRow(n.ID, n.RecipientUserID, n.Kind, n.AppointmentID, n.AppointmentDate, n.CreatedAt)
	}
	return rows
}

func TestNotificationRepositoryListByRecipient(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, recipient_user_id, kind, appointment_id, appointment_date, created_at FROM notifications WHERE recipient_user_id = $1 ORDER BY created_at DESC LIMIT 10")).
		WithArgs("owner-1").
		WillReturnRows(notificationRows(
			models.Notification{ID: "n-2", RecipientUserID: "owner-1", Kind: models.NotificationAppointmentRescheduled, AppointmentID: "appt-1", AppointmentDate: now, CreatedAt: now},
			models.Notification{ID: "n-1", RecipientUserID: "owner-1", Kind: models.NotificationAppointmentBooked, AppointmentID: "appt-1", AppointmentDate: now, CreatedAt: now.Add(-time.Hour)},
		))

	list, err := repo.ListByRecipient(context.Background(), "owner-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "n-2", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByRecipientClampsLimit(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	for _, limit := range []int{0, -5, 500} {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, recipient_user_id, kind, appointment_id, appointment_date, created_at FROM notifications WHERE recipient_user_id = $1 ORDER BY created_at DESC LIMIT 50")).
			WithArgs("owner-1").
			WillReturnRows(notificationRows())

		_, err := repo.ListByRecipient(context.Background(), "owner-1", limit)
		require.NoError(t, err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
