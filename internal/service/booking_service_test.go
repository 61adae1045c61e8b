package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
)

type bookingSlotStore struct {
	slots map[string]*models.Slot

	claimErr   error
	releaseErr error
}

func (m *bookingSlotStore) FindByID(_ context.Context, id string) (*models.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *bookingSlotStore) ClaimTx(_ context.Context, _ *sqlx.Tx, id string) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	s, ok := m.slots[id]
	if !ok || s.Status != models.SlotAvailable {
		return false, nil
	}
	s.Status = models.SlotBooked
	return true, nil
}

func (m *bookingSlotStore) ReleaseTx(_ context.Context, _ *sqlx.Tx, id string) (bool, error) {
	if m.releaseErr != nil {
		return false, m.releaseErr
	}
	s, ok := m.slots[id]
	if !ok || s.Status != models.SlotBooked {
		return false, nil
	}
	s.Status = models.SlotAvailable
	return true, nil
}

type bookingApptStore struct {
	appts map[string]*models.Appointment

	creates     int
	updates     int
	softDeletes int
	updateErr   error
	goneInTx    bool // simulates a concurrent cancel between pre-check and lock
}

func (m *bookingApptStore) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.IsDeleted {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *bookingApptStore) FindByIDTx(ctx context.Context, _ *sqlx.Tx, id string) (*models.Appointment, error) {
	if m.goneInTx {
		return nil, sql.ErrNoRows
	}
	return m.FindByID(ctx, id)
}

func (m *bookingApptStore) CreateTx(_ context.Context, _ *sqlx.Tx, appt *models.Appointment) error {
	m.creates++
	copied := *appt
	m.appts[appt.ID] = &copied
	return nil
}

func (m *bookingApptStore) UpdateRescheduleTx(_ context.Context, _ *sqlx.Tx, appt *models.Appointment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	copied := *appt
	m.appts[appt.ID] = &copied
	return nil
}

func (m *bookingApptStore) SoftDeleteTx(_ context.Context, _ *sqlx.Tx, id string) (bool, error) {
	a, ok := m.appts[id]
	if !ok || a.IsDeleted {
		return false, nil
	}
	a.IsDeleted = true
	m.softDeletes++
	return true, nil
}

type notificationLog struct {
	created []models.Notification
	err     error
}

func (m *notificationLog) CreateTx(_ context.Context, _ *sqlx.Tx, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *n)
	return nil
}

type providerDirectory struct {
	providers map[string]*models.Provider
}

func (m *providerDirectory) FindByID(_ context.Context, id string) (*models.Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

type stubLinkIssuer struct {
	link string
	err  error
}

func (m *stubLinkIssuer) Issue(_ context.Context, _, _, _, _ string) (string, error) {
	return m.link, m.err
}

type bookingFixture struct {
	svc    *BookingService
	slots  *bookingSlotStore
	appts  *bookingApptStore
	notifs *notificationLog
	tx     *stubTxRunner
	issuer *stubLinkIssuer
}

// fixedNow is safely in the future relative to the fixture slot days.
var fixedNow = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		slots: &bookingSlotStore{slots: map[string]*models.Slot{
			"old": {ID: "old", ProviderID: "prov-1", Date: day("2025-07-11"), StartTime: "09:00", EndTime: "09:30", Timezone: "UTC", Status: models.SlotBooked},
			"new": {ID: "new", ProviderID: "prov-1", Date: day("2025-07-12"), StartTime: "14:00", EndTime: "14:30", Timezone: "UTC", Status: models.SlotAvailable},
		}},
		appts: &bookingApptStore{appts: map[string]*models.Appointment{
			"appt-1": {ID: "appt-1", SlotID: "old", ProviderID: "prov-1", PetOwnerID: "owner-1", PetID: "pet-1", Status: models.AppointmentScheduled},
		}},
		notifs: &notificationLog{},
		tx:     &stubTxRunner{},
		issuer: &stubLinkIssuer{link: "https://meet.vetlink.io/r/abc"},
	}
	providers := &providerDirectory{providers: map[string]*models.Provider{
		"prov-1": {ID: "prov-1", Timezone: "UTC", ConsultationFee: 45},
	}}
	f.svc = NewBookingService(f.tx, f.slots, f.appts, f.notifs, providers, f.issuer, nil, nil, nil, nil, nil).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func TestRescheduleMovesAppointmentAtomically(t *testing.T) {
	f := newBookingFixture()

	result, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	require.NoError(t, err)

	assert.Equal(t, "new", result.Appointment.SlotID)
	assert.Equal(t, models.SlotBooked, result.NewSlot.Status)
	assert.Equal(t, "https://meet.vetlink.io/r/abc", result.Appointment.MeetingLink)

	wantDate := time.Date(2025, 7, 12, 14, 0, 0, 0, time.UTC)
	assert.True(t, result.NewAppointmentDate.Equal(wantDate))

	assert.Equal(t, models.SlotBooked, f.slots.slots["new"].Status)
	assert.Equal(t, models.SlotAvailable, f.slots.slots["old"].Status, "old slot released")

	require.Len(t, f.notifs.created, 1)
	assert.Equal(t, models.NotificationAppointmentRescheduled, f.notifs.created[0].Kind)
	assert.Equal(t, "owner-1", f.notifs.created[0].RecipientUserID)
}

func TestRescheduleUnknownAppointment(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Reschedule(context.Background(), "nope", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrAppointmentNotFound.Code, typed.Code)
	assert.Zero(t, f.tx.calls)
}

func TestRescheduleSlotAlreadyTaken(t *testing.T) {
	f := newBookingFixture()
	f.slots.slots["new"].Status = models.SlotBooked

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrSlotNotAvailable.Code, typed.Code)
	assert.Zero(t, f.appts.updates)
}

func TestRescheduleWrongProvider(t *testing.T) {
	f := newBookingFixture()
	f.slots.slots["new"].ProviderID = "prov-2"

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrSlotNotAvailable.Code, typed.Code)
}

func TestReschedulePastDate(t *testing.T) {
	f := newBookingFixture()
	f.slots.slots["new"].Date = day("2025-07-09")

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrPastDateSlot.Code, typed.Code)
	assert.Zero(t, f.tx.calls, "no transaction for a slot already in the past")
}

func TestReschedulePastTimeToday(t *testing.T) {
	f := newBookingFixture()
	// Same day as the reference clock, start before noon.
	f.slots.slots["new"].Date = day("2025-07-10")
	f.slots.slots["new"].StartTime = "11:30"
	f.slots.slots["new"].EndTime = "12:00"

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrPastTimeSlot.Code, typed.Code)
}

func TestRescheduleLaterTodayAllowed(t *testing.T) {
	f := newBookingFixture()
	f.slots.slots["new"].Date = day("2025-07-10")
	f.slots.slots["new"].StartTime = "18:00"
	f.slots.slots["new"].EndTime = "18:30"

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	require.NoError(t, err)
}

func TestReschedulePastCheckUsesSlotCalendarDay(t *testing.T) {
	f := newBookingFixture()
	// Date columns scan as UTC midnight; the slot's zone is west of UTC.
	// The reference clock is 2025-07-10 12:00 UTC, i.e. 08:00 in New York,
	// so the slot is same-day with a start already elapsed. Converting the
	// date as an instant would land it on July 9 and misreport a past date.
	f.slots.slots["new"].Date = day("2025-07-10")
	f.slots.slots["new"].Timezone = "America/New_York"
	f.slots.slots["new"].StartTime = "07:00"
	f.slots.slots["new"].EndTime = "07:30"

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrPastTimeSlot.Code, typed.Code)
}

func TestRescheduleSameDaySlotWestOfUTCAllowed(t *testing.T) {
	f := newBookingFixture()
	f.slots.slots["new"].Date = day("2025-07-10")
	f.slots.slots["new"].Timezone = "America/New_York"
	f.slots.slots["new"].StartTime = "09:30"
	f.slots.slots["new"].EndTime = "10:00"

	result, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	require.NoError(t, err)

	// 09:30 in New York on July 10 is 13:30 UTC, still ahead of the clock.
	want := time.Date(2025, 7, 10, 13, 30, 0, 0, time.UTC)
	assert.True(t, result.NewAppointmentDate.Equal(want))
	assert.Equal(t, 10, result.NewAppointmentDate.Day(), "appointment stays on the slot's calendar day")
}

func TestRescheduleOnlyOneClaimWins(t *testing.T) {
	f := newBookingFixture()
	f.appts.appts["appt-2"] = &models.Appointment{ID: "appt-2", SlotID: "old2", ProviderID: "prov-1", PetOwnerID: "owner-2", PetID: "pet-2", Status: models.AppointmentScheduled}
	f.slots.slots["old2"] = &models.Slot{ID: "old2", ProviderID: "prov-1", Date: day("2025-07-11"), StartTime: "10:00", EndTime: "10:30", Timezone: "UTC", Status: models.SlotBooked}

	_, firstErr := f.svc.Reschedule(context.Background(), "appt-1", "new")
	_, secondErr := f.svc.Reschedule(context.Background(), "appt-2", "new")

	require.NoError(t, firstErr)
	var typed *appErrors.Error
	require.True(t, errors.As(secondErr, &typed))
	assert.Equal(t, appErrors.ErrSlotNotAvailable.Code, typed.Code)

	assert.Equal(t, "new", f.appts.appts["appt-1"].SlotID)
	assert.Equal(t, "old2", f.appts.appts["appt-2"].SlotID, "loser keeps its original slot")
}

func TestRescheduleConcurrentCancelAborts(t *testing.T) {
	f := newBookingFixture()
	f.appts.goneInTx = true

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrAppointmentNotFound.Code, typed.Code)
	assert.Zero(t, f.appts.updates)
	assert.Empty(t, f.notifs.created)
}

func TestRescheduleMissingOldSlotTolerated(t *testing.T) {
	f := newBookingFixture()
	delete(f.slots.slots, "old")

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	require.NoError(t, err)
	assert.Equal(t, models.SlotBooked, f.slots.slots["new"].Status)
}

func TestRescheduleLinkFailureAbortsTransaction(t *testing.T) {
	f := newBookingFixture()
	f.issuer.err = errors.New("conference backend down")

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrTransactionAborted.Code, typed.Code)

	assert.Zero(t, f.appts.updates, "appointment row never written")
	assert.Empty(t, f.notifs.created, "no notification recorded")
}

func TestRescheduleNotificationFailureAbortsTransaction(t *testing.T) {
	f := newBookingFixture()
	f.notifs.err = errors.New("notifications table unavailable")

	_, err := f.svc.Reschedule(context.Background(), "appt-1", "new")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrTransactionAborted.Code, typed.Code)
	assert.Empty(t, f.notifs.created)
}

func TestBookClaimsSlotAndCreatesAppointment(t *testing.T) {
	f := newBookingFixture()

	appt, err := f.svc.Book(context.Background(), BookAppointmentRequest{
		SlotID:     "new",
		PetOwnerID: "owner-9",
		PetID:      "pet-9",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, "new", appt.SlotID)
	assert.Equal(t, 45.0, appt.Fee, "fee snapshot taken from the provider")
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.NotEmpty(t, appt.MeetingLink)

	assert.Equal(t, models.SlotBooked, f.slots.slots["new"].Status)
	assert.Equal(t, 1, f.appts.creates)
	require.Len(t, f.notifs.created, 1)
	assert.Equal(t, models.NotificationAppointmentBooked, f.notifs.created[0].Kind)
}

func TestBookValidatesPayload(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Book(context.Background(), BookAppointmentRequest{SlotID: "new"})
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidRequest.Code, typed.Code)
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newBookingFixture()

	err := f.svc.Cancel(context.Background(), "appt-1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.appts.softDeletes)
	assert.True(t, f.appts.appts["appt-1"].IsDeleted)
	assert.Equal(t, models.SlotAvailable, f.slots.slots["old"].Status)
	require.Len(t, f.notifs.created, 1)
	assert.Equal(t, models.NotificationAppointmentCancelled, f.notifs.created[0].Kind)
}

func TestCancelTwiceReportsNotFound(t *testing.T) {
	f := newBookingFixture()

	require.NoError(t, f.svc.Cancel(context.Background(), "appt-1"))
	err := f.svc.Cancel(context.Background(), "appt-1")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrAppointmentNotFound.Code, typed.Code)
}
