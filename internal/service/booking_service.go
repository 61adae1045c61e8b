package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/timeutil"
)

type bookingSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.Slot, error)
	ClaimTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

type bookingAppointmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Appointment, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, appt *models.Appointment) error
	UpdateRescheduleTx(ctx context.Context, tx *sqlx.Tx, appt *models.Appointment) error
	SoftDeleteTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

type bookingNotificationRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, n *models.Notification) error
}

type bookingProviderReader interface {
	FindByID(ctx context.Context, id string) (*models.Provider, error)
}

// BookAppointmentRequest describes a fresh booking.
type BookAppointmentRequest struct {
	SlotID     string `json:"slot_id" validate:"required"`
	PetOwnerID string `json:"pet_owner_id" validate:"required"`
	PetID      string `json:"pet_id" validate:"required"`
}

// BookingService atomically binds appointments to slots. All mutual
// exclusion is delegated to conditional status updates inside store
// transactions; two concurrent claims of one slot cannot both succeed.
type BookingService struct {
	tx            txRunner
	slots         bookingSlotRepository
	appointments  bookingAppointmentRepository
	notifications bookingNotificationRepository
	providers     bookingProviderReader
	links         MeetingLinkIssuer
	dispatcher    *Dispatcher
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger

	// now supplies the reference instant for past-slot checks so tests can
	// inject a fixed clock.
	now func() time.Time
}

// NewBookingService instantiates BookingService.
func NewBookingService(tx txRunner, slots bookingSlotRepository, appointments bookingAppointmentRepository, notifications bookingNotificationRepository, providers bookingProviderReader, links MeetingLinkIssuer, dispatcher *Dispatcher, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		tx:            tx,
		slots:         slots,
		appointments:  appointments,
		notifications: notifications,
		providers:     providers,
		links:         links,
		dispatcher:    dispatcher,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the reference clock. Test hook.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

// Reschedule atomically moves an appointment onto the target slot. The old
// slot is released best-effort; the target claim is the serialization point
// against concurrent bookings.
func (s *BookingService) Reschedule(ctx context.Context, appointmentID, targetSlotID string) (*models.RescheduleResult, error) {
	if appointmentID == "" || targetSlotID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "appointment id and target slot id are required")
	}

	appt, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAppointmentNotFound, fmt.Sprintf("appointment %s not found", appointmentID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	target, err := s.loadBookableSlot(ctx, targetSlotID, appt.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := s.rejectPastSlot(target); err != nil {
		return nil, err
	}

	newDate, err := timeutil.ComposeZonedDateTime(target.Date, target.StartTime, target.Timezone)
	if err != nil {
		return nil, err
	}

	var updated models.Appointment

	err = s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		// Re-read with a row lock: the appointment may have been cancelled
		// or moved between the pre-check and this transaction.
		locked, err := s.appointments.FindByIDTx(ctx, tx, appt.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrAppointmentNotFound, "appointment was cancelled concurrently")
			}
			return err
		}
		oldSlotID := locked.SlotID
		updated = *locked

		claimed, err := s.slots.ClaimTx(ctx, tx, target.ID)
		if err != nil {
			return err
		}
		if !claimed {
			s.metrics.RecordSlotClaimConflict()
			return appErrors.Clone(appErrors.ErrSlotNotAvailable, "slot was claimed by another booking")
		}

		// A missing or already-released old slot is not fatal.
		if _, err := s.slots.ReleaseTx(ctx, tx, oldSlotID); err != nil {
			return err
		}

		link, err := s.links.Issue(ctx, updated.ID, updated.ProviderID, updated.PetID, updated.PetOwnerID)
		if err != nil {
			return fmt.Errorf("issue meeting link: %w", err)
		}

		updated.SlotID = target.ID
		updated.AppointmentDate = newDate
		updated.MeetingLink = link
		if err := s.appointments.UpdateRescheduleTx(ctx, tx, &updated); err != nil {
			return err
		}

		return s.notifications.CreateTx(ctx, tx, &models.Notification{
			RecipientUserID: updated.PetOwnerID,
			Kind:            models.NotificationAppointmentRescheduled,
			AppointmentID:   updated.ID,
			AppointmentDate: newDate,
		})
	})
	if err != nil {
		s.metrics.RecordBookingOutcome("reschedule", "failed")
		return nil, asBookingError(err)
	}

	s.metrics.RecordBookingOutcome("reschedule", "committed")
	s.afterCommit(ctx, updated, models.NotificationAppointmentRescheduled)

	claimedSlot := *target
	claimedSlot.Status = models.SlotBooked
	return &models.RescheduleResult{
		Appointment:        updated,
		NewAppointmentDate: newDate,
		NewSlot:            claimedSlot,
	}, nil
}

// Book claims a fresh slot and creates the appointment bound to it.
func (s *BookingService) Book(ctx context.Context, req BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid booking payload")
	}

	slot, err := s.loadBookableSlot(ctx, req.SlotID, "")
	if err != nil {
		return nil, err
	}
	if err := s.rejectPastSlot(slot); err != nil {
		return nil, err
	}

	provider, err := s.providers.FindByID(ctx, slot.ProviderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider")
	}

	date, err := timeutil.ComposeZonedDateTime(slot.Date, slot.StartTime, slot.Timezone)
	if err != nil {
		return nil, err
	}

	appt := models.Appointment{
		ID:              uuid.NewString(),
		SlotID:          slot.ID,
		ProviderID:      slot.ProviderID,
		PetOwnerID:      req.PetOwnerID,
		PetID:           req.PetID,
		AppointmentDate: date,
		Fee:             provider.ConsultationFee,
		Status:          models.AppointmentScheduled,
	}

	err = s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		claimed, err := s.slots.ClaimTx(ctx, tx, slot.ID)
		if err != nil {
			return err
		}
		if !claimed {
			s.metrics.RecordSlotClaimConflict()
			return appErrors.Clone(appErrors.ErrSlotNotAvailable, "slot was claimed by another booking")
		}

		link, err := s.links.Issue(ctx, appt.ID, appt.ProviderID, appt.PetID, appt.PetOwnerID)
		if err != nil {
			return fmt.Errorf("issue meeting link: %w", err)
		}
		appt.MeetingLink = link

		if err := s.appointments.CreateTx(ctx, tx, &appt); err != nil {
			return err
		}

		return s.notifications.CreateTx(ctx, tx, &models.Notification{
			RecipientUserID: appt.PetOwnerID,
			Kind:            models.NotificationAppointmentBooked,
			AppointmentID:   appt.ID,
			AppointmentDate: date,
		})
	})
	if err != nil {
		s.metrics.RecordBookingOutcome("book", "failed")
		return nil, asBookingError(err)
	}

	s.metrics.RecordBookingOutcome("book", "committed")
	s.afterCommit(ctx, appt, models.NotificationAppointmentBooked)
	return &appt, nil
}

// Cancel soft-deletes the appointment and releases the bound slot back to
// AVAILABLE. The row is kept for history.
func (s *BookingService) Cancel(ctx context.Context, appointmentID string) error {
	if appointmentID == "" {
		return appErrors.Clone(appErrors.ErrInvalidRequest, "appointment id is required")
	}

	appt, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrAppointmentNotFound, fmt.Sprintf("appointment %s not found", appointmentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	err = s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		deleted, err := s.appointments.SoftDeleteTx(ctx, tx, appt.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return appErrors.Clone(appErrors.ErrAppointmentNotFound, "appointment already cancelled")
		}

		if _, err := s.slots.ReleaseTx(ctx, tx, appt.SlotID); err != nil {
			return err
		}

		return s.notifications.CreateTx(ctx, tx, &models.Notification{
			RecipientUserID: appt.PetOwnerID,
			Kind:            models.NotificationAppointmentCancelled,
			AppointmentID:   appt.ID,
			AppointmentDate: appt.AppointmentDate,
		})
	})
	if err != nil {
		s.metrics.RecordBookingOutcome("cancel", "failed")
		return asBookingError(err)
	}

	s.metrics.RecordBookingOutcome("cancel", "committed")
	cancelled := *appt
	cancelled.IsDeleted = true
	cancelled.Status = models.AppointmentCancelled
	s.afterCommit(ctx, cancelled, models.NotificationAppointmentCancelled)
	return nil
}

// loadBookableSlot fetches the slot and checks ownership and availability.
// When wantProviderID is empty any provider is acceptable.
func (s *BookingService) loadBookableSlot(ctx context.Context, slotID, wantProviderID string) (*models.Slot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSlotNotAvailable, fmt.Sprintf("slot %s not found", slotID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if wantProviderID != "" && slot.ProviderID != wantProviderID {
		return nil, appErrors.Clone(appErrors.ErrSlotNotAvailable, "slot belongs to a different provider")
	}
	if slot.Status != models.SlotAvailable {
		return nil, appErrors.Clone(appErrors.ErrSlotNotAvailable, fmt.Sprintf("slot is %s", slot.Status))
	}
	return slot, nil
}

// rejectPastSlot fails slots whose day, or start instant when the slot is
// today, has already elapsed in the slot's own timezone.
func (s *BookingService) rejectPastSlot(slot *models.Slot) error {
	now := s.now()

	slotDay, err := timeutil.DayStart(slot.Date, slot.Timezone)
	if err != nil {
		return err
	}
	today, err := timeutil.StartOfDay(now, slot.Timezone)
	if err != nil {
		return err
	}

	if slotDay.Before(today) {
		return appErrors.Clone(appErrors.ErrPastDateSlot, fmt.Sprintf("slot day %s has passed", slotDay.Format("2006-01-02")))
	}
	if slotDay.Equal(today) {
		start, err := timeutil.ComposeZonedDateTime(slot.Date, slot.StartTime, slot.Timezone)
		if err != nil {
			return err
		}
		if !start.After(now) {
			return appErrors.Clone(appErrors.ErrPastTimeSlot, fmt.Sprintf("slot start %s has passed", slot.StartTime))
		}
	}
	return nil
}

// afterCommit runs the advisory side-effect phase. Nothing here may surface
// an error to the caller.
func (s *BookingService) afterCommit(ctx context.Context, appt models.Appointment, kind models.NotificationKind) {
	if s.dispatcher != nil {
		s.dispatcher.DispatchAppointment(appt.PetOwnerID, kind, appt)
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("stats:%s:*", appt.ProviderID)); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.String("provider_id", appt.ProviderID), zap.Error(err))
		}
	}
}

// asBookingError passes typed domain errors through and folds everything
// else into a transaction abort.
func asBookingError(err error) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Wrap(err, appErrors.ErrTransactionAborted.Code, appErrors.ErrTransactionAborted.Status, appErrors.ErrTransactionAborted.Message)
}
