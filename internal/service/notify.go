package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	"github.com/vetlink/vetlink-api/pkg/jobs"
)

// MeetingLinkIssuer issues the opaque video consultation URL bound to an
// appointment. It is called synchronously inside the booking transaction; an
// error aborts the whole operation.
type MeetingLinkIssuer interface {
	Issue(ctx context.Context, appointmentID, providerID, petID, petOwnerID string) (string, error)
}

// EmailSender delivers confirmation emails. Called only after commit;
// failures are logged and swallowed.
type EmailSender interface {
	SendAppointmentEmail(ctx context.Context, recipientUserID string, appt models.Appointment) error
}

// PushSender delivers push notifications. Called only after commit; failures
// are logged and swallowed.
type PushSender interface {
	SendPush(ctx context.Context, recipientUserID string, kind models.NotificationKind, appointmentID string, date time.Time) error
}

// StaticMeetingLinkIssuer mints meeting URLs under a fixed base, one fresh
// room per issue call.
type StaticMeetingLinkIssuer struct {
	BaseURL string
}

// Issue returns a new meeting room URL.
func (i *StaticMeetingLinkIssuer) Issue(_ context.Context, appointmentID, _, _, _ string) (string, error) {
	if i.BaseURL == "" {
		return "", fmt.Errorf("meeting link base URL not configured")
	}
	return fmt.Sprintf("%s/room/%s-%s", i.BaseURL, appointmentID, uuid.NewString()[:8]), nil
}

const (
	jobTypeEmail = "appointment_email"
	jobTypePush  = "appointment_push"
)

type dispatchPayload struct {
	RecipientUserID string
	Kind            models.NotificationKind
	Appointment     models.Appointment
}

// Dispatcher runs the post-commit, fire-and-forget delivery phase on a
// background worker queue. Enqueue failures are logged, never returned to
// booking callers.
type Dispatcher struct {
	queue  *jobs.Queue
	email  EmailSender
	push   PushSender
	logger *zap.Logger
}

// NewDispatcher builds a dispatcher backed by an in-process queue.
func NewDispatcher(email EmailSender, push PushSender, cfg jobs.QueueConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{email: email, push: push, logger: logger}
	cfg.Logger = logger
	d.queue = jobs.NewQueue("notification-dispatch", d.handle, cfg)
	return d
}

// Start begins background delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// DispatchAppointment enqueues email and push delivery for a committed
// booking outcome.
func (d *Dispatcher) DispatchAppointment(recipientUserID string, kind models.NotificationKind, appt models.Appointment) {
	payload := dispatchPayload{RecipientUserID: recipientUserID, Kind: kind, Appointment: appt}
	for _, jobType := range []string{jobTypeEmail, jobTypePush} {
		err := d.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    jobType,
			Payload: payload,
		})
		if err != nil {
			d.logger.Warn("notification dispatch enqueue failed",
				zap.String("type", jobType),
				zap.String("appointment_id", appt.ID),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dispatchPayload)
	if !ok {
		d.logger.Error("unexpected dispatch payload", zap.String("job_id", job.ID))
		return nil
	}

	switch job.Type {
	case jobTypeEmail:
		if d.email == nil {
			return nil
		}
		return d.email.SendAppointmentEmail(ctx, payload.RecipientUserID, payload.Appointment)
	case jobTypePush:
		if d.push == nil {
			return nil
		}
		return d.push.SendPush(ctx, payload.RecipientUserID, payload.Kind, payload.Appointment.ID, payload.Appointment.AppointmentDate)
	default:
		d.logger.Error("unknown dispatch job type", zap.String("type", job.Type))
		return nil
	}
}

// LoggingEmailSender writes email intents to the log. It stands in until a
// real mail provider is wired.
type LoggingEmailSender struct {
	Logger *zap.Logger
}

// SendAppointmentEmail logs the outgoing email.
func (s *LoggingEmailSender) SendAppointmentEmail(_ context.Context, recipientUserID string, appt models.Appointment) error {
	s.Logger.Info("appointment email",
		zap.String("recipient", recipientUserID),
		zap.String("appointment_id", appt.ID),
		zap.Time("appointment_date", appt.AppointmentDate))
	return nil
}

// LoggingPushSender writes push intents to the log.
type LoggingPushSender struct {
	Logger *zap.Logger
}

// SendPush logs the outgoing push notification.
func (s *LoggingPushSender) SendPush(_ context.Context, recipientUserID string, kind models.NotificationKind, appointmentID string, date time.Time) error {
	s.Logger.Info("appointment push",
		zap.String("recipient", recipientUserID),
		zap.String("kind", string(kind)),
		zap.String("appointment_id", appointmentID),
		zap.Time("appointment_date", date))
	return nil
}
