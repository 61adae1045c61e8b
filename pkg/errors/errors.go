package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Scheduling domain errors.
var (
	ErrInvalidRequest      = New("INVALID_REQUEST", http.StatusBadRequest, "invalid request")
	ErrInvalidTimeFormat   = New("INVALID_TIME_FORMAT", http.StatusBadRequest, "time must be in HH:mm format")
	ErrInvalidPeriod       = New("INVALID_PERIOD", http.StatusBadRequest, "period end must be after period start")
	ErrNoMatchingSlots     = New("NO_MATCHING_SLOTS", http.StatusNotFound, "no matching slots for provider")
	ErrAppointmentNotFound = New("APPOINTMENT_NOT_FOUND", http.StatusNotFound, "appointment not found")
	ErrSlotNotAvailable    = New("SLOT_NOT_AVAILABLE", http.StatusConflict, "slot is not available")
	ErrPastDateSlot        = New("PAST_DATE_SLOT", http.StatusBadRequest, "slot date has already passed")
	ErrPastTimeSlot        = New("PAST_TIME_SLOT", http.StatusBadRequest, "slot start time has already passed")
	ErrTransactionAborted  = New("TRANSACTION_ABORTED", http.StatusInternalServerError, "operation aborted")
)

// ErrCacheMiss indicates the requested key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
