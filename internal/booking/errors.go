package booking

import (
	"errors"

	"github.com/wolfman30/nail-studio-api/internal/validation"
)

var (
	// ErrStepIncomplete is returned when the gate for the current step is closed.
	ErrStepIncomplete = errors.New("booking: current step is incomplete")
	// ErrInvalidStep is returned for a jump target outside 1..5.
	ErrInvalidStep = errors.New("booking: step out of range")
	// ErrInvalidDate is returned for a malformed date.
	ErrInvalidDate = errors.New("booking: invalid date")
	// ErrInvalidTime is returned for a time that is not a bookable slot label.
	ErrInvalidTime = errors.New("booking: invalid time")
	// ErrSlotUnavailable is returned when the chosen date/time can no longer be booked.
	ErrSlotUnavailable = errors.New("booking: slot no longer available")
	// ErrUnknownAction is returned for an action type the wizard does not know.
	ErrUnknownAction = errors.New("booking: unknown action")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("booking: session not found")
	// ErrSessionConflict is returned when a session kept changing underneath an
	// update.
	ErrSessionConflict = errors.New("booking: session was modified concurrently")
	// ErrSessionNotReset is returned when a booking was confirmed but its
	// session could be neither reset nor dropped.
	ErrSessionNotReset = errors.New("booking: confirmed session could not be reset")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "booking: validation failed: " + validation.Summary(e.Fields)
}
