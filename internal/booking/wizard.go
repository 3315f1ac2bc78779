package booking

import (
	"context"
	"fmt"
)

// NotificationType distinguishes success from failure notices.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Notification is the user-facing outcome of a confirm attempt.
type Notification struct {
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// ConfirmResult pairs the confirmation (nil on failure) with its notification.
type ConfirmResult struct {
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Notification Notification  `json:"notification"`
}

// Wizard is the controller for one wizard instance. It owns its State and is
// the only place actions are applied. It is not safe for concurrent use; the
// Service serializes access per session.
type Wizard struct {
	state     State
	confirmer Confirmer
}

// NewWizard wraps s. A nil confirmer confirms immediately.
func NewWizard(s State, confirmer Confirmer) *Wizard {
	if confirmer == nil {
		confirmer = NewSimulatedConfirmer(0)
	}
	return &Wizard{state: s.Clone().normalize(), confirmer: confirmer}
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	return w.state.Clone()
}

// CanProceed reports whether the current step's gate is open.
func (w *Wizard) CanProceed() bool {
	return CanProceedToNextStep(w.state)
}

// Dispatch applies a. Forward navigation goes through the gate; everything
// else is applied as is.
func (w *Wizard) Dispatch(a Action) error {
	switch act := a.(type) {
	case nil:
		return ErrUnknownAction
	case NextStep:
		return w.Next()
	case SetCurrentStep:
		return w.GoTo(act.Step)
	default:
		w.state = Apply(w.state, a)
		return nil
	}
}

// Next advances one step if the gate allows it. On the review step there is
// nowhere further to go; Confirm is the terminal action.
func (w *Wizard) Next() error {
	if !w.CanProceed() {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, w.state.CurrentStep)
	}
	w.state = Apply(w.state, NextStep{})
	return nil
}

// Back moves to the previous step. Step 1 stays on step 1.
func (w *Wizard) Back() {
	w.state = Apply(w.state, PreviousStep{})
}

// GoTo jumps to step. Backward jumps (review "Edit") are always allowed and
// keep every other section's data. Forward jumps are allowed only when every
// step before the target is complete, so the gate cannot be skipped.
func (w *Wizard) GoTo(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if step > w.state.CurrentStep {
		for s := FirstStep; s < step; s++ {
			if !stepComplete(w.state, s) {
				return fmt.Errorf("%w: %s", ErrStepIncomplete, s)
			}
		}
	}
	w.state = Apply(w.state, SetCurrentStep{Step: step})
	return nil
}

// SubmitCustomerInfo validates info, stores it and, when the wizard is on the
// customer step, advances to review. Invalid info leaves the state untouched.
func (w *Wizard) SubmitCustomerInfo(info CustomerInfo) error {
	valid, err := ValidateCustomerInfo(info)
	if err != nil {
		return err
	}
	w.state = Apply(w.state, SetCustomerInfo{Info: &valid})
	if w.state.CurrentStep == StepCustomerInfo {
		return w.Next()
	}
	return nil
}

// Reset restores defaults.
func (w *Wizard) Reset() {
	w.state = Apply(w.state, ResetBooking{})
}

// Confirm is the terminal action on the review step. On success the state is
// reset to defaults; on failure it is left exactly as it was so the customer
// can retry.
func (w *Wizard) Confirm(ctx context.Context) (ConfirmResult, error) {
	if w.state.CurrentStep != StepReview || !w.CanProceed() {
		return ConfirmResult{}, fmt.Errorf("%w: %s", ErrStepIncomplete, w.state.CurrentStep)
	}
	if err := ValidateComplete(w.state); err != nil {
		return ConfirmResult{}, err
	}

	confirmation, err := w.confirmer.Confirm(ctx, w.state.Clone())
	if err != nil {
		return ConfirmResult{Notification: failureNotification()}, err
	}

	email := w.state.CustomerInfo.Email
	w.Reset()
	return ConfirmResult{
		Confirmation: &confirmation,
		Notification: successNotification(email),
	}, nil
}

func successNotification(email string) Notification {
	return Notification{
		Type:    NotificationSuccess,
		Title:   "Booking Confirmed!",
		Message: fmt.Sprintf("Your appointment request has been received. A confirmation will be sent to %s.", email),
	}
}

func resetFailedNotification(email string) Notification {
	return Notification{
		Type:    NotificationError,
		Title:   "Booking Received",
		Message: fmt.Sprintf("Your appointment request was received and a confirmation will be sent to %s. Please do not submit it again.", email),
	}
}

func failureNotification() Notification {
	return Notification{
		Type:    NotificationError,
		Title:   "Booking Failed",
		Message: "Something went wrong while confirming your booking. Please try again.",
	}
}
