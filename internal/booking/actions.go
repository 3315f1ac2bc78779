package booking

import "github.com/wolfman30/nail-studio-api/internal/catalog"

// Action is a typed wizard command. Step views emit actions; only Apply (and
// the Wizard built on it) turns them into state.
type Action interface {
	Name() string
	apply(State) State
}

// Apply returns the state after a. The input is never mutated, and no action
// fails: gate policy lives in the Wizard, not here.
func Apply(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s.Clone())
}

// AddService appends a service line unless that service is already selected.
type AddService struct {
	Service BookingService
}

func (AddService) Name() string { return "addService" }

func (a AddService) apply(s State) State {
	if s.HasService(a.Service.ServiceID) {
		return s
	}
	s.SelectedServices = append(s.SelectedServices, a.Service)
	return s
}

// RemoveService drops the line for ServiceID, if any.
type RemoveService struct {
	ServiceID string
}

func (RemoveService) Name() string { return "removeService" }

func (a RemoveService) apply(s State) State {
	kept := make([]BookingService, 0, len(s.SelectedServices))
	for _, svc := range s.SelectedServices {
		if svc.ServiceID != a.ServiceID {
			kept = append(kept, svc)
		}
	}
	s.SelectedServices = kept
	return s
}

// SetDateTime sets date and time together. Moving to a different date drops
// the time so it has to be picked again; a nil date clears both.
type SetDateTime struct {
	Date *string
	Time *string
}

func (SetDateTime) Name() string { return "setDateTime" }

func (a SetDateTime) apply(s State) State {
	if a.Date == nil {
		s.SelectedDate = nil
		s.SelectedTime = nil
		return s
	}
	dateChanged := s.SelectedDate != nil && *s.SelectedDate != *a.Date
	date := *a.Date
	s.SelectedDate = &date
	if a.Time == nil || dateChanged {
		s.SelectedTime = nil
		return s
	}
	t := *a.Time
	s.SelectedTime = &t
	return s
}

// SetTechnician picks a technician; nil means no preference.
type SetTechnician struct {
	Technician *catalog.TeamMember
}

func (SetTechnician) Name() string { return "setTechnician" }

func (a SetTechnician) apply(s State) State {
	if a.Technician == nil {
		s.SelectedTechnician = nil
		return s
	}
	m := *a.Technician
	s.SelectedTechnician = &m
	return s
}

// SetCustomerInfo stores (or clears) the contact block.
type SetCustomerInfo struct {
	Info *CustomerInfo
}

func (SetCustomerInfo) Name() string { return "setCustomerInfo" }

func (a SetCustomerInfo) apply(s State) State {
	if a.Info == nil {
		s.CustomerInfo = nil
		return s
	}
	info := *a.Info
	s.CustomerInfo = &info
	return s
}

// SetAgreedToTerms toggles the review checkbox.
type SetAgreedToTerms struct {
	Agreed bool
}

func (SetAgreedToTerms) Name() string { return "setAgreedToTerms" }

func (a SetAgreedToTerms) apply(s State) State {
	s.AgreedToTerms = a.Agreed
	return s
}

// SetCurrentStep jumps to any step, clamped to [1,5]. Review "Edit" links use it.
type SetCurrentStep struct {
	Step Step
}

func (SetCurrentStep) Name() string { return "setCurrentStep" }

func (a SetCurrentStep) apply(s State) State {
	s.CurrentStep = clampStep(a.Step)
	return s
}

// NextStep advances one step without consulting the gate.
type NextStep struct{}

func (NextStep) Name() string { return "nextStep" }

func (NextStep) apply(s State) State {
	s.CurrentStep = clampStep(s.CurrentStep + 1)
	return s
}

// PreviousStep moves back one step.
type PreviousStep struct{}

func (PreviousStep) Name() string { return "previousStep" }

func (PreviousStep) apply(s State) State {
	s.CurrentStep = clampStep(s.CurrentStep - 1)
	return s
}

// ResetBooking restores the defaults.
type ResetBooking struct{}

func (ResetBooking) Name() string { return "resetBooking" }

func (ResetBooking) apply(State) State {
	return NewState()
}
