// Package booking implements the five-step appointment wizard: the state it
// accumulates, the actions that mutate it, the gate that governs forward
// navigation, and the controller that confirms a finished booking.
package booking

import (
	"github.com/wolfman30/nail-studio-api/internal/catalog"
)

// Step is a wizard position, 1 through 5.
type Step int

const (
	StepService Step = iota + 1
	StepDateTime
	StepTechnician
	StepCustomerInfo
	StepReview
)

const (
	FirstStep = StepService
	LastStep  = StepReview
)

func (s Step) String() string {
	switch s {
	case StepService:
		return "service"
	case StepDateTime:
		return "datetime"
	case StepTechnician:
		return "technician"
	case StepCustomerInfo:
		return "customer"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Valid reports whether s is inside [FirstStep, LastStep].
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func clampStep(s Step) Step {
	if s < FirstStep {
		return FirstStep
	}
	if s > LastStep {
		return LastStep
	}
	return s
}

// BookingService is a service line in the basket, priced from one tier.
type BookingService struct {
	ServiceID     string  `json:"serviceId"`
	PricingTierID string  `json:"pricingTierId"`
	ServiceName   string  `json:"serviceName"`
	Price         float64 `json:"price"`
	Duration      int     `json:"duration"`
}

// CustomerInfo is the contact block collected on step 4.
type CustomerInfo struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Notes     string `json:"notes" validate:"max=500"`
}

// FullName joins first and last name.
func (c CustomerInfo) FullName() string {
	return c.FirstName + " " + c.LastName
}

// State is everything the wizard has collected so far.
type State struct {
	CurrentStep        Step                `json:"currentStep"`
	SelectedServices   []BookingService    `json:"selectedServices"`
	SelectedDate       *string             `json:"selectedDate"`
	SelectedTime       *string             `json:"selectedTime"`
	SelectedTechnician *catalog.TeamMember `json:"selectedTechnician"`
	CustomerInfo       *CustomerInfo       `json:"customerInfo"`
	AgreedToTerms      bool                `json:"agreedToTerms"`
}

// NewState returns the defaults a fresh wizard starts from.
func NewState() State {
	return State{
		CurrentStep:      StepService,
		SelectedServices: []BookingService{},
	}
}

// TotalPrice sums the selected services. It is derived on every read.
func (s State) TotalPrice() float64 {
	var total float64
	for _, svc := range s.SelectedServices {
		total += svc.Price
	}
	return total
}

// TotalDuration sums service durations in minutes.
func (s State) TotalDuration() int {
	total := 0
	for _, svc := range s.SelectedServices {
		total += svc.Duration
	}
	return total
}

// HasService reports whether serviceID is already in the basket.
func (s State) HasService(serviceID string) bool {
	for _, svc := range s.SelectedServices {
		if svc.ServiceID == serviceID {
			return true
		}
	}
	return false
}

// Clone deep-copies the state so reducers never share backing arrays or
// pointers with their input.
func (s State) Clone() State {
	out := s
	out.SelectedServices = make([]BookingService, len(s.SelectedServices))
	copy(out.SelectedServices, s.SelectedServices)
	if s.SelectedDate != nil {
		d := *s.SelectedDate
		out.SelectedDate = &d
	}
	if s.SelectedTime != nil {
		t := *s.SelectedTime
		out.SelectedTime = &t
	}
	if s.SelectedTechnician != nil {
		m := *s.SelectedTechnician
		m.Specialties = append([]string(nil), s.SelectedTechnician.Specialties...)
		out.SelectedTechnician = &m
	}
	if s.CustomerInfo != nil {
		c := *s.CustomerInfo
		out.CustomerInfo = &c
	}
	return out
}

// normalize repairs decoded state: nil basket, out-of-range step, and a time
// without a date.
func (s State) normalize() State {
	if s.SelectedServices == nil {
		s.SelectedServices = []BookingService{}
	}
	s.CurrentStep = clampStep(s.CurrentStep)
	if s.SelectedDate == nil {
		s.SelectedTime = nil
	}
	return s
}
