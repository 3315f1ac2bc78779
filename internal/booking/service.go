package booking

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/nail-studio-api/internal/catalog"
	"github.com/wolfman30/nail-studio-api/internal/observability/metrics"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

var bookingTracer = otel.Tracer("nailstudio.internal.booking")

const (
	sessionLockStripes = 64
	notifyTimeout      = 30 * time.Second
)

// Notifier is told about confirmed bookings. Calls run in the background
// after the response is decided; failures are logged, never surfaced to the
// customer.
type Notifier interface {
	BookingConfirmed(ctx context.Context, c Confirmation, customer CustomerInfo) error
}

// ActionRequest is the wire form of an Action. Ids are resolved against the
// catalog before anything touches the state.
type ActionRequest struct {
	Type         string        `json:"type"`
	ServiceID    string        `json:"serviceId,omitempty"`
	Date         *string       `json:"date,omitempty"`
	Time         *string       `json:"time,omitempty"`
	TechnicianID *string       `json:"technicianId,omitempty"`
	CustomerInfo *CustomerInfo `json:"customerInfo,omitempty"`
	Agreed       *bool         `json:"agreed,omitempty"`
	Step         *int          `json:"step,omitempty"`
}

// View is a session's state plus the derived values a step view renders.
type View struct {
	SessionID string `json:"sessionId"`
	State
	StepName      string  `json:"stepName"`
	TotalPrice    float64 `json:"totalPrice"`
	TotalDuration int     `json:"totalDuration"`
	CanProceed    bool    `json:"canProceed"`
}

func newView(id string, s State) View {
	return View{
		SessionID:     id,
		State:         s,
		StepName:      s.CurrentStep.String(),
		TotalPrice:    s.TotalPrice(),
		TotalDuration: s.TotalDuration(),
		CanProceed:    CanProceedToNextStep(s),
	}
}

// Options wires a Service.
type Options struct {
	Store        SessionStore
	Catalog      *catalog.Catalog
	Availability AvailabilityProvider
	Confirmer    Confirmer
	Notifier     Notifier
	Metrics      *metrics.BookingMetrics
	Logger       *logging.Logger
	Now          func() time.Time
}

// Service hosts wizard sessions. Every mutation is load, apply, save under a
// per-session lock, made atomic in the store when it supports SessionUpdater.
// Confirm is serialized per process only.
type Service struct {
	store        SessionStore
	catalog      *catalog.Catalog
	availability AvailabilityProvider
	confirmer    Confirmer
	notifier     Notifier
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	now          func() time.Time

	locks   [sessionLockStripes]sync.Mutex
	pending sync.WaitGroup
}

// NewService constructs a booking service, filling unset options with the
// simulated defaults.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewMemorySessionStore(defaultSessionTTL)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Availability == nil {
		opts.Availability = NewRandomAvailability(nil)
	}
	if opts.Confirmer == nil {
		opts.Confirmer = NewSimulatedConfirmer(2 * time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:        opts.Store,
		catalog:      opts.Catalog,
		availability: opts.Availability,
		confirmer:    opts.Confirmer,
		notifier:     opts.Notifier,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// CreateSession starts a wizard at its defaults.
func (s *Service) CreateSession(ctx context.Context) (View, error) {
	id := uuid.NewString()
	state := NewState()
	if err := s.store.Save(ctx, id, state); err != nil {
		return View{}, err
	}
	s.metrics.ObserveSessionCreated()
	s.logger.Info("booking session created", "session_id", id)
	return newView(id, state), nil
}

// Session returns the current view of a session.
func (s *Service) Session(ctx context.Context, id string) (View, error) {
	state, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return newView(id, state), nil
}

// CancelSession drops a session; its state is gone for good.
func (s *Service) CancelSession(ctx context.Context, id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("booking session cancelled", "session_id", id)
	return nil
}

// Apply resolves req and dispatches it to the session's wizard.
func (s *Service) Apply(ctx context.Context, id string, req ActionRequest) (View, error) {
	if req.Type == "setDateTime" && req.Date == nil && req.Time != nil {
		return s.selectTime(ctx, id, *req.Time)
	}
	action, err := s.resolve(req)
	if err != nil {
		s.metrics.ObserveAction(actionLabel(req.Type), err)
		return View{}, err
	}
	return s.mutate(ctx, id, action.Name(), func(w *Wizard) error {
		return w.Dispatch(action)
	})
}

// Next advances past the current step if its gate is open.
func (s *Service) Next(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, NextStep{}.Name(), func(w *Wizard) error {
		return w.Next()
	})
}

// Back returns to the previous step.
func (s *Service) Back(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, PreviousStep{}.Name(), func(w *Wizard) error {
		w.Back()
		return nil
	})
}

// GoTo jumps to step (review "Edit" links).
func (s *Service) GoTo(ctx context.Context, id string, step int) (View, error) {
	return s.mutate(ctx, id, SetCurrentStep{}.Name(), func(w *Wizard) error {
		return w.GoTo(Step(step))
	})
}

// SubmitCustomerInfo validates and stores the contact block, then advances.
func (s *Service) SubmitCustomerInfo(ctx context.Context, id string, info CustomerInfo) (View, error) {
	return s.mutate(ctx, id, SetCustomerInfo{}.Name(), func(w *Wizard) error {
		return w.SubmitCustomerInfo(info)
	})
}

// Confirm runs the terminal action for a session. On success the session is
// reset to defaults; on failure the stored state is left alone for a retry and
// the returned view shows it unchanged.
func (s *Service) Confirm(ctx context.Context, id string) (View, ConfirmResult, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("nailstudio.session_id", id))

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, ConfirmResult{}, err
	}
	var customer CustomerInfo
	if state.CustomerInfo != nil {
		customer = *state.CustomerInfo
	}

	w := NewWizard(state, s.confirmer)
	start := s.now()
	result, err := w.Confirm(ctx)
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		if isRejection(err) {
			s.metrics.ObserveConfirmation("rejected", elapsed)
			return newView(id, state), result, err
		}
		s.metrics.ObserveConfirmation("failure", elapsed)
		s.logger.Error("booking confirmation failed", "session_id", id, "error", err)
		return newView(id, state), result, err
	}

	s.metrics.ObserveConfirmation("success", elapsed)
	s.logger.Info("booking confirmed",
		"session_id", id,
		"confirmation_id", result.Confirmation.ID,
		"total_price", result.Confirmation.TotalPrice,
		"total_duration", result.Confirmation.TotalDuration,
	)
	s.notify(ctx, *result.Confirmation, customer)

	reset := w.State()
	if err := s.clearConfirmed(context.WithoutCancel(ctx), id, reset); err != nil {
		span.RecordError(err)
		result.Notification = resetFailedNotification(customer.Email)
		return newView(id, state), result, err
	}
	return newView(id, reset), result, nil
}

// clearConfirmed makes sure a confirmed session cannot be confirmed again:
// the reset state is saved, or failing that the session is dropped.
func (s *Service) clearConfirmed(ctx context.Context, id string, reset State) error {
	saveErr := s.store.Save(ctx, id, reset)
	if saveErr == nil {
		return nil
	}
	s.logger.Error("failed to reset booking session", "session_id", id, "error", saveErr)
	delErr := s.store.Delete(ctx, id)
	if delErr == nil {
		return nil
	}
	s.logger.Error("failed to drop confirmed booking session", "session_id", id, "error", delErr)
	return fmt.Errorf("%w: %w", ErrSessionNotReset, errors.Join(saveErr, delErr))
}

// CreateBooking confirms a complete, client-held state without a session.
// Service lines are re-priced from the catalog so the client cannot set its
// own prices.
func (s *Service) CreateBooking(ctx context.Context, state State) (Confirmation, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create")
	defer span.End()

	state = state.Clone().normalize()
	if err := ValidateComplete(state); err != nil {
		s.metrics.ObserveConfirmation("rejected", 0)
		return Confirmation{}, err
	}
	priced, err := s.reprice(state.SelectedServices)
	if err != nil {
		s.metrics.ObserveConfirmation("rejected", 0)
		return Confirmation{}, err
	}
	state.SelectedServices = priced
	if !InBookingWindow(*state.SelectedDate, s.now()) || !IsSlotTime(*state.SelectedTime) {
		s.metrics.ObserveConfirmation("slot_unavailable", 0)
		return Confirmation{}, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, *state.SelectedDate, *state.SelectedTime)
	}
	info, err := ValidateCustomerInfo(*state.CustomerInfo)
	if err != nil {
		return Confirmation{}, err
	}
	state.CustomerInfo = &info

	start := s.now()
	confirmation, err := s.confirmer.Confirm(ctx, state)
	elapsed := s.now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveConfirmation("failure", elapsed)
		s.logger.Error("booking create failed", "error", err)
		return Confirmation{}, fmt.Errorf("booking: confirm failed: %w", err)
	}
	span.SetAttributes(attribute.String("nailstudio.confirmation_id", confirmation.ID))
	s.metrics.ObserveConfirmation("success", elapsed)
	s.logger.Info("booking created", "confirmation_id", confirmation.ID, "total_price", confirmation.TotalPrice)
	s.notify(ctx, confirmation, info)
	return confirmation, nil
}

// Dates returns the date grid for today.
func (s *Service) Dates() []DateOption {
	return BookingDates(s.now())
}

// Availability returns slots for a date on the grid.
func (s *Service) Availability(ctx context.Context, date string) ([]Slot, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	if !InBookingWindow(date, s.now()) {
		return nil, fmt.Errorf("%w: %s is outside the booking window", ErrInvalidDate, date)
	}
	return s.availability.GetAvailableSlots(ctx, date)
}

func (s *Service) mutate(ctx context.Context, id, name string, fn func(*Wizard) error) (View, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	next, err := s.update(ctx, id, func(state State) (State, error) {
		w := NewWizard(state, s.confirmer)
		if err := fn(w); err != nil {
			return State{}, err
		}
		return w.State(), nil
	})
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.metrics.ObserveAction(name, err)
		}
		return View{}, err
	}
	s.metrics.ObserveAction(name, nil)
	s.logger.Debug("booking action applied", "session_id", id, "action", name, "step", int(next.CurrentStep))
	return newView(id, next), nil
}

// update runs a load, apply, save cycle. Stores that implement SessionUpdater
// make it atomic across processes; the stripe lock covers this one.
func (s *Service) update(ctx context.Context, id string, fn func(State) (State, error)) (State, error) {
	if u, ok := s.store.(SessionUpdater); ok {
		return u.Update(ctx, id, fn)
	}
	state, err := s.store.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	next, err := fn(state)
	if err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, id, next); err != nil {
		return State{}, err
	}
	return next, nil
}

// selectTime sets a time against the date already stored on the session.
func (s *Service) selectTime(ctx context.Context, id, t string) (View, error) {
	name := SetDateTime{}.Name()
	if !IsSlotTime(t) {
		err := fmt.Errorf("%w: %q", ErrInvalidTime, t)
		s.metrics.ObserveAction(name, err)
		return View{}, err
	}
	return s.mutate(ctx, id, name, func(w *Wizard) error {
		date := w.State().SelectedDate
		if date == nil {
			return fmt.Errorf("%w: pick a date before a time", ErrInvalidDate)
		}
		if !InBookingWindow(*date, s.now()) {
			return fmt.Errorf("%w: %s is outside the booking window", ErrInvalidDate, *date)
		}
		d := *date
		return w.Dispatch(SetDateTime{Date: &d, Time: &t})
	})
}

func (s *Service) resolve(req ActionRequest) (Action, error) {
	switch req.Type {
	case "addService":
		svc, err := s.catalog.Service(req.ServiceID)
		if err != nil {
			return nil, err
		}
		tier, err := svc.DefaultTier()
		if err != nil {
			return nil, err
		}
		return AddService{Service: BookingService{
			ServiceID:     svc.ID,
			PricingTierID: tier.ID,
			ServiceName:   svc.Name,
			Price:         tier.Price,
			Duration:      tier.Duration,
		}}, nil
	case "removeService":
		return RemoveService{ServiceID: req.ServiceID}, nil
	case "setDateTime":
		if req.Date == nil {
			return SetDateTime{}, nil
		}
		if _, err := ParseDate(*req.Date); err != nil {
			return nil, err
		}
		if !InBookingWindow(*req.Date, s.now()) {
			return nil, fmt.Errorf("%w: %s is outside the booking window", ErrInvalidDate, *req.Date)
		}
		if req.Time != nil && !IsSlotTime(*req.Time) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTime, *req.Time)
		}
		return SetDateTime{Date: req.Date, Time: req.Time}, nil
	case "setTechnician":
		if req.TechnicianID == nil || strings.TrimSpace(*req.TechnicianID) == "" {
			return SetTechnician{}, nil
		}
		tech, err := s.catalog.Technician(*req.TechnicianID)
		if err != nil {
			return nil, err
		}
		return SetTechnician{Technician: &tech}, nil
	case "setCustomerInfo":
		if req.CustomerInfo == nil {
			return SetCustomerInfo{}, nil
		}
		info, err := ValidateCustomerInfo(*req.CustomerInfo)
		if err != nil {
			return nil, err
		}
		return SetCustomerInfo{Info: &info}, nil
	case "setAgreedToTerms":
		return SetAgreedToTerms{Agreed: req.Agreed != nil && *req.Agreed}, nil
	case "setCurrentStep":
		if req.Step == nil {
			return nil, fmt.Errorf("%w: step is required", ErrInvalidStep)
		}
		return SetCurrentStep{Step: Step(*req.Step)}, nil
	case "nextStep":
		return NextStep{}, nil
	case "previousStep":
		return PreviousStep{}, nil
	case "resetBooking":
		return ResetBooking{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Type)
	}
}

func (s *Service) reprice(lines []BookingService) ([]BookingService, error) {
	out := make([]BookingService, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ServiceID]; dup {
			continue
		}
		seen[line.ServiceID] = struct{}{}
		svc, err := s.catalog.Service(line.ServiceID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{
				"selectedServices": fmt.Sprintf("unknown service %q", line.ServiceID),
			}}
		}
		tier, err := svc.DefaultTier()
		if err != nil {
			return nil, err
		}
		for _, t := range svc.PricingTiers {
			if t.ID == line.PricingTierID {
				tier = t
				break
			}
		}
		out = append(out, BookingService{
			ServiceID:     svc.ID,
			PricingTierID: tier.ID,
			ServiceName:   svc.Name,
			Price:         tier.Price,
			Duration:      tier.Duration,
		})
	}
	return out, nil
}

// notify sends the confirmation notice in the background, detached from the
// request and bounded by notifyTimeout.
func (s *Service) notify(ctx context.Context, c Confirmation, customer CustomerInfo) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := s.notifier.BookingConfirmed(ctx, c, customer); err != nil {
			s.logger.Warn("booking confirmation notice not sent", "confirmation_id", c.ID, "error", err)
		}
	}()
}

// Wait blocks until every queued confirmation notice has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockStripes]
}

func isRejection(err error) bool {
	var verr *ValidationError
	return errors.Is(err, ErrStepIncomplete) || errors.As(err, &verr)
}

func actionLabel(t string) string {
	switch t {
	case "addService", "removeService", "setDateTime", "setTechnician", "setCustomerInfo",
		"setAgreedToTerms", "setCurrentStep", "nextStep", "previousStep", "resetBooking":
		return t
	default:
		return "unknown"
	}
}
