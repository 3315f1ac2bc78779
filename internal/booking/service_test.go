package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/nail-studio-api/internal/catalog"
	"github.com/wolfman30/nail-studio-api/internal/observability/metrics"
)

var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []Confirmation
	customers []CustomerInfo
	err       error
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, c Confirmation, customer CustomerInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, c)
	n.customers = append(n.customers, customer)
	return n.err
}

func newTestService(t *testing.T, confirmer Confirmer, notifier Notifier) *Service {
	t.Helper()
	if confirmer == nil {
		confirmer = ConfirmerFunc(func(_ context.Context, s State) (Confirmation, error) {
			return newConfirmation(s, testNow), nil
		})
	}
	return NewService(Options{
		Store:     NewMemorySessionStore(time.Hour),
		Catalog:   catalog.Default(),
		Confirmer: confirmer,
		Notifier:  notifier,
		Metrics:   metrics.NewBookingMetrics(prometheus.NewRegistry()),
		Availability: AvailabilityFunc(func(_ context.Context, date string) ([]Slot, error) {
			return []Slot{{Time: "9:00 AM", Available: true}, {Time: "9:30 AM", Available: false}}, nil
		}),
		Now: func() time.Time { return testNow },
	})
}

func bookThroughReview(t *testing.T, svc *Service, id string) View {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Apply(ctx, id, ActionRequest{Type: "addService", ServiceID: "gel-manicure"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, id)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setDateTime", Date: strPtr("2026-10-21"), Time: strPtr("11:00 AM")})
	require.NoError(t, err)
	_, err = svc.Next(ctx, id)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setTechnician", TechnicianID: strPtr("tech-sofia")})
	require.NoError(t, err)
	_, err = svc.Next(ctx, id)
	require.NoError(t, err)
	_, err = svc.SubmitCustomerInfo(ctx, id, validCustomer())
	require.NoError(t, err)
	agreed := true
	view, err := svc.Apply(ctx, id, ActionRequest{Type: "setAgreedToTerms", Agreed: &agreed})
	require.NoError(t, err)
	return view
}

func TestServiceWizardFlow(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := newTestService(t, nil, notifier)

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, StepService, created.CurrentStep)
	assert.Equal(t, "service", created.StepName)
	assert.False(t, created.CanProceed)

	view := bookThroughReview(t, svc, created.SessionID)
	assert.Equal(t, StepReview, view.CurrentStep)
	assert.True(t, view.CanProceed)
	assert.Equal(t, 50.0, view.TotalPrice)
	assert.Equal(t, 60, view.TotalDuration)
	require.NotNil(t, view.SelectedTechnician)
	assert.Equal(t, "tech-sofia", view.SelectedTechnician.ID)

	after, result, err := svc.Confirm(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Confirmation)
	assert.Equal(t, "2026-10-21", result.Confirmation.ScheduledDate)
	assert.Equal(t, "11:00 AM", result.Confirmation.ScheduledTime)
	assert.Equal(t, StepService, after.CurrentStep)
	assert.Empty(t, after.SelectedServices)

	stored, err := svc.Session(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, NewState(), stored.State)

	svc.Wait()
	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, "ava@example.com", notifier.customers[0].Email)
}

func TestServiceConfirmFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	fail := true
	confirmer := ConfirmerFunc(func(_ context.Context, s State) (Confirmation, error) {
		if fail {
			return Confirmation{}, errors.New("scheduler unavailable")
		}
		return newConfirmation(s, testNow), nil
	})
	notifier := &recordingNotifier{}
	svc := newTestService(t, confirmer, notifier)

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	before := bookThroughReview(t, svc, created.SessionID)

	view, result, err := svc.Confirm(ctx, created.SessionID)
	require.Error(t, err)
	assert.Equal(t, NotificationError, result.Notification.Type)
	assert.Equal(t, before.State, view.State)

	stored, err := svc.Session(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, before.State, stored.State)
	assert.Empty(t, notifier.confirmed)

	fail = false
	_, result, err = svc.Confirm(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, NotificationSuccess, result.Notification.Type)
}

func TestServiceNotifierErrorDoesNotFailBooking(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, &recordingNotifier{err: errors.New("smtp down")})
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	bookThroughReview(t, svc, created.SessionID)

	_, result, err := svc.Confirm(ctx, created.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, result.Confirmation)
	svc.Wait()
}

type blockingNotifier struct {
	release chan struct{}
	done    chan Confirmation
}

func (n *blockingNotifier) BookingConfirmed(ctx context.Context, c Confirmation, _ CustomerInfo) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.done <- c
	return nil
}

func TestServiceConfirmDoesNotWaitForNotifier(t *testing.T) {
	ctx := context.Background()
	notifier := &blockingNotifier{release: make(chan struct{}), done: make(chan Confirmation, 1)}
	svc := newTestService(t, nil, notifier)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	bookThroughReview(t, svc, created.SessionID)

	finished := make(chan error, 1)
	go func() {
		_, _, err := svc.Confirm(ctx, created.SessionID)
		finished <- err
	}()
	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("confirm blocked on the notifier")
	}

	other, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, other.SessionID, ActionRequest{Type: "addService", ServiceID: "gel-manicure"})
	require.NoError(t, err)

	close(notifier.release)
	svc.Wait()
	conf := <-notifier.done
	assert.Equal(t, "2026-10-21", conf.ScheduledDate)
}

// flakyStore fails Save and Delete once armed.
type flakyStore struct {
	SessionStore
	mu       sync.Mutex
	failSave bool
	failDel  bool
}

func (f *flakyStore) Save(ctx context.Context, id string, s State) error {
	f.mu.Lock()
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return f.SessionStore.Save(ctx, id, s)
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	fail := f.failDel
	f.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return f.SessionStore.Delete(ctx, id)
}

func (f *flakyStore) arm(save, del bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSave, f.failDel = save, del
}

func newFlakyService(t *testing.T, store *flakyStore) *Service {
	t.Helper()
	return NewService(Options{
		Store: store,
		Confirmer: ConfirmerFunc(func(_ context.Context, s State) (Confirmation, error) {
			return newConfirmation(s, testNow), nil
		}),
		Metrics: metrics.NewBookingMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return testNow },
	})
}

func TestServiceConfirmResetSaveFailureDropsSession(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{SessionStore: NewMemorySessionStore(time.Hour)}
	svc := newFlakyService(t, store)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	bookThroughReview(t, svc, created.SessionID)

	store.arm(true, false)
	_, result, err := svc.Confirm(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Confirmation)
	store.arm(false, false)

	_, _, err = svc.Confirm(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "a confirmed session cannot be confirmed twice")
}

func TestServiceConfirmResetFailureIsReported(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{SessionStore: NewMemorySessionStore(time.Hour)}
	svc := newFlakyService(t, store)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	bookThroughReview(t, svc, created.SessionID)

	store.arm(true, true)
	_, result, err := svc.Confirm(ctx, created.SessionID)
	require.ErrorIs(t, err, ErrSessionNotReset)
	require.NotNil(t, result.Confirmation, "the booking itself went through")
	assert.Equal(t, NotificationError, result.Notification.Type)
}

func TestServiceSetTimeKeepsStoredDate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setDateTime", Time: strPtr("11:00 AM")})
	assert.ErrorIs(t, err, ErrInvalidDate, "a time needs a date first")

	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setDateTime", Date: strPtr("2026-10-21")})
	require.NoError(t, err)

	view, err := svc.Apply(ctx, id, ActionRequest{Type: "setDateTime", Time: strPtr("11:00 AM")})
	require.NoError(t, err)
	require.NotNil(t, view.SelectedDate)
	require.NotNil(t, view.SelectedTime)
	assert.Equal(t, "2026-10-21", *view.SelectedDate)
	assert.Equal(t, "11:00 AM", *view.SelectedTime)

	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setDateTime", Time: strPtr("7:15 PM")})
	assert.ErrorIs(t, err, ErrInvalidTime)

	view, err = svc.Apply(ctx, id, ActionRequest{Type: "setDateTime"})
	require.NoError(t, err)
	assert.Nil(t, view.SelectedDate)
	assert.Nil(t, view.SelectedTime)
}

func TestServiceApplyRejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	cases := []struct {
		name string
		req  ActionRequest
		want error
	}{
		{"unknown service", ActionRequest{Type: "addService", ServiceID: "mystery"}, catalog.ErrServiceNotFound},
		{"non featured technician", ActionRequest{Type: "setTechnician", TechnicianID: strPtr("staff-jordan")}, catalog.ErrTechnicianNotFound},
		{"malformed date", ActionRequest{Type: "setDateTime", Date: strPtr("10/21/2026")}, ErrInvalidDate},
		{"past date", ActionRequest{Type: "setDateTime", Date: strPtr("2026-10-18")}, ErrInvalidDate},
		{"off grid time", ActionRequest{Type: "setDateTime", Date: strPtr("2026-10-21"), Time: strPtr("7:15 PM")}, ErrInvalidTime},
		{"missing step", ActionRequest{Type: "setCurrentStep"}, ErrInvalidStep},
		{"unknown type", ActionRequest{Type: "teleport"}, ErrUnknownAction},
		{"gate closed", ActionRequest{Type: "nextStep"}, ErrStepIncomplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, id, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = svc.Apply(ctx, id, ActionRequest{Type: "setCustomerInfo", CustomerInfo: &CustomerInfo{FirstName: "A"}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	view, err := svc.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, NewState(), view.State, "rejected actions leave the session untouched")

	_, err = svc.Apply(ctx, "nope", ActionRequest{Type: "resetBooking"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceGoToAndBack(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.GoTo(ctx, id, int(StepTechnician))
	assert.ErrorIs(t, err, ErrStepIncomplete)

	bookThroughReview(t, svc, id)
	view, err := svc.GoTo(ctx, id, int(StepDateTime))
	require.NoError(t, err)
	assert.Equal(t, StepDateTime, view.CurrentStep)
	assert.NotNil(t, view.CustomerInfo)

	view, err = svc.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepService, view.CurrentStep)

	_, err = svc.GoTo(ctx, id, 0)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestServiceCancelSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.CancelSession(ctx, created.SessionID))
	_, err = svc.Session(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.CancelSession(ctx, created.SessionID), ErrSessionNotFound)
}

func TestServiceCreateBooking(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := newTestService(t, nil, notifier)

	state := reviewReadyState()
	state.SelectedDate = strPtr("2026-10-21")
	state.SelectedServices[0].Price = 1

	conf, err := svc.CreateBooking(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 50.0, conf.TotalPrice, "lines are re-priced from the menu")
	svc.Wait()
	assert.Len(t, notifier.confirmed, 1)

	t.Run("incomplete", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, NewState())
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown service", func(t *testing.T) {
		s := reviewReadyState()
		s.SelectedDate = strPtr("2026-10-21")
		s.SelectedServices[0].ServiceID = "mystery"
		_, err := svc.CreateBooking(ctx, s)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "selectedServices")
	})

	t.Run("outside window", func(t *testing.T) {
		s := reviewReadyState()
		s.SelectedDate = strPtr("2027-01-01")
		_, err := svc.CreateBooking(ctx, s)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("confirmer failure", func(t *testing.T) {
		failing := newTestService(t, ConfirmerFunc(func(context.Context, State) (Confirmation, error) {
			return Confirmation{}, errors.New("boom")
		}), nil)
		s := reviewReadyState()
		s.SelectedDate = strPtr("2026-10-21")
		_, err := failing.CreateBooking(ctx, s)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSlotUnavailable)
	})
}

func TestServiceAvailability(t *testing.T) {
	svc := newTestService(t, nil, nil)
	slots, err := svc.Availability(context.Background(), "2026-10-20")
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	_, err = svc.Availability(context.Background(), "2026-12-25")
	assert.ErrorIs(t, err, ErrInvalidDate)

	dates := svc.Dates()
	require.Len(t, dates, BookingWindowDays)
	assert.Equal(t, "2026-10-19", dates[0].Date)
}

func TestServiceConcurrentActionsOnOneSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil)
	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	ids := []string{"classic-manicure", "gel-manicure", "spa-pedicure", "acrylic-full-set", "nail-art", "gel-removal"}
	var wg sync.WaitGroup
	for _, serviceID := range ids {
		wg.Add(1)
		go func(serviceID string) {
			defer wg.Done()
			_, err := svc.Apply(ctx, created.SessionID, ActionRequest{Type: "addService", ServiceID: serviceID})
			assert.NoError(t, err)
		}(serviceID)
	}
	wg.Wait()

	view, err := svc.Session(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Len(t, view.SelectedServices, len(ids), "no lost updates")
}
