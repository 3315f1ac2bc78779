package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewReadyState() State {
	info := validCustomer()
	s := Apply(NewState(), AddService{Service: gelManicure()})
	s = Apply(s, SetDateTime{Date: strPtr("2026-10-20"), Time: strPtr("9:00 AM")})
	s = Apply(s, SetCustomerInfo{Info: &info})
	s = Apply(s, SetAgreedToTerms{Agreed: true})
	return Apply(s, SetCurrentStep{Step: StepReview})
}

func TestWizardNextRespectsGate(t *testing.T) {
	w := NewWizard(NewState(), nil)

	err := w.Next()
	require.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepService, w.State().CurrentStep)

	require.NoError(t, w.Dispatch(AddService{Service: gelManicure()}))
	require.NoError(t, w.Dispatch(NextStep{}))
	assert.Equal(t, StepDateTime, w.State().CurrentStep)
}

func TestWizardGoTo(t *testing.T) {
	w := NewWizard(reviewReadyState(), nil)

	require.NoError(t, w.GoTo(StepService))
	s := w.State()
	assert.Equal(t, StepService, s.CurrentStep)
	assert.NotNil(t, s.CustomerInfo, "edit jumps keep other sections")
	assert.True(t, s.AgreedToTerms)

	require.NoError(t, w.GoTo(StepReview), "forward jump over complete steps")

	fresh := NewWizard(NewState(), nil)
	assert.ErrorIs(t, fresh.GoTo(StepReview), ErrStepIncomplete)
	assert.ErrorIs(t, fresh.GoTo(Step(7)), ErrInvalidStep)
	assert.ErrorIs(t, fresh.Dispatch(nil), ErrUnknownAction)
}

func TestWizardSubmitCustomerInfo(t *testing.T) {
	s := Apply(NewState(), AddService{Service: gelManicure()})
	s = Apply(s, SetDateTime{Date: strPtr("2026-10-20"), Time: strPtr("9:00 AM")})
	s = Apply(s, SetCurrentStep{Step: StepCustomerInfo})
	w := NewWizard(s, nil)

	err := w.SubmitCustomerInfo(CustomerInfo{FirstName: "A", Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "firstName")
	assert.Contains(t, verr.Fields, "lastName")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "phone")
	assert.Nil(t, w.State().CustomerInfo)

	info := validCustomer()
	info.FirstName = "  Ava  "
	info.Phone = "(555) 555-0123"
	require.NoError(t, w.SubmitCustomerInfo(info))
	got := w.State()
	assert.Equal(t, StepReview, got.CurrentStep)
	require.NotNil(t, got.CustomerInfo)
	assert.Equal(t, "Ava", got.CustomerInfo.FirstName)
}

func TestWizardConfirmHappyPath(t *testing.T) {
	var seen State
	confirmer := ConfirmerFunc(func(_ context.Context, s State) (Confirmation, error) {
		seen = s
		return newConfirmation(s, time.Now()), nil
	})

	w := NewWizard(NewState(), confirmer)
	require.NoError(t, w.Dispatch(AddService{Service: gelManicure()}))
	require.NoError(t, w.Next())
	require.NoError(t, w.Dispatch(SetDateTime{Date: strPtr("2026-10-20"), Time: strPtr("9:00 AM")}))
	require.NoError(t, w.Next())
	require.NoError(t, w.Dispatch(SetTechnician{}))
	require.NoError(t, w.Next())
	require.NoError(t, w.SubmitCustomerInfo(validCustomer()))
	require.NoError(t, w.Dispatch(SetAgreedToTerms{Agreed: true}))

	result, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Confirmation)
	assert.Equal(t, 50.0, result.Confirmation.TotalPrice)
	assert.Equal(t, 60, result.Confirmation.TotalDuration)
	assert.Empty(t, result.Confirmation.Technician)
	assert.Equal(t, NotificationSuccess, result.Notification.Type)
	assert.Equal(t, "Booking Confirmed!", result.Notification.Title)
	assert.Contains(t, result.Notification.Message, "ava@example.com")

	assert.Nil(t, seen.SelectedTechnician)
	assert.Equal(t, NewState(), w.State())
}

func TestWizardConfirmFailureLeavesStateForRetry(t *testing.T) {
	calls := 0
	confirmer := ConfirmerFunc(func(_ context.Context, s State) (Confirmation, error) {
		calls++
		if calls == 1 {
			return Confirmation{}, errors.New("backend down")
		}
		return newConfirmation(s, time.Now()), nil
	})
	before := reviewReadyState()
	w := NewWizard(before, confirmer)

	result, err := w.Confirm(context.Background())
	require.Error(t, err)
	assert.Nil(t, result.Confirmation)
	assert.Equal(t, NotificationError, result.Notification.Type)
	assert.Equal(t, before, w.State())

	result, err = w.Confirm(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, result.Confirmation)
	assert.Equal(t, 2, calls)
}

func TestWizardConfirmRequiresReviewAndTerms(t *testing.T) {
	s := reviewReadyState()
	s = Apply(s, SetAgreedToTerms{Agreed: false})
	_, err := NewWizard(s, nil).Confirm(context.Background())
	assert.ErrorIs(t, err, ErrStepIncomplete)

	s = Apply(reviewReadyState(), SetCurrentStep{Step: StepCustomerInfo})
	_, err = NewWizard(s, nil).Confirm(context.Background())
	assert.ErrorIs(t, err, ErrStepIncomplete)
}

func TestSimulatedConfirmerHonorsContext(t *testing.T) {
	c := NewSimulatedConfirmer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Confirm(ctx, reviewReadyState())
	assert.ErrorIs(t, err, context.Canceled)

	conf, err := NewSimulatedConfirmer(0).Confirm(context.Background(), reviewReadyState())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, conf.Status)
	assert.Equal(t, []string{"Gel Manicure"}, conf.Services)
	assert.Equal(t, "2026-10-20", conf.ScheduledDate)
	assert.Equal(t, "9:00 AM", conf.ScheduledTime)
	assert.NotEmpty(t, conf.ID)
}

func TestValidateComplete(t *testing.T) {
	err := ValidateComplete(NewState())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, key := range []string{"selectedServices", "selectedDate", "selectedTime", "customerInfo", "agreedToTerms"} {
		assert.Contains(t, verr.Fields, key)
	}
	assert.NoError(t, ValidateComplete(reviewReadyState()))

	bad := reviewReadyState()
	bad.CustomerInfo.Email = "not-an-email"
	require.ErrorAs(t, ValidateComplete(bad), &verr)
	assert.Contains(t, verr.Fields, "customerInfo.email")
}
