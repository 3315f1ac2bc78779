package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusConfirmed is the only status a successful confirmation carries today.
const StatusConfirmed = "confirmed"

// Confirmation is the outcome of creating a booking.
type Confirmation struct {
	ID            string    `json:"confirmationId"`
	Status        string    `json:"status"`
	Services      []string  `json:"services"`
	TotalPrice    float64   `json:"totalPrice"`
	TotalDuration int       `json:"totalDuration"`
	ScheduledDate string    `json:"scheduledDate"`
	ScheduledTime string    `json:"scheduledTime"`
	Technician    string    `json:"technician,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Confirmer creates the booking for a complete state. The simulated
// implementation stands where a real booking backend call belongs.
type Confirmer interface {
	Confirm(ctx context.Context, s State) (Confirmation, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, s State) (Confirmation, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, s State) (Confirmation, error) {
	return f(ctx, s)
}

// SimulatedConfirmer waits a fixed delay and reports success. Nothing is stored.
type SimulatedConfirmer struct {
	delay time.Duration
	now   func() time.Time
}

// NewSimulatedConfirmer creates a confirmer with the given latency.
func NewSimulatedConfirmer(delay time.Duration) *SimulatedConfirmer {
	return &SimulatedConfirmer{delay: delay, now: time.Now}
}

// Confirm blocks for the delay or until ctx is done.
func (c *SimulatedConfirmer) Confirm(ctx context.Context, s State) (Confirmation, error) {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Confirmation{}, ctx.Err()
		case <-timer.C:
		}
	}
	return newConfirmation(s, c.now().UTC()), nil
}

func newConfirmation(s State, at time.Time) Confirmation {
	names := make([]string, 0, len(s.SelectedServices))
	for _, svc := range s.SelectedServices {
		names = append(names, svc.ServiceName)
	}
	c := Confirmation{
		ID:            uuid.NewString(),
		Status:        StatusConfirmed,
		Services:      names,
		TotalPrice:    s.TotalPrice(),
		TotalDuration: s.TotalDuration(),
		CreatedAt:     at,
	}
	if s.SelectedDate != nil {
		c.ScheduledDate = *s.SelectedDate
	}
	if s.SelectedTime != nil {
		c.ScheduledTime = *s.SelectedTime
	}
	if s.SelectedTechnician != nil {
		c.Technician = s.SelectedTechnician.Name
	}
	return c
}
