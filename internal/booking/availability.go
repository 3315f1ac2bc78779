package booking

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	// DateLayout is the wire format for selected dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for slot labels, e.g. "9:30 AM".
	TimeLayout = "3:04 PM"
	// BookingWindowDays is how far ahead the date grid reaches, today included.
	BookingWindowDays = 30

	openingHour  = 9
	closingHour  = 19
	slotInterval = 30 * time.Minute
	// simulated share of open slots
	defaultAvailableRatio = 0.7
)

var slotTimes = buildSlotTimes()

func buildSlotTimes() []string {
	var out []string
	day := time.Date(2000, 1, 1, openingHour, 0, 0, 0, time.UTC)
	closing := time.Date(2000, 1, 1, closingHour, 0, 0, 0, time.UTC)
	for t := day; t.Before(closing); t = t.Add(slotInterval) {
		out = append(out, t.Format(TimeLayout))
	}
	return out
}

// SlotTimes returns the salon's bookable time labels in day order.
func SlotTimes() []string {
	return append([]string(nil), slotTimes...)
}

// IsSlotTime reports whether t is one of the salon's slot labels.
func IsSlotTime(t string) bool {
	for _, s := range slotTimes {
		if s == t {
			return true
		}
	}
	return false
}

// Slot is one time on the grid.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailabilityProvider answers which slots are open on a date (YYYY-MM-DD).
// A real scheduling backend replaces the simulated provider behind this
// interface; picking a new date still clears the selected time.
type AvailabilityProvider interface {
	GetAvailableSlots(ctx context.Context, date string) ([]Slot, error)
}

// RandomAvailability marks each slot open with a fixed probability on every
// call. It is a stand-in, not a schedule.
type RandomAvailability struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	ratio float64
}

// NewRandomAvailability seeds from src; nil uses the clock. Tests pass a
// fixed source.
func NewRandomAvailability(src rand.Source) *RandomAvailability {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &RandomAvailability{rnd: rand.New(src), ratio: defaultAvailableRatio}
}

// GetAvailableSlots regenerates availability for date.
func (r *RandomAvailability) GetAvailableSlots(ctx context.Context, date string) ([]Slot, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Slot, 0, len(slotTimes))
	for _, t := range slotTimes {
		out = append(out, Slot{Time: t, Available: r.rnd.Float64() < r.ratio})
	}
	return out, nil
}

// AvailabilityFunc adapts a function to AvailabilityProvider.
type AvailabilityFunc func(ctx context.Context, date string) ([]Slot, error)

func (f AvailabilityFunc) GetAvailableSlots(ctx context.Context, date string) ([]Slot, error) {
	return f(ctx, date)
}

// DateOption is one cell of the date grid.
type DateOption struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Day     int    `json:"day"`
	Month   string `json:"month"`
	IsToday bool   `json:"isToday"`
}

// BookingDates returns the next BookingWindowDays days starting from now's date.
func BookingDates(now time.Time) []DateOption {
	today := truncateDay(now)
	out := make([]DateOption, 0, BookingWindowDays)
	for i := 0; i < BookingWindowDays; i++ {
		d := today.AddDate(0, 0, i)
		out = append(out, DateOption{
			Date:    d.Format(DateLayout),
			Weekday: d.Weekday().String()[:3],
			Day:     d.Day(),
			Month:   d.Month().String()[:3],
			IsToday: i == 0,
		})
	}
	return out
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// InBookingWindow reports whether date falls on the grid generated at now.
func InBookingWindow(date string, now time.Time) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	today := truncateDay(now)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, today.Location())
	return !day.Before(today) && day.Before(today.AddDate(0, 0, BookingWindowDays))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
