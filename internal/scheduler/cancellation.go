package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CancellationWindow is how long before the event start self-cancellation closes.
const CancellationWindow = 3 * time.Hour

// ErrIncompleteBookingData is returned when a booking lacks the date or slot
// start needed to locate its event.
var ErrIncompleteBookingData = errors.New("scheduler: incomplete booking data")

// CancellationPolicy decides whether a customer may still cancel a booking.
type CancellationPolicy struct {
	Window   time.Duration
	Location *time.Location
}

// NewCancellationPolicy returns the standard three hour policy evaluated in loc.
func NewCancellationPolicy(loc *time.Location) CancellationPolicy {
	return CancellationPolicy{Window: CancellationWindow, Location: loc}
}

// EventStart resolves the absolute start of the booked event.
func (p CancellationPolicy) EventStart(date, slotStart string) (time.Time, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(slotStart) == "" {
		return time.Time{}, ErrIncompleteBookingData
	}
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrIncompleteBookingData, err)
	}
	start, err := ParseClockTime(slotStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrIncompleteBookingData, err)
	}
	return day.At(start, p.location()), nil
}

// Cutoff is the latest instant at which self-cancellation is permitted.
func (p CancellationPolicy) Cutoff(date, slotStart string) (time.Time, error) {
	start, err := p.EventStart(date, slotStart)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-p.window()), nil
}

// CanSelfCancel reports whether now is at or before the cutoff.
func (p CancellationPolicy) CanSelfCancel(date, slotStart string, now time.Time) (bool, error) {
	cutoff, err := p.Cutoff(date, slotStart)
	if err != nil {
		return false, err
	}
	return !now.After(cutoff), nil
}

func (p CancellationPolicy) window() time.Duration {
	if p.Window <= 0 {
		return CancellationWindow
	}
	return p.Window
}

func (p CancellationPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
