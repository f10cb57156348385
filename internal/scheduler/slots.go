package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidDuration is returned when a slot length is outside the supported range.
var ErrInvalidDuration = errors.New("scheduler: invalid slot duration")

// MaxSlotHours bounds the slot length accepted by the planner.
const MaxSlotHours = 12

// DefaultStarts lists the hourly candidate start times offered each day.
var DefaultStarts = []ClockTime{
	MustClockTime("08:00"), MustClockTime("09:00"), MustClockTime("10:00"),
	MustClockTime("11:00"), MustClockTime("12:00"), MustClockTime("13:00"),
	MustClockTime("14:00"), MustClockTime("15:00"), MustClockTime("16:00"),
	MustClockTime("17:00"), MustClockTime("18:00"), MustClockTime("19:00"),
	MustClockTime("20:00"),
}

// BookedSlot is the scheduling view of an existing booking.
type BookedSlot struct {
	BookingID string
	Date      Date
	Start     ClockTime
	End       ClockTime
	Cancelled bool
}

// SlotOffer is a candidate slot presented to a customer.
type SlotOffer struct {
	Start  ClockTime
	End    ClockTime
	Locked bool
}

// Planner turns a date and slot length into the slots that can be offered.
type Planner struct {
	starts   []ClockTime
	location *time.Location
}

// NewPlanner returns a planner using the default hourly catalog in loc.
func NewPlanner(loc *time.Location) *Planner {
	return NewPlannerWithStarts(DefaultStarts, loc)
}

// NewPlannerWithStarts returns a planner offering the supplied start times.
func NewPlannerWithStarts(starts []ClockTime, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	cloned := make([]ClockTime, len(starts))
	copy(cloned, starts)
	return &Planner{starts: cloned, location: loc}
}

// Location returns the studio time zone the planner evaluates dates in.
func (p *Planner) Location() *time.Location {
	return p.location
}

// Offer lists the slots available on date for a booking lasting hours.
//
// Candidates whose end would pass midnight are not offered. When date is the
// current day relative to now, candidates that do not start strictly after
// now are dropped. A slot is locked when a non-cancelled booking on the same
// date holds exactly the same start and end. The result is ordered by start.
func (p *Planner) Offer(date Date, hours int, booked []BookedSlot, now time.Time) ([]SlotOffer, error) {
	if hours < 1 || hours > MaxSlotHours {
		return nil, fmt.Errorf("%w: %d hours", ErrInvalidDuration, hours)
	}
	if date.IsZero() {
		return nil, ErrInvalidDate
	}

	locked := lockedPairs(booked, date)
	today := DateOf(now.In(p.location)) == date

	offers := make([]SlotOffer, 0, len(p.starts))
	for _, start := range sortedStarts(p.starts) {
		end := start.AddHours(hours)
		if !end.Valid() {
			continue
		}
		if today && !date.At(start, p.location).After(now) {
			continue
		}
		_, isLocked := locked[slotKey{start: start, end: end}]
		offers = append(offers, SlotOffer{Start: start, End: end, Locked: isLocked})
	}
	return offers, nil
}

// Find returns the offer starting at start, if one is offered.
func Find(offers []SlotOffer, start ClockTime) (SlotOffer, bool) {
	for _, offer := range offers {
		if offer.Start == start {
			return offer, true
		}
	}
	return SlotOffer{}, false
}

type slotKey struct {
	start ClockTime
	end   ClockTime
}

func lockedPairs(booked []BookedSlot, date Date) map[slotKey]struct{} {
	locked := make(map[slotKey]struct{}, len(booked))
	for _, slot := range booked {
		if slot.Cancelled || slot.Date != date {
			continue
		}
		locked[slotKey{start: slot.Start, end: slot.End}] = struct{}{}
	}
	return locked
}

func sortedStarts(starts []ClockTime) []ClockTime {
	out := slices.Clone(starts)
	slices.Sort(out)
	return out
}
