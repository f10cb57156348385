package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClockTime is returned when a wall clock value is not HH:MM.
var ErrInvalidClockTime = errors.New("scheduler: invalid clock time")

// ErrInvalidDate is returned when a calendar date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("scheduler: invalid date")

// MinutesPerDay bounds ClockTime values; 24:00 marks the end of the day.
const MinutesPerDay = 24 * 60

const dateLayout = "2006-01-02"

// ClockTime is a wall clock time expressed as minutes after midnight.
type ClockTime int

// ParseClockTime parses an "HH:MM" value. "24:00" is accepted so that a slot
// may end exactly at midnight.
func ParseClockTime(value string) (ClockTime, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 5 || trimmed[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	hours, errH := strconv.Atoi(trimmed[:2])
	minutes, errM := strconv.Atoi(trimmed[3:])
	if errH != nil || errM != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// MustClockTime parses value and panics when it is malformed. Intended for
// package level tables.
func MustClockTime(value string) ClockTime {
	c, err := ParseClockTime(value)
	if err != nil {
		panic(err)
	}
	return c
}

// AddHours returns the clock time shifted by whole hours. The result is not
// wrapped at midnight.
func (c ClockTime) AddHours(hours int) ClockTime {
	return c + ClockTime(hours*60)
}

// Valid reports whether the value lies within a single day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// String renders the clock time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// At returns the instant the clock time occurs on this date in loc.
func (d Date) At(c ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, int(c)/60, int(c)%60, 0, 0, loc)
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
