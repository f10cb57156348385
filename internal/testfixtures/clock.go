package testfixtures

import (
	"sync"
	"time"
)

// StudioZone is the fixed UTC+05:30 zone fixtures use for studio dates. It
// avoids depending on the host's tz database.
var StudioZone = time.FixedZone("IST", 5*60*60+30*60)

// ReferenceTime is 10:00 studio time on Monday 2024-06-10.
func ReferenceTime() time.Time {
	return time.Date(2024, time.June, 10, 10, 0, 0, 0, StudioZone)
}

// At returns the studio-local instant for date ("YYYY-MM-DD") and clock
// ("HH:MM"). It panics on malformed input.
func At(date, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, StudioZone)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock is a manually driven time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for constructor injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Until moves the clock to the studio-local date and clock time.
func (c *Clock) Until(date, clock string) time.Time {
	t := At(date, clock)
	c.Set(t)
	return t
}
