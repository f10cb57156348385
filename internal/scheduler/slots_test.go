package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestPlannerOfferFutureDate(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	now := time.Date(2024, time.May, 30, 12, 0, 0, 0, time.UTC)

	offers, err := planner.Offer(date, 1, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 13 {
		t.Fatalf("expected 13 offers, got %d", len(offers))
	}
	if offers[0].Start.String() != "08:00" || offers[0].End.String() != "09:00" {
		t.Fatalf("unexpected first offer %+v", offers[0])
	}
	last := offers[len(offers)-1]
	if last.Start.String() != "20:00" || last.End.String() != "21:00" {
		t.Fatalf("unexpected last offer %+v", last)
	}
	for i, offer := range offers {
		if offer.Locked {
			t.Fatalf("offer %d unexpectedly locked", i)
		}
		if i > 0 && offers[i-1].Start >= offer.Start {
			t.Fatalf("offers not ascending at %d", i)
		}
	}
}

func TestPlannerOfferLocksExactMatches(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	other := Date{Year: 2024, Month: time.June, Day: 2}
	now := time.Date(2024, time.May, 30, 12, 0, 0, 0, time.UTC)

	booked := []BookedSlot{
		{BookingID: "KKR1", Date: date, Start: MustClockTime("10:00"), End: MustClockTime("12:00")},
		{BookingID: "KKR2", Date: date, Start: MustClockTime("14:00"), End: MustClockTime("16:00"), Cancelled: true},
		{BookingID: "KKR3", Date: other, Start: MustClockTime("16:00"), End: MustClockTime("18:00")},
		{BookingID: "KKR4", Date: date, Start: MustClockTime("18:00"), End: MustClockTime("19:00")},
	}

	offers, err := planner.Offer(date, 2, booked, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locked := map[string]bool{}
	for _, offer := range offers {
		locked[offer.Start.String()] = offer.Locked
	}
	if !locked["10:00"] {
		t.Fatalf("expected 10:00 locked")
	}
	if locked["14:00"] {
		t.Fatalf("cancelled booking must not lock 14:00")
	}
	if locked["16:00"] {
		t.Fatalf("booking on another date must not lock 16:00")
	}
	if locked["18:00"] {
		t.Fatalf("booking with a different end must not lock 18:00")
	}
}

func TestPlannerOfferDropsElapsedStartsToday(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IST", 5*3600+1800)
	planner := NewPlanner(loc)
	date := Date{Year: 2024, Month: time.June, Day: 1}

	tests := []struct {
		name      string
		now       time.Time
		wantFirst string
		wantCount int
	}{
		{name: "mid hour", now: time.Date(2024, time.June, 1, 10, 30, 0, 0, loc), wantFirst: "11:00", wantCount: 10},
		{name: "exactly on start", now: time.Date(2024, time.June, 1, 11, 0, 0, 0, loc), wantFirst: "12:00", wantCount: 9},
		{name: "before opening", now: time.Date(2024, time.June, 1, 6, 0, 0, 0, loc), wantFirst: "08:00", wantCount: 13},
		{name: "same instant in utc", now: time.Date(2024, time.June, 1, 5, 0, 0, 0, time.UTC), wantFirst: "11:00", wantCount: 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offers, err := planner.Offer(date, 1, nil, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(offers) != tt.wantCount {
				t.Fatalf("expected %d offers, got %d", tt.wantCount, len(offers))
			}
			if offers[0].Start.String() != tt.wantFirst {
				t.Fatalf("expected first %s, got %s", tt.wantFirst, offers[0].Start)
			}
		})
	}
}

func TestPlannerOfferEveningClosesDay(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	now := time.Date(2024, time.June, 1, 21, 0, 0, 0, time.UTC)

	offers, err := planner.Offer(date, 1, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 0 {
		t.Fatalf("expected no offers, got %d", len(offers))
	}
}

func TestPlannerOfferDropsEndsPastMidnight(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	now := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	offers, err := planner.Offer(date, 5, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := offers[len(offers)-1]
	if last.Start.String() != "19:00" || last.End.String() != "24:00" {
		t.Fatalf("unexpected last offer %+v", last)
	}
	for _, offer := range offers {
		if offer.End > MinutesPerDay {
			t.Fatalf("offer %+v ends past midnight", offer)
		}
	}
}

func TestPlannerOfferRejectsInvalidDuration(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	for _, hours := range []int{0, -1, MaxSlotHours + 1} {
		if _, err := planner.Offer(date, hours, nil, time.Now()); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("hours %d: expected ErrInvalidDuration, got %v", hours, err)
		}
	}
}

func TestPlannerOfferMonotonicInNow(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(time.UTC)
	date := Date{Year: 2024, Month: time.June, Day: 1}
	earlier := time.Date(2024, time.June, 1, 9, 15, 0, 0, time.UTC)
	later := earlier.Add(4 * time.Hour)

	before, err := planner.Offer(date, 1, nil, earlier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := planner.Offer(date, 1, nil, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(after) > len(before) {
		t.Fatalf("later now produced more offers: %d > %d", len(after), len(before))
	}
	for _, offer := range after {
		if _, ok := Find(before, offer.Start); !ok {
			t.Fatalf("offer %s missing from earlier result", offer.Start)
		}
	}
}

func TestNewPlannerWithStartsSorts(t *testing.T) {
	t.Parallel()

	planner := NewPlannerWithStarts([]ClockTime{MustClockTime("15:00"), MustClockTime("09:00")}, nil)
	offers, err := planner.Offer(Date{Year: 2030, Month: time.January, Day: 1}, 1, nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 || offers[0].Start.String() != "09:00" {
		t.Fatalf("unexpected offers %+v", offers)
	}
}
