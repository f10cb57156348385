package application

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/example/studio-booking/internal/scheduler"
)

var studioZone = time.FixedZone("IST", 5*60*60+30*60)

func newTestLedger(store *bookingStoreStub, refunder *refunderStub, now time.Time, suffixes ...string) *Ledger {
	var suffix func() string
	if len(suffixes) > 0 {
		suffix = sequence(suffixes...)
	}
	if refunder == nil {
		return NewLedgerWithLogger(store, scheduler.NewCancellationPolicy(studioZone), nil, fixedNow(now), suffix, discardLogger())
	}
	return NewLedgerWithLogger(store, scheduler.NewCancellationPolicy(studioZone), refunder, fixedNow(now), suffix, discardLogger())
}

func sampleDraft(date, start, end string) BookingDraft {
	return BookingDraft{
		Occasion:         "Birthday Celebration",
		PackageID:        "pkg-999",
		Package:          "PACKAGE 999 (1 HR)",
		AmountMinorUnits: 99900,
		Name:             "Asha Rao",
		Mobile:           "9876543210",
		Email:            "asha@example.com",
		Date:             date,
		SlotStart:        start,
		SlotEnd:          end,
		PaymentReference: "pay_1",
	}
}

func TestLedger_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 10, 0, 0, 0, studioZone)

	t.Run("assigns a KKR identifier and confirms", func(t *testing.T) {
		t.Parallel()

		store := &bookingStoreStub{}
		ledger := newTestLedger(store, nil, now)

		booking, err := ledger.Create(context.Background(), sampleDraft("2024-06-12", "14:00", "15:00"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if !regexp.MustCompile(`^KKR\d{8}[0-9A-Z]{3}$`).MatchString(booking.ID) {
			t.Fatalf("unexpected booking id %q", booking.ID)
		}
		millis := strconv.FormatInt(now.UnixMilli(), 10)
		if booking.ID[3:11] != millis[len(millis)-8:] {
			t.Fatalf("expected timestamp digits %s in %s", millis[len(millis)-8:], booking.ID)
		}
		if booking.Status != BookingStatusConfirmed || !booking.CreatedAt.Equal(now) {
			t.Fatalf("unexpected booking %#v", booking)
		}
		if len(store.bookings) != 1 || store.bookings[0].ID != booking.ID {
			t.Fatalf("expected booking to be stored, got %#v", store.bookings)
		}
	})

	t.Run("rejects a slot already held", func(t *testing.T) {
		t.Parallel()

		store := &bookingStoreStub{bookings: []Booking{{ID: "KKR1", Date: "2024-06-12", SlotStart: "14:00", SlotEnd: "15:00", Status: BookingStatusConfirmed}}}
		ledger := newTestLedger(store, nil, now)

		_, err := ledger.Create(context.Background(), sampleDraft("2024-06-12", "14:00", "15:00"))
		if !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("expected ErrSlotUnavailable, got %v", err)
		}
		if len(store.bookings) != 1 {
			t.Fatalf("expected ledger to be unchanged")
		}
	})

	t.Run("reuses a slot freed by cancellation", func(t *testing.T) {
		t.Parallel()

		store := &bookingStoreStub{bookings: []Booking{{ID: "KKR1", Date: "2024-06-12", SlotStart: "14:00", SlotEnd: "15:00", Status: BookingStatusCancelledByUser}}}
		ledger := newTestLedger(store, nil, now)

		if _, err := ledger.Create(context.Background(), sampleDraft("2024-06-12", "14:00", "15:00")); err != nil {
			t.Fatalf("expected cancelled slot to be bookable, got %v", err)
		}
	})

	t.Run("regenerates colliding identifiers", func(t *testing.T) {
		t.Parallel()

		store := &bookingStoreStub{}
		ledger := newTestLedger(store, nil, now, "AAA", "AAA", "BBB")
		store.bookings = []Booking{{ID: ledger.NewBookingID(now), Date: "2024-06-01", SlotStart: "08:00", SlotEnd: "09:00"}}

		booking, err := ledger.Create(context.Background(), sampleDraft("2024-06-12", "14:00", "15:00"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if booking.ID[len(booking.ID)-3:] != "BBB" {
			t.Fatalf("expected regenerated suffix, got %s", booking.ID)
		}
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		t.Parallel()

		store := &bookingStoreStub{}
		ledger := NewLedgerWithLogger(store, scheduler.NewCancellationPolicy(studioZone), nil, fixedNow(now), func() string { return "AAA" }, discardLogger())
		store.bookings = []Booking{{ID: ledger.NewBookingID(now), Date: "2024-06-01", SlotStart: "08:00", SlotEnd: "09:00"}}

		_, err := ledger.Create(context.Background(), sampleDraft("2024-06-12", "14:00", "15:00"))
		if !errors.Is(err, ErrDuplicateIdentifier) {
			t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
		}
	})

	t.Run("rejects drafts without a date or slot", func(t *testing.T) {
		t.Parallel()

		ledger := newTestLedger(&bookingStoreStub{}, nil, now)
		if _, err := ledger.Create(context.Background(), sampleDraft("", "14:00", "15:00")); !errors.Is(err, ErrIncompleteBookingData) {
			t.Fatalf("expected ErrIncompleteBookingData, got %v", err)
		}
	})
}

func TestLedger_Listing(t *testing.T) {
	t.Parallel()

	store := &bookingStoreStub{bookings: []Booking{
		{ID: "KKR1", Email: "Asha@Example.com", Date: "2024-06-12", SlotStart: "08:00", SlotEnd: "09:00"},
		{ID: "KKR2", Email: "ravi@example.com", Date: "2024-06-12", SlotStart: "09:00", SlotEnd: "10:00"},
		{ID: "KKR3", Email: "asha@example.com", Date: "2024-06-13", SlotStart: "10:00", SlotEnd: "11:00", Status: BookingStatusCancelled},
	}}
	ledger := newTestLedger(store, nil, time.Now())

	mine, err := ledger.ListByOwner(context.Background(), "ASHA@example.com")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "KKR3" || mine[1].ID != "KKR1" {
		t.Fatalf("expected owner bookings newest first, got %#v", mine)
	}

	none, err := ledger.ListByOwner(context.Background(), "")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no bookings for blank email, got %#v (%v)", none, err)
	}

	all, err := ledger.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "KKR3" || all[2].ID != "KKR1" {
		t.Fatalf("expected all bookings newest first, got %#v", all)
	}

	date, _ := scheduler.ParseDate("2024-06-12")
	slots, err := ledger.BookedSlots(context.Background(), date)
	if err != nil || len(slots) != 2 {
		t.Fatalf("expected two booked slots on the date, got %#v (%v)", slots, err)
	}

	if _, err := ledger.Get(context.Background(), "KKR404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := ledger.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if store.cleared != 1 || len(store.bookings) != 0 {
		t.Fatalf("expected ledger to be cleared")
	}
}

func TestLedger_CancelByOwner(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 10, 0, 0, 0, studioZone)
	seed := func() *bookingStoreStub {
		return &bookingStoreStub{bookings: []Booking{
			{ID: "open", Email: "asha@example.com", Date: "2024-06-10", SlotStart: "14:00", SlotEnd: "15:00", Status: BookingStatusConfirmed},
			{ID: "edge", Email: "asha@example.com", Date: "2024-06-10", SlotStart: "13:00", SlotEnd: "14:00", Status: BookingStatusConfirmed},
			{ID: "late", Email: "asha@example.com", Date: "2024-06-10", SlotStart: "12:00", SlotEnd: "13:00", Status: BookingStatusConfirmed},
			{ID: "done", Email: "asha@example.com", Date: "2024-06-11", SlotStart: "12:00", SlotEnd: "13:00", Status: BookingStatusCancelledByUser},
			{ID: "bare", Email: "asha@example.com"},
		}}
	}

	t.Run("cancels inside the window", func(t *testing.T) {
		t.Parallel()

		store := seed()
		ledger := newTestLedger(store, nil, now)

		booking, err := ledger.CancelByOwner(context.Background(), "open", "ASHA@example.com", " change of plans ")
		if err != nil {
			t.Fatalf("CancelByOwner failed: %v", err)
		}
		if booking.Status != BookingStatusCancelledByUser || booking.CancelReason != "change of plans" {
			t.Fatalf("unexpected booking %#v", booking)
		}
		if booking.CancelledAt == nil || !booking.CancelledAt.Equal(now) {
			t.Fatalf("expected cancellation timestamp")
		}
		if store.bookings[0].Status != BookingStatusCancelledByUser {
			t.Fatalf("expected stored booking to be cancelled")
		}
	})

	t.Run("allows cancelling exactly at the cutoff", func(t *testing.T) {
		t.Parallel()

		ledger := newTestLedger(seed(), nil, now)
		if _, err := ledger.CancelByOwner(context.Background(), "edge", "asha@example.com", "sick"); err != nil {
			t.Fatalf("expected cancellation at cutoff, got %v", err)
		}
	})

	cases := []struct {
		name   string
		id     string
		email  string
		reason string
		want   error
	}{
		{name: "after the cutoff", id: "late", email: "asha@example.com", reason: "sick", want: ErrPolicyViolation},
		{name: "twice", id: "done", email: "asha@example.com", reason: "sick", want: ErrAlreadyCancelled},
		{name: "unknown booking", id: "missing", email: "asha@example.com", reason: "sick", want: ErrNotFound},
		{name: "someone else's booking", id: "open", email: "ravi@example.com", reason: "sick", want: ErrUnauthorized},
		{name: "missing slot data", id: "bare", email: "asha@example.com", reason: "sick", want: ErrIncompleteBookingData},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := seed()
			ledger := newTestLedger(store, nil, now)
			if _, err := ledger.CancelByOwner(context.Background(), tc.id, tc.email, tc.reason); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("requires a reason", func(t *testing.T) {
		t.Parallel()

		ledger := newTestLedger(seed(), nil, now)
		_, err := ledger.CancelByOwner(context.Background(), "open", "asha@example.com", "  ")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["reason"] == "" {
			t.Fatalf("expected reason validation error, got %v", err)
		}
	})
}

func TestLedger_CancelByAdmin(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 13, 30, 0, 0, studioZone)
	seed := func() *bookingStoreStub {
		return &bookingStoreStub{bookings: []Booking{
			{ID: "KKR1", Email: "asha@example.com", AmountMinorUnits: 99900, PaymentReference: "pay_1", Date: "2024-06-10", SlotStart: "14:00", SlotEnd: "15:00", Status: BookingStatusConfirmed},
		}}
	}

	t.Run("commits and confirms the refund", func(t *testing.T) {
		t.Parallel()

		store := seed()
		refunder := &refunderStub{}
		ledger := newTestLedger(store, refunder, now)

		result, err := ledger.CancelByAdmin(context.Background(), "KKR1", " double booked ", 50000)
		if err != nil {
			t.Fatalf("CancelByAdmin failed: %v", err)
		}
		if result.RefundOutcome != RefundOutcomeConfirmed {
			t.Fatalf("expected confirmed refund, got %q", result.RefundOutcome)
		}
		if result.Booking.Status != BookingStatusCancelled || result.Booking.CancelNote != "double booked" {
			t.Fatalf("unexpected booking %#v", result.Booking)
		}
		if result.Booking.RefundAmount == nil || *result.Booking.RefundAmount != 50000 {
			t.Fatalf("expected refund amount to be recorded")
		}
		if len(refunder.requests) != 1 || refunder.requests[0].PaymentReference != "pay_1" || refunder.requests[0].AmountMinorUnits != 50000 {
			t.Fatalf("unexpected refund requests %#v", refunder.requests)
		}
	})

	t.Run("keeps the cancellation when the refund fails", func(t *testing.T) {
		t.Parallel()

		store := seed()
		ledger := newTestLedger(store, &refunderStub{err: errStubFailure}, now)

		result, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", 99900)
		if err != nil {
			t.Fatalf("CancelByAdmin failed: %v", err)
		}
		if result.RefundOutcome != RefundOutcomeNotConfirmed || result.RefundError == "" {
			t.Fatalf("expected unconfirmed refund, got %#v", result)
		}
		if store.bookings[0].Status != BookingStatusCancelled {
			t.Fatalf("expected cancellation to be committed")
		}
	})

	t.Run("simulates refunds without a refunder", func(t *testing.T) {
		t.Parallel()

		ledger := newTestLedger(seed(), nil, now)
		result, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", 100)
		if err != nil || result.RefundOutcome != RefundOutcomeSimulated {
			t.Fatalf("expected simulated refund, got %#v (%v)", result, err)
		}
	})

	t.Run("skips the refund for zero amounts", func(t *testing.T) {
		t.Parallel()

		refunder := &refunderStub{}
		ledger := newTestLedger(seed(), refunder, now)
		result, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", 0)
		if err != nil || result.RefundOutcome != RefundOutcomeNotRequested || len(refunder.requests) != 0 {
			t.Fatalf("expected no refund, got %#v (%v)", result, err)
		}
	})

	t.Run("rejects refunds outside the paid amount", func(t *testing.T) {
		t.Parallel()

		store := seed()
		ledger := newTestLedger(store, nil, now)
		for _, amount := range []int64{-1, 99901} {
			_, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", amount)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors["refundAmount"] == "" {
				t.Fatalf("amount %d: expected refundAmount validation error, got %v", amount, err)
			}
		}
		if store.bookings[0].IsCancelled() {
			t.Fatalf("expected booking to remain confirmed")
		}
	})

	t.Run("second cancellation keeps the first refund", func(t *testing.T) {
		t.Parallel()

		store := seed()
		ledger := newTestLedger(store, nil, now)
		if _, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", 300); err != nil {
			t.Fatalf("first CancelByAdmin failed: %v", err)
		}
		if _, err := ledger.CancelByAdmin(context.Background(), "KKR1", "", 900); !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
		}
		if *store.bookings[0].RefundAmount != 300 {
			t.Fatalf("expected first refund amount to be preserved, got %d", *store.bookings[0].RefundAmount)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		t.Parallel()

		ledger := newTestLedger(seed(), nil, now)
		if _, err := ledger.CancelByAdmin(context.Background(), "nope", "", 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
