package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/example/studio-booking/internal/payment"
	"github.com/example/studio-booking/internal/scheduler"
)

const (
	bookingIDPrefix    = "KKR"
	bookingIDDigits    = 8
	bookingSuffixChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	bookingSuffixLen   = 3
	// maxBookingIDAttempts bounds identifier regeneration on collision.
	maxBookingIDAttempts = 5
)

// Ledger is the booking ledger: creation, lookup and status transitions.
type Ledger struct {
	store    BookingStore
	policy   scheduler.CancellationPolicy
	refunder payment.Refunder
	now      func() time.Time
	suffix   func() string
	logger   *slog.Logger
}

// NewLedger constructs a Ledger. refunder may be nil, in which case admin
// refunds are simulated.
func NewLedger(store BookingStore, policy scheduler.CancellationPolicy, refunder payment.Refunder, now func() time.Time, suffix func() string) *Ledger {
	return NewLedgerWithLogger(store, policy, refunder, now, suffix, nil)
}

// NewLedgerWithLogger constructs a Ledger with a specified logger.
func NewLedgerWithLogger(store BookingStore, policy scheduler.CancellationPolicy, refunder payment.Refunder, now func() time.Time, suffix func() string, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	if suffix == nil {
		suffix = randomBookingSuffix
	}
	return &Ledger{
		store:    store,
		policy:   policy,
		refunder: refunder,
		now:      now,
		suffix:   suffix,
		logger:   defaultLogger(logger),
	}
}

func (l *Ledger) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, l.logger, "Ledger", operation, attrs...)
}

// NewBookingID returns KKR, the last eight digits of the millisecond
// timestamp and a three character base36 suffix.
func (l *Ledger) NewBookingID(at time.Time) string {
	digits := strconv.FormatInt(at.UnixMilli(), 10)
	if len(digits) > bookingIDDigits {
		digits = digits[len(digits)-bookingIDDigits:]
	}
	return bookingIDPrefix + digits + l.suffix()
}

// Create assigns an identifier and records a confirmed booking. It fails with
// ErrSlotUnavailable when a confirmed booking already holds the same slot.
func (l *Ledger) Create(ctx context.Context, draft BookingDraft) (booking Booking, err error) {
	if l == nil || l.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := l.loggerWith(ctx, "Create", "date", draft.Date, "slot_start", draft.SlotStart, "slot_end", draft.SlotEnd)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking not recorded", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking recorded")
	}()

	candidate, err := bookedSlotFromFields("", draft.Date, draft.SlotStart, draft.SlotEnd, false)
	if err != nil {
		return
	}

	now := l.now()
	err = l.mutate(ctx, func(bookings []Booking) ([]Booking, error) {
		existing := make([]scheduler.BookedSlot, 0, len(bookings))
		for _, b := range bookings {
			if slot, slotErr := bookedSlotFromBooking(b); slotErr == nil {
				existing = append(existing, slot)
			}
		}
		if conflicts := scheduler.DetectConflicts(existing, candidate); len(conflicts) > 0 {
			return nil, fmt.Errorf("%w: held by %s", ErrSlotUnavailable, conflicts[0].WithBookingID)
		}

		id, idErr := l.uniqueID(bookings, now)
		if idErr != nil {
			return nil, idErr
		}

		booking = Booking{
			ID:               id,
			Occasion:         draft.Occasion,
			PackageID:        draft.PackageID,
			Package:          draft.Package,
			AmountMinorUnits: draft.AmountMinorUnits,
			Name:             draft.Name,
			Mobile:           draft.Mobile,
			Email:            draft.Email,
			Date:             draft.Date,
			SlotStart:        draft.SlotStart,
			SlotEnd:          draft.SlotEnd,
			CreatedAt:        now,
			PaymentReference: draft.PaymentReference,
			Status:           BookingStatusConfirmed,
		}
		return append(bookings, booking), nil
	})
	return
}

func (l *Ledger) uniqueID(bookings []Booking, now time.Time) (string, error) {
	taken := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		taken[b.ID] = struct{}{}
	}
	for attempt := 0; attempt < maxBookingIDAttempts; attempt++ {
		id := l.NewBookingID(now)
		if _, exists := taken[id]; !exists {
			return id, nil
		}
	}
	return "", ErrDuplicateIdentifier
}

// Get returns a booking by id.
func (l *Ledger) Get(ctx context.Context, id string) (Booking, error) {
	bookings, err := l.store.ListBookings(ctx)
	if err != nil {
		return Booking{}, err
	}
	for _, b := range bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return Booking{}, ErrNotFound
}

// ListByOwner returns the bookings whose email matches, newest first.
func (l *Ledger) ListByOwner(ctx context.Context, email string) ([]Booking, error) {
	bookings, err := l.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	mine := make([]Booking, 0)
	for i := len(bookings) - 1; i >= 0; i-- {
		if email != "" && strings.EqualFold(bookings[i].Email, email) {
			mine = append(mine, bookings[i])
		}
	}
	return mine, nil
}

// ListAll returns every booking, newest first.
func (l *Ledger) ListAll(ctx context.Context) ([]Booking, error) {
	bookings, err := l.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Booking, 0, len(bookings))
	for i := len(bookings) - 1; i >= 0; i-- {
		out = append(out, bookings[i])
	}
	return out, nil
}

// BookedSlots returns the scheduling view of every booking on date.
func (l *Ledger) BookedSlots(ctx context.Context, date scheduler.Date) ([]scheduler.BookedSlot, error) {
	bookings, err := l.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	slots := make([]scheduler.BookedSlot, 0)
	for _, b := range bookings {
		slot, slotErr := bookedSlotFromBooking(b)
		if slotErr != nil || slot.Date != date {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// CancelByOwner applies a self-service cancellation. ownerEmail must match the
// booking's email.
func (l *Ledger) CancelByOwner(ctx context.Context, id, ownerEmail, reason string) (booking Booking, err error) {
	logger := l.loggerWith(ctx, "CancelByOwner", "booking_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "self cancellation rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled by owner")
	}()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		err = newValidationError("reason", "is required")
		return
	}

	now := l.now()
	err = l.mutate(ctx, func(bookings []Booking) ([]Booking, error) {
		index := indexOfBooking(bookings, id)
		if index < 0 {
			return nil, ErrNotFound
		}
		target := bookings[index]
		if !strings.EqualFold(target.Email, strings.TrimSpace(ownerEmail)) {
			return nil, ErrUnauthorized
		}
		if target.IsCancelled() {
			return nil, ErrAlreadyCancelled
		}

		allowed, policyErr := l.policy.CanSelfCancel(target.Date, target.SlotStart, now)
		if policyErr != nil {
			if errors.Is(policyErr, scheduler.ErrIncompleteBookingData) {
				return nil, fmt.Errorf("%w: %v", ErrIncompleteBookingData, policyErr)
			}
			return nil, policyErr
		}
		if !allowed {
			return nil, ErrPolicyViolation
		}

		cancelledAt := now
		target.Status = BookingStatusCancelledByUser
		target.CancelReason = reason
		target.CancelledAt = &cancelledAt
		bookings[index] = target
		booking = target
		return bookings, nil
	})
	return
}

// CancelByAdmin cancels a booking regardless of the cutoff, commits that
// locally and then attempts the refund. A failed or unavailable refund does
// not undo the cancellation; it is reported in the result instead.
func (l *Ledger) CancelByAdmin(ctx context.Context, id, note string, refundMinorUnits int64) (result AdminCancelResult, err error) {
	logger := l.loggerWith(ctx, "CancelByAdmin", "booking_id", id, "refund_minor_units", refundMinorUnits)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin cancellation rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("refund_outcome", result.RefundOutcome).InfoContext(ctx, "booking cancelled by admin")
	}()

	if refundMinorUnits < 0 {
		err = newValidationError("refundAmount", "must not be negative")
		return
	}

	now := l.now()
	var booking Booking
	err = l.mutate(ctx, func(bookings []Booking) ([]Booking, error) {
		index := indexOfBooking(bookings, id)
		if index < 0 {
			return nil, ErrNotFound
		}
		target := bookings[index]
		if target.IsCancelled() {
			return nil, ErrAlreadyCancelled
		}
		if target.AmountMinorUnits > 0 && refundMinorUnits > target.AmountMinorUnits {
			return nil, newValidationError("refundAmount", fmt.Sprintf("must not exceed %d", target.AmountMinorUnits))
		}

		cancelledAt := now
		refund := refundMinorUnits
		target.Status = BookingStatusCancelled
		target.CancelNote = strings.TrimSpace(note)
		target.CancelledAt = &cancelledAt
		target.RefundAmount = &refund
		bookings[index] = target
		booking = target
		return bookings, nil
	})
	if err != nil {
		return
	}

	result = AdminCancelResult{Booking: booking}
	result.RefundOutcome, result.RefundError = l.refund(ctx, booking.PaymentReference, refundMinorUnits)
	return
}

// refund attempts a refund and reports its outcome without failing the caller.
func (l *Ledger) refund(ctx context.Context, reference string, amount int64) (string, string) {
	switch {
	case amount <= 0:
		return RefundOutcomeNotRequested, ""
	case l.refunder == nil:
		return RefundOutcomeSimulated, ""
	case strings.TrimSpace(reference) == "":
		return RefundOutcomeNotConfirmed, "booking has no payment reference"
	}

	err := l.refunder.Refund(ctx, payment.RefundRequest{PaymentReference: reference, AmountMinorUnits: amount})
	if err != nil {
		l.loggerWith(ctx, "Refund", "payment_reference", reference).WarnContext(ctx, "refund not confirmed", "error", err)
		return RefundOutcomeNotConfirmed, err.Error()
	}
	return RefundOutcomeConfirmed, ""
}

// ClearAll removes every booking. Irreversible.
func (l *Ledger) ClearAll(ctx context.Context) error {
	logger := l.loggerWith(ctx, "ClearAll")
	if err := l.store.ClearBookings(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to clear ledger", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.WarnContext(ctx, "ledger cleared")
	return nil
}

func (l *Ledger) mutate(ctx context.Context, fn func([]Booking) ([]Booking, error)) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("booking store not configured")
	}
	return l.store.UpdateBookings(ctx, fn)
}

func indexOfBooking(bookings []Booking, id string) int {
	for i, b := range bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func bookedSlotFromBooking(b Booking) (scheduler.BookedSlot, error) {
	return bookedSlotFromFields(b.ID, b.Date, b.SlotStart, b.SlotEnd, b.IsCancelled())
}

func bookedSlotFromFields(id, date, start, end string, cancelled bool) (scheduler.BookedSlot, error) {
	day, err := scheduler.ParseDate(date)
	if err != nil {
		return scheduler.BookedSlot{}, fmt.Errorf("%w: %v", ErrIncompleteBookingData, err)
	}
	startAt, err := scheduler.ParseClockTime(start)
	if err != nil {
		return scheduler.BookedSlot{}, fmt.Errorf("%w: %v", ErrIncompleteBookingData, err)
	}
	endAt, err := scheduler.ParseClockTime(end)
	if err != nil {
		return scheduler.BookedSlot{}, fmt.Errorf("%w: %v", ErrIncompleteBookingData, err)
	}
	return scheduler.BookedSlot{BookingID: id, Date: day, Start: startAt, End: endAt, Cancelled: cancelled}, nil
}

func randomBookingSuffix() string {
	var b strings.Builder
	max := big.NewInt(int64(len(bookingSuffixChars)))
	for i := 0; i < bookingSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(bookingSuffixChars[i])
			continue
		}
		b.WriteByte(bookingSuffixChars[n.Int64()])
	}
	return b.String()
}
