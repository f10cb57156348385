package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-booking/internal/catalog"
	"github.com/example/studio-booking/internal/payment"
	"github.com/example/studio-booking/internal/scheduler"
)

// BookingService drives the customer booking flow from package selection to ticket.
type BookingService struct {
	ledger     *Ledger
	selections SelectionStore
	gateway    payment.Gateway
	refunder   payment.Refunder
	planner    *scheduler.Planner
	now        func() time.Time
	logger     *slog.Logger
}

// NewBookingService constructs a BookingService with the provided dependencies.
func NewBookingService(ledger *Ledger, selections SelectionStore, gateway payment.Gateway, refunder payment.Refunder, planner *scheduler.Planner, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(ledger, selections, gateway, refunder, planner, now, nil)
}

// NewBookingServiceWithLogger constructs a BookingService with a specified logger.
func NewBookingServiceWithLogger(ledger *Ledger, selections SelectionStore, gateway payment.Gateway, refunder payment.Refunder, planner *scheduler.Planner, now func() time.Time, logger *slog.Logger) *BookingService {
	if now == nil {
		now = time.Now
	}
	if planner == nil {
		planner = scheduler.NewPlanner(time.Local)
	}
	return &BookingService{
		ledger:     ledger,
		selections: selections,
		gateway:    gateway,
		refunder:   refunder,
		planner:    planner,
		now:        now,
		logger:     defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// SelectPackage stores the occasion and package the customer is about to book.
func (s *BookingService) SelectPackage(ctx context.Context, params SelectPackageParams) (selection Selection, err error) {
	if s == nil || s.selections == nil {
		err = fmt.Errorf("selection store not configured")
		return
	}

	logger := s.loggerWith(ctx, "SelectPackage", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "package selection rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("package_id", selection.PackageID).InfoContext(ctx, "package selected")
	}()

	if err = requireCustomer(params.Principal); err != nil {
		return
	}

	vErr := validateStruct(params)
	if vErr == nil {
		vErr = &ValidationError{}
	}
	occasion, ok := catalog.CanonicalOccasion(params.Occasion)
	if !ok && strings.TrimSpace(params.Occasion) != "" {
		vErr.add("occasion", "is not a known occasion")
	}
	pkg, lookupErr := catalog.Lookup(params.Package)
	if lookupErr != nil && strings.TrimSpace(params.Package) != "" {
		vErr.add("package", "is not a known package")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	selection = Selection{
		Occasion:  occasion,
		PackageID: pkg.ID,
		Package:   pkg.Label,
		UpdatedAt: s.now(),
	}
	err = s.selections.PutSelection(ctx, params.Principal.UserID, selection)
	return
}

// CurrentSelection returns the stored selection for principal.
func (s *BookingService) CurrentSelection(ctx context.Context, principal Principal) (Selection, error) {
	if s == nil || s.selections == nil {
		return Selection{}, fmt.Errorf("selection store not configured")
	}
	if err := requireCustomer(principal); err != nil {
		return Selection{}, err
	}
	return s.selections.GetSelection(ctx, principal.UserID)
}

// OfferSlots lists the slots on a date for a package, marking taken ones locked.
func (s *BookingService) OfferSlots(ctx context.Context, params OfferSlotsParams) (offers SlotOffers, err error) {
	if s == nil || s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	logger := s.loggerWith(ctx, "OfferSlots", "date", params.Date, "package", params.Package)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "slot lookup rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	pkg, date, vErr := s.resolveSlotRequest(params.Package, params.Date)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var booked []scheduler.BookedSlot
	booked, err = s.ledger.BookedSlots(ctx, date)
	if err != nil {
		return
	}

	var planned []scheduler.SlotOffer
	planned, err = s.planner.Offer(date, pkg.SlotHours, booked, s.now())
	if err != nil {
		return
	}

	offers = SlotOffers{Date: date.String(), PackageID: pkg.ID, Hours: pkg.SlotHours, Slots: make([]SlotOffer, 0, len(planned))}
	for _, offer := range planned {
		offers.Slots = append(offers.Slots, SlotOffer{Start: offer.Start.String(), End: offer.End.String(), Locked: offer.Locked})
	}
	return
}

// resolveSlotRequest looks up the package and parses the date, rejecting dates
// before today in the studio time zone.
func (s *BookingService) resolveSlotRequest(pkgRef, dateValue string) (catalog.Package, scheduler.Date, *ValidationError) {
	vErr := &ValidationError{}

	pkg, err := catalog.Lookup(pkgRef)
	if err != nil {
		if strings.TrimSpace(pkgRef) == "" {
			vErr.add("package", "is required")
		} else {
			vErr.add("package", "is not a known package")
		}
	}

	var date scheduler.Date
	if strings.TrimSpace(dateValue) == "" {
		vErr.add("date", "is required")
	} else if date, err = scheduler.ParseDate(dateValue); err != nil {
		vErr.add("date", "must be formatted as YYYY-MM-DD")
	} else if date.Before(scheduler.DateOf(s.now().In(s.planner.Location()))) {
		vErr.add("date", "must not be in the past")
	}
	return pkg, date, vErr
}

// Checkout validates the contact form, confirms the slot is still free, takes
// payment and records the booking. A declined or dismissed payment is reported
// in the result with a nil error.
func (s *BookingService) Checkout(ctx context.Context, params CheckoutParams) (result CheckoutResult, err error) {
	if s == nil || s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	logger := s.loggerWith(ctx, "Checkout", "user_id", params.Principal.UserID, "date", params.Date, "slot_start", params.SlotStart)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "checkout failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !result.Paid {
			logger.WarnContext(ctx, "payment not completed", "reason", result.FailureReason)
			return
		}
		logger.With("booking_id", result.Booking.ID).InfoContext(ctx, "checkout completed")
	}()

	if err = requireCustomer(params.Principal); err != nil {
		return
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Mobile = strings.TrimSpace(params.Mobile)
	params.Date = strings.TrimSpace(params.Date)
	params.SlotStart = strings.TrimSpace(params.SlotStart)

	if strings.TrimSpace(params.Occasion) == "" || strings.TrimSpace(params.Package) == "" {
		if s.selections != nil {
			if selection, selErr := s.selections.GetSelection(ctx, params.Principal.UserID); selErr == nil {
				if strings.TrimSpace(params.Occasion) == "" {
					params.Occasion = selection.Occasion
				}
				if strings.TrimSpace(params.Package) == "" {
					params.Package = selection.PackageID
				}
			} else if !errors.Is(selErr, ErrNotFound) {
				err = selErr
				return
			}
		}
	}

	vErr := validateStruct(params)
	if vErr == nil {
		vErr = &ValidationError{}
	}
	occasion, ok := catalog.CanonicalOccasion(params.Occasion)
	if !ok {
		if strings.TrimSpace(params.Occasion) == "" {
			vErr.add("occasion", "is required")
		} else {
			vErr.add("occasion", "is not a known occasion")
		}
	}
	pkg, date, slotErr := s.resolveSlotRequest(params.Package, params.Date)
	vErr.merge(slotErr)
	var start scheduler.ClockTime
	if params.SlotStart != "" {
		if start, err = scheduler.ParseClockTime(params.SlotStart); err != nil {
			err = nil
			vErr.add("slotStart", "must be formatted as HH:MM")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var booked []scheduler.BookedSlot
	booked, err = s.ledger.BookedSlots(ctx, date)
	if err != nil {
		return
	}
	var planned []scheduler.SlotOffer
	planned, err = s.planner.Offer(date, pkg.SlotHours, booked, s.now())
	if err != nil {
		return
	}
	offer, offered := scheduler.Find(planned, start)
	if !offered || offer.Locked {
		err = ErrSlotUnavailable
		return
	}

	if s.gateway == nil {
		err = ErrGatewayUnavailable
		return
	}

	payer := payment.Payer{Name: params.Name, Email: params.Principal.Email, Mobile: params.Mobile}
	charge := payment.Charge{
		Occasion:         occasion,
		PackageID:        pkg.ID,
		PackageLabel:     pkg.Label,
		AmountMinorUnits: pkg.AmountMinorUnits,
		Currency:         catalog.Currency,
		PaymentToken:     params.PaymentToken,
	}

	var paid payment.Result
	paid, err = s.gateway.Initiate(ctx, payer, charge)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		return
	}
	if !paid.Success {
		result = CheckoutResult{Paid: false, FailureReason: paid.FailureReason}
		return
	}

	var booking Booking
	booking, err = s.ledger.Create(ctx, BookingDraft{
		Occasion:         occasion,
		PackageID:        pkg.ID,
		Package:          pkg.Label,
		AmountMinorUnits: pkg.AmountMinorUnits,
		Name:             params.Name,
		Mobile:           params.Mobile,
		Email:            params.Principal.Email,
		Date:             date.String(),
		SlotStart:        offer.Start.String(),
		SlotEnd:          offer.End.String(),
		PaymentReference: paid.Reference,
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			outcome, refundErr := s.refundRace(ctx, paid.Reference, pkg.AmountMinorUnits)
			logger.WarnContext(ctx, "slot taken after payment", "payment_reference", paid.Reference, "refund_outcome", outcome, "refund_error", refundErr)
		}
		return
	}

	if s.selections != nil {
		if clearErr := s.selections.ClearSelection(ctx, params.Principal.UserID); clearErr != nil && !errors.Is(clearErr, ErrNotFound) {
			logger.WarnContext(ctx, "failed to clear selection", "error", clearErr)
		}
	}

	result = CheckoutResult{Paid: true, Booking: &booking}
	return
}

func (s *BookingService) refundRace(ctx context.Context, reference string, amount int64) (string, string) {
	if s.refunder == nil {
		return RefundOutcomeSimulated, ""
	}
	if err := s.refunder.Refund(ctx, payment.RefundRequest{PaymentReference: reference, AmountMinorUnits: amount}); err != nil {
		return RefundOutcomeNotConfirmed, err.Error()
	}
	return RefundOutcomeConfirmed, ""
}

// ListMine returns the principal's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, principal Principal) ([]Booking, error) {
	if s == nil || s.ledger == nil {
		return nil, fmt.Errorf("booking ledger not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return s.ledger.ListByOwner(ctx, principal.Email)
}

// Ticket returns a single booking to its owner or to an admin.
func (s *BookingService) Ticket(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil || s.ledger == nil {
		return Booking{}, fmt.Errorf("booking ledger not configured")
	}
	if principal.UserID == "" {
		return Booking{}, ErrUnauthorized
	}
	booking, err := s.ledger.Get(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		return Booking{}, err
	}
	if !principal.IsAdmin && !strings.EqualFold(booking.Email, principal.Email) {
		return Booking{}, ErrUnauthorized
	}
	return booking, nil
}

// CancelMine cancels one of the principal's bookings while the window is open.
func (s *BookingService) CancelMine(ctx context.Context, params CancelBookingParams) (Booking, error) {
	if s == nil || s.ledger == nil {
		return Booking{}, fmt.Errorf("booking ledger not configured")
	}
	if err := requireCustomer(params.Principal); err != nil {
		return Booking{}, err
	}
	params.Reason = strings.TrimSpace(params.Reason)
	if vErr := validateStruct(params); vErr.HasErrors() {
		return Booking{}, vErr
	}
	return s.ledger.CancelByOwner(ctx, strings.TrimSpace(params.BookingID), params.Principal.Email, params.Reason)
}

func requireCustomer(principal Principal) error {
	if principal.UserID == "" || principal.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}

func requireAdmin(principal Principal) error {
	if principal.UserID == "" || !principal.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}
