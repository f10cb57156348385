package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// AdminService exposes the staff views over the ledger and login trail.
type AdminService struct {
	ledger *Ledger
	logins LoginLog
	logger *slog.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(ledger *Ledger, logins LoginLog) *AdminService {
	return NewAdminServiceWithLogger(ledger, logins, nil)
}

// NewAdminServiceWithLogger constructs an AdminService with a specified logger.
func NewAdminServiceWithLogger(ledger *Ledger, logins LoginLog, logger *slog.Logger) *AdminService {
	return &AdminService{ledger: ledger, logins: logins, logger: defaultLogger(logger)}
}

func (s *AdminService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdminService", operation, attrs...)
}

// ListBookings returns every booking, newest first.
func (s *AdminService) ListBookings(ctx context.Context, principal Principal) ([]Booking, error) {
	if s == nil || s.ledger == nil {
		return nil, fmt.Errorf("booking ledger not configured")
	}
	if err := requireAdmin(principal); err != nil {
		s.loggerWith(ctx, "ListBookings", "user_id", principal.UserID).WarnContext(ctx, "admin access denied", "error_kind", ErrorKind(err))
		return nil, err
	}
	return s.ledger.ListAll(ctx)
}

// CancelBooking cancels any booking and reports the refund outcome separately.
func (s *AdminService) CancelBooking(ctx context.Context, params AdminCancelParams) (AdminCancelResult, error) {
	if s == nil || s.ledger == nil {
		return AdminCancelResult{}, fmt.Errorf("booking ledger not configured")
	}
	if err := requireAdmin(params.Principal); err != nil {
		s.loggerWith(ctx, "CancelBooking", "user_id", params.Principal.UserID).WarnContext(ctx, "admin access denied", "error_kind", ErrorKind(err))
		return AdminCancelResult{}, err
	}
	return s.ledger.CancelByAdmin(ctx, strings.TrimSpace(params.BookingID), params.Note, params.RefundMinorUnits)
}

// ClearBookings deletes the entire ledger.
func (s *AdminService) ClearBookings(ctx context.Context, principal Principal) error {
	if s == nil || s.ledger == nil {
		return fmt.Errorf("booking ledger not configured")
	}
	if err := requireAdmin(principal); err != nil {
		s.loggerWith(ctx, "ClearBookings", "user_id", principal.UserID).WarnContext(ctx, "admin access denied", "error_kind", ErrorKind(err))
		return err
	}
	return s.ledger.ClearAll(ctx)
}

// ListLogins returns the login trail, newest first.
func (s *AdminService) ListLogins(ctx context.Context, principal Principal) ([]LoginEvent, error) {
	if s == nil || s.logins == nil {
		return nil, fmt.Errorf("login log not configured")
	}
	if err := requireAdmin(principal); err != nil {
		s.loggerWith(ctx, "ListLogins", "user_id", principal.UserID).WarnContext(ctx, "admin access denied", "error_kind", ErrorKind(err))
		return nil, err
	}
	events, err := s.logins.ListLogins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LoginEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
	}
	return out, nil
}

// Report combines bookings and logins for the admin dashboard.
func (s *AdminService) Report(ctx context.Context, principal Principal) (Report, error) {
	bookings, err := s.ListBookings(ctx, principal)
	if err != nil {
		return Report{}, err
	}
	logins, err := s.ListLogins(ctx, principal)
	if err != nil {
		return Report{}, err
	}
	return Report{Bookings: bookings, Logins: logins}, nil
}
