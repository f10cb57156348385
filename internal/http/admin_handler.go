package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/logging"
)

type adminService interface {
	ListBookings(ctx context.Context, principal application.Principal) ([]application.Booking, error)
	CancelBooking(ctx context.Context, params application.AdminCancelParams) (application.AdminCancelResult, error)
	ClearBookings(ctx context.Context, principal application.Principal) error
	ListLogins(ctx context.Context, principal application.Principal) ([]application.LoginEvent, error)
	Report(ctx context.Context, principal application.Principal) (application.Report, error)
}

type AdminHandler struct {
	service   adminService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(service adminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	bookings, err := h.service.ListBookings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toBookingDTOs(bookings))
}

// CancelBooking cancels on behalf of the studio. The response carries the
// committed booking and, separately, whether the refund was confirmed.
func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req adminCancelRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "CancelBooking").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.CancelBooking(r.Context(), application.AdminCancelParams{
		Principal:        principal,
		BookingID:        chi.URLParam(r, "id"),
		Note:             req.Note,
		RefundMinorUnits: req.RefundAmount,
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}

	h.log(r.Context(), "CancelBooking", "booking_id", result.Booking.ID, "refund_outcome", result.RefundOutcome).InfoContext(r.Context(), "booking cancelled by admin")
	h.responder.writeJSON(w, r, http.StatusOK, adminCancelResponse{
		Booking: toBookingDTO(result.Booking),
		Refund:  refundDTO{Outcome: result.RefundOutcome, Error: result.RefundError},
	})
}

func (h *AdminHandler) ClearBookings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.ClearBookings(r.Context(), principal); err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.log(r.Context(), "ClearBookings").WarnContext(r.Context(), "all bookings cleared")
	h.responder.writeJSON(w, r, http.StatusNoContent, nil)
}

func (h *AdminHandler) ListLogins(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	events, err := h.service.ListLogins(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toLoginEventDTOs(events))
}

func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	report, err := h.service.Report(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, reportResponse{
		Bookings: toBookingDTOs(report.Bookings),
		Logins:   toLoginEventDTOs(report.Logins),
	})
}

type adminCancelRequest struct {
	Note         string `json:"note"`
	RefundAmount int64  `json:"refundAmount"`
}

type refundDTO struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type adminCancelResponse struct {
	Booking bookingDTO `json:"booking"`
	Refund  refundDTO  `json:"refund"`
}

type reportResponse struct {
	Bookings []bookingDTO    `json:"bookings"`
	Logins   []loginEventDTO `json:"logins"`
}
