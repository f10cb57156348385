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

type bookingService interface {
	SelectPackage(ctx context.Context, params application.SelectPackageParams) (application.Selection, error)
	CurrentSelection(ctx context.Context, principal application.Principal) (application.Selection, error)
	OfferSlots(ctx context.Context, params application.OfferSlotsParams) (application.SlotOffers, error)
	Checkout(ctx context.Context, params application.CheckoutParams) (application.CheckoutResult, error)
	ListMine(ctx context.Context, principal application.Principal) ([]application.Booking, error)
	Ticket(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	CancelMine(ctx context.Context, params application.CancelBookingParams) (application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// GetSelection returns the caller's in-progress selection.
func (h *BookingHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	selection, err := h.service.CurrentSelection(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, selectionDTO{Occasion: selection.Occasion, PackageID: selection.PackageID, Package: selection.Package})
}

// PutSelection stores the occasion and package for the booking in progress.
func (h *BookingHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "PutSelection").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	selection, err := h.service.SelectPackage(r.Context(), application.SelectPackageParams{
		Principal: principal,
		Occasion:  req.Occasion,
		Package:   req.Package,
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, selectionDTO{Occasion: selection.Occasion, PackageID: selection.PackageID, Package: selection.Package})
}

// Slots lists slot offers for ?date=YYYY-MM-DD&package=<id or label>.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offers, err := h.service.OfferSlots(r.Context(), application.OfferSlotsParams{
		Date:    query.Get("date"),
		Package: query.Get("package"),
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toSlotOffersDTO(offers))
}

// List returns the caller's bookings, newest first.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	bookings, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toBookingDTOs(bookings))
}

// Create runs checkout. A payment the customer dismissed or the provider
// declined answers 402 without creating a booking.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Create").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Checkout(r.Context(), application.CheckoutParams{
		Principal:    principal,
		Occasion:     req.Occasion,
		Package:      req.Package,
		Name:         req.Name,
		Mobile:       req.Mobile,
		Date:         req.Date,
		SlotStart:    req.SlotStart,
		PaymentToken: req.PaymentToken,
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	if !result.Paid || result.Booking == nil {
		message := result.FailureReason
		if message == "" {
			message = "payment was not completed"
		}
		h.responder.writeJSON(w, r, http.StatusPaymentRequired, errorResponse{ErrorCode: codePaymentNotCompleted, Message: message})
		return
	}

	h.log(r.Context(), "Create", "booking_id", result.Booking.ID).InfoContext(r.Context(), "booking confirmed")
	w.Header().Set("Location", "/bookings/"+result.Booking.ID)
	h.responder.writeJSON(w, r, http.StatusCreated, toBookingDTO(*result.Booking))
}

// Get returns a ticket.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.Ticket(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toBookingDTO(booking))
}

// Cancel applies a self-service cancellation.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Cancel").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.CancelMine(r.Context(), application.CancelBookingParams{
		Principal: principal,
		BookingID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toBookingDTO(booking))
}

type selectionRequest struct {
	Occasion string `json:"occasion"`
	Package  string `json:"package"`
}

type checkoutRequest struct {
	Occasion     string `json:"occasion"`
	Package      string `json:"package"`
	Name         string `json:"name"`
	Mobile       string `json:"mobile"`
	Date         string `json:"date"`
	SlotStart    string `json:"slotStart"`
	PaymentToken string `json:"paymentToken"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}
