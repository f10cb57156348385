package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/logging"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errMissingSessionToken = errors.New("a session token is required")
)

// Error codes carried in errorResponse.ErrorCode.
const (
	codeValidation          = "VALIDATION_FAILED"
	codeBadRequest          = "BAD_REQUEST"
	codeNotFound            = "NOT_FOUND"
	codeForbidden           = "AUTH_FORBIDDEN"
	codeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	codeSessionRequired     = "AUTH_SESSION_REQUIRED"
	codeSessionExpired      = "AUTH_SESSION_EXPIRED"
	codeSessionRevoked      = "AUTH_SESSION_REVOKED"
	codeAlreadyExists       = "ALREADY_EXISTS"
	codeAlreadyCancelled    = "ALREADY_CANCELLED"
	codeSlotUnavailable     = "SLOT_UNAVAILABLE"
	codeConflict            = "CONCURRENT_MODIFICATION"
	codePolicyViolation     = "CANCELLATION_WINDOW_CLOSED"
	codeIncompleteBooking   = "INCOMPLETE_BOOKING_DATA"
	codeGatewayUnavailable  = "PAYMENT_GATEWAY_UNAVAILABLE"
	codePaymentNotCompleted = "PAYMENT_NOT_COMPLETED"
	codeRateLimited         = "RATE_LIMITED"
	codeInternal            = "INTERNAL"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(w http.ResponseWriter, req *http.Request, status int, payload any) {
	if w == nil {
		return
	}
	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}
	render.Status(req, status)
	render.JSON(w, req, payload)
}

func (r responder) writeError(w http.ResponseWriter, req *http.Request, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(req.Context()).WarnContext(req.Context(), "request failed", "status", status, "error_code", code, logging.Err(err))
	}
	r.writeJSON(w, req, status, errorResponse{ErrorCode: code, Message: message})
}

func (r responder) handleServiceError(w http.ResponseWriter, req *http.Request, err error) {
	if err == nil {
		r.writeError(w, req, http.StatusInternalServerError, codeInternal, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(w, req, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeValidation,
			Message:   "some fields are invalid",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	status, code, message := statusForError(err)
	if status == http.StatusInternalServerError {
		r.loggerFor(req.Context()).ErrorContext(req.Context(), "unexpected service error", logging.Err(err), "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(w, req, status, errorResponse{ErrorCode: code, Message: message})
}

func statusForError(err error) (int, string, string) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, codeInvalidCredentials, "email or password is incorrect"
	case errors.Is(err, application.ErrSessionExpired):
		return http.StatusUnauthorized, codeSessionExpired, "session expired, please log in again"
	case errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized, codeSessionRevoked, "session was logged out, please log in again"
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, codeForbidden, "you are not allowed to perform this operation"
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, codeNotFound, "the requested resource was not found"
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict, codeAlreadyExists, "an account with this email already exists"
	case errors.Is(err, application.ErrAlreadyCancelled):
		return http.StatusConflict, codeAlreadyCancelled, "the booking is already cancelled"
	case errors.Is(err, application.ErrSlotUnavailable):
		return http.StatusConflict, codeSlotUnavailable, "the selected slot is no longer available"
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, codeConflict, "the data changed while saving, please retry"
	case errors.Is(err, application.ErrPolicyViolation):
		return http.StatusUnprocessableEntity, codePolicyViolation, "bookings can only be cancelled up to 3 hours before the slot starts"
	case errors.Is(err, application.ErrIncompleteBookingData):
		return http.StatusUnprocessableEntity, codeIncompleteBooking, "the booking is missing its date or slot"
	case errors.Is(err, application.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, codeGatewayUnavailable, "the payment provider is unavailable, please try again later"
	default:
		return http.StatusInternalServerError, codeInternal, "internal server error"
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
