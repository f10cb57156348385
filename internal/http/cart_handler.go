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

type cartService interface {
	View(ctx context.Context, principal application.Principal) (application.Cart, error)
	Add(ctx context.Context, principal application.Principal, productID string, quantity int) (application.Cart, error)
	SetQuantity(ctx context.Context, principal application.Principal, productID string, quantity int) (application.Cart, error)
	Remove(ctx context.Context, principal application.Principal, productID string) (application.Cart, error)
	Clear(ctx context.Context, principal application.Principal) error
	Checkout(ctx context.Context, principal application.Principal) (application.CartCheckoutResult, error)
}

type CartHandler struct {
	service   cartService
	responder responder
	logger    *slog.Logger
}

func NewCartHandler(service cartService, logger *slog.Logger) *CartHandler {
	base := defaultLogger(logger)
	return &CartHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.respondCart(w, r)(h.service.View(r.Context(), principal))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !h.decode(w, r, "AddItem", &req) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	h.respondCart(w, r)(h.service.Add(r.Context(), principal, req.ID, req.Quantity))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !h.decode(w, r, "UpdateItem", &req) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	h.respondCart(w, r)(h.service.SetQuantity(r.Context(), principal, chi.URLParam(r, "id"), req.Quantity))
}

func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.respondCart(w, r)(h.service.Remove(r.Context(), principal, chi.URLParam(r, "id")))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Clear(r.Context(), principal); err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusNoContent, nil)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Checkout(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "CartHandler", "Checkout").InfoContext(r.Context(), "cart purchased", "count", result.Count)
	h.responder.writeJSON(w, r, http.StatusOK, toCartDTO(result.Items, result.Count, result.TotalMinorUnits))
}

func (h *CartHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		handlerLogger(r.Context(), h.logger, "CartHandler", operation).WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request) func(application.Cart, error) {
	return func(cart application.Cart, err error) {
		if err != nil {
			h.responder.handleServiceError(w, r, err)
			return
		}
		h.responder.writeJSON(w, r, http.StatusOK, toCartDTO(cart.Items, cart.Count, cart.TotalMinorUnits))
	}
}

type cartItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"qty"`
}
