package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/logging"
)

const (
	sessionCookie = "session_token"
	sessionHeader = "X-Session-Token"
)

type authService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.RegisterResult, error)
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error)
	RevokeSession(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, principal application.Principal) (application.User, error)
}

type AuthHandler struct {
	service      authService
	responder    responder
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler builds the account and session endpoints. secureCookie marks
// the session cookie Secure.
func NewAuthHandler(service authService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base, secureCookie: secureCookie}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "Register").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Register(r.Context(), application.RegisterParams{
		FullName:        req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}

	h.setSession(w, result.Session)
	h.log(r.Context(), "Register", "user_id", result.User.ID).InfoContext(r.Context(), "account registered")
	h.responder.writeJSON(w, r, http.StatusCreated, sessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserDTO(result.User),
	})
}

// CreateSession logs a user in.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.log(r.Context(), "CreateSession").WarnContext(r.Context(), "failed to decode request body", logging.Err(err))
		h.responder.writeError(w, r, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{Email: req.Email, Password: req.Password})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}

	h.setSession(w, result.Session)
	h.log(r.Context(), "CreateSession", "user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")
	h.responder.writeJSON(w, r, http.StatusCreated, sessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserDTO(result.User),
	})
}

// RefreshCurrentSession rotates the caller's token.
func (h *AuthHandler) RefreshCurrentSession(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeError(w, r, http.StatusUnauthorized, codeSessionRequired, errMissingSessionToken)
		return
	}

	result, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{Token: token})
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}

	h.setSession(w, result.Session)
	h.responder.writeJSON(w, r, http.StatusOK, sessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// DeleteCurrentSession logs the caller out.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeError(w, r, http.StatusUnauthorized, codeSessionRequired, errMissingSessionToken)
		return
	}

	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}

	h.clearSession(w)
	h.log(r.Context(), "DeleteCurrentSession").InfoContext(r.Context(), "session revoked")
	h.responder.writeJSON(w, r, http.StatusNoContent, nil)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(w, r, err)
		return
	}
	h.responder.writeJSON(w, r, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) setSession(w http.ResponseWriter, session application.Session) {
	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !session.ExpiresAt.IsZero() {
		cookie.Expires = session.ExpiresAt.UTC()
	}
	http.SetCookie(w, cookie)
	w.Header().Set(sessionHeader, session.Token)
}

func (h *AuthHandler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	User      *userDTO `json:"user,omitempty"`
}

type userDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(user application.User) *userDTO {
	return &userDTO{
		ID:        user.ID,
		Name:      user.FullName,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
