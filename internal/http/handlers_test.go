package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/logging"
)

var (
	customerPrincipal = application.Principal{UserID: "user-1", Email: "asha@example.com"}
	adminPrincipal    = application.Principal{UserID: "admin-1", Email: "admin@example.com", IsAdmin: true}
)

type testAPI struct {
	sessions *sessionValidatorMock
	auth     *authServiceMock
	bookings *bookingServiceMock
	cart     *cartServiceMock
	admin    *adminServiceMock
	handler  http.Handler
}

func newTestAPI(t *testing.T, limiter *RateLimiter) *testAPI {
	t.Helper()

	api := &testAPI{
		sessions: &sessionValidatorMock{},
		auth:     &authServiceMock{},
		bookings: &bookingServiceMock{},
		cart:     &cartServiceMock{},
		admin:    &adminServiceMock{},
	}
	api.sessions.On("ValidateSession", mock.Anything, "customer-token").Return(customerPrincipal, nil).Maybe()
	api.sessions.On("ValidateSession", mock.Anything, "admin-token").Return(adminPrincipal, nil).Maybe()
	api.sessions.On("ValidateSession", mock.Anything, "expired-token").Return(application.Principal{}, application.ErrSessionExpired).Maybe()
	api.sessions.On("ValidateSession", mock.Anything, mock.Anything).Return(application.Principal{}, application.ErrInvalidCredentials).Maybe()

	logger := logging.Discard()
	api.handler = NewRouter(RouterConfig{
		Auth:         NewAuthHandler(api.auth, false, logger),
		Bookings:     NewBookingHandler(api.bookings, logger),
		Cart:         NewCartHandler(api.cart, logger),
		Admin:        NewAdminHandler(api.admin, logger),
		Sessions:     api.sessions,
		LoginLimiter: limiter,
		Logger:       logger,
	})

	t.Cleanup(func() {
		api.auth.AssertExpectations(t)
		api.bookings.AssertExpectations(t)
		api.cart.AssertExpectations(t)
		api.admin.AssertExpectations(t)
	})
	return api
}

func (a *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	expires := time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC)

	t.Run("register issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("Register", mock.Anything, application.RegisterParams{
			FullName: "Asha Rao", Email: "asha@example.com", Password: "secret1", ConfirmPassword: "secret1",
		}).Return(application.RegisterResult{
			User:    application.User{ID: "user-1", FullName: "Asha Rao", Email: "asha@example.com", Role: application.RoleUser},
			Session: application.Session{Token: "tok-1", ExpiresAt: expires},
		}, nil).Once()

		rec := api.do(http.MethodPost, "/register", `{"name":"Asha Rao","email":"asha@example.com","password":"secret1","confirmPassword":"secret1"}`, "")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "tok-1", rec.Header().Get("X-Session-Token"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "session_token=tok-1")

		var resp sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "tok-1", resp.Token)
		assert.Equal(t, "2024-06-11T10:00:00Z", resp.ExpiresAt)
		require.NotNil(t, resp.User)
		assert.Equal(t, "user", resp.User.Role)
	})

	t.Run("register surfaces field errors", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("Register", mock.Anything, mock.Anything).
			Return(application.RegisterResult{}, &application.ValidationError{FieldErrors: map[string]string{"email": "must be a valid email address"}}).Once()

		rec := api.do(http.MethodPost, "/register", `{"name":"Asha","email":"nope"}`, "")

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, codeValidation, resp.ErrorCode)
		assert.Equal(t, "must be a valid email address", resp.Errors["email"])
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("Register", mock.Anything, mock.Anything).Return(application.RegisterResult{}, application.ErrAlreadyExists).Once()

		rec := api.do(http.MethodPost, "/register", `{}`, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("login rejects bad credentials and bad bodies", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("Authenticate", mock.Anything, application.AuthenticateParams{Email: "asha@example.com", Password: "wrong-pass"}).
			Return(application.AuthenticateResult{}, application.ErrInvalidCredentials).Once()

		rec := api.do(http.MethodPost, "/sessions", `{"email":"asha@example.com","password":"wrong-pass"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, codeInvalidCredentials, decodeError(t, rec).ErrorCode)

		rec = api.do(http.MethodPost, "/sessions", `not json`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeBadRequest, decodeError(t, rec).ErrorCode)
	})

	t.Run("login is rate limited per client", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, NewRateLimiter(time.Hour, 1, logging.Discard()))
		api.auth.On("Authenticate", mock.Anything, mock.Anything).
			Return(application.AuthenticateResult{Session: application.Session{Token: "tok"}}, nil).Once()

		first := api.do(http.MethodPost, "/sessions", `{"email":"a@example.com","password":"secret1"}`, "")
		second := api.do(http.MethodPost, "/sessions", `{"email":"a@example.com","password":"secret1"}`, "")

		assert.Equal(t, http.StatusCreated, first.Code)
		require.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, codeRateLimited, decodeError(t, second).ErrorCode)
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("RevokeSession", mock.Anything, "customer-token").Return(nil).Once()

		rec := api.do(http.MethodDelete, "/sessions/current", "", "customer-token")

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.auth.On("RefreshSession", mock.Anything, application.RefreshSessionParams{Token: "customer-token"}).
			Return(application.RefreshSessionResult{Session: application.Session{Token: "tok-2", ExpiresAt: expires}}, nil).Once()

		rec := api.do(http.MethodPost, "/sessions/current/refresh", "", "customer-token")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tok-2", rec.Header().Get("X-Session-Token"))
	})
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)

		cases := []struct {
			name  string
			token string
			code  string
		}{
			{name: "missing credentials", token: "", code: codeSessionRequired},
			{name: "unknown token", token: "bogus", code: codeSessionRequired},
			{name: "expired session", token: "expired-token", code: codeSessionExpired},
		}
		for _, tc := range cases {
			rec := api.do(http.MethodGet, "/bookings", "", tc.token)
			require.Equal(t, http.StatusUnauthorized, rec.Code, tc.name)
			assert.Equal(t, tc.code, decodeError(t, rec).ErrorCode, tc.name)
		}
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("ListMine", mock.Anything, customerPrincipal).Return([]application.Booking{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "customer-token"})
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("admin routes refuse customers before reaching the service", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		rec := api.do(http.MethodGet, "/admin/bookings", "", "customer-token")

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, codeForbidden, decodeError(t, rec).ErrorCode)
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Parallel()

	booking := application.Booking{
		ID: "KKR12345678ABC", Occasion: "Proposal", PackageID: "pkg-999", Package: "PACKAGE 999 (1 HR)",
		AmountMinorUnits: 99900, Name: "Asha Rao", Mobile: "9876543210", Email: "asha@example.com",
		Date: "2024-06-12", SlotStart: "14:00", SlotEnd: "15:00", Status: application.BookingStatusConfirmed,
	}
	checkoutBody := `{"occasion":"Proposal","package":"pkg-999","name":"Asha Rao","mobile":"9876543210","date":"2024-06-12","slotStart":"14:00","paymentToken":"pm_card_visa"}`

	t.Run("slots pass the query through", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("OfferSlots", mock.Anything, application.OfferSlotsParams{Date: "2024-06-12", Package: "pkg-2699"}).
			Return(application.SlotOffers{Date: "2024-06-12", PackageID: "pkg-2699", Hours: 2, Slots: []application.SlotOffer{{Start: "08:00", End: "10:00", Locked: true}}}, nil).Once()

		rec := api.do(http.MethodGet, "/slots?date=2024-06-12&package=pkg-2699", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"date":"2024-06-12","packageId":"pkg-2699","hours":2,"slots":[{"start":"08:00","end":"10:00","locked":true}]}`, rec.Body.String())
	})

	t.Run("checkout creates the booking", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("Checkout", mock.Anything, mock.MatchedBy(func(p application.CheckoutParams) bool {
			return p.Principal == customerPrincipal && p.SlotStart == "14:00" && p.PaymentToken == "pm_card_visa" && p.Mobile == "9876543210"
		})).Return(application.CheckoutResult{Paid: true, Booking: &booking}, nil).Once()

		rec := api.do(http.MethodPost, "/bookings", checkoutBody, "customer-token")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/bookings/KKR12345678ABC", rec.Header().Get("Location"))
		var dto bookingDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "KKR12345678ABC", dto.ID)
		assert.Equal(t, int64(99900), dto.Amount)
		assert.Equal(t, "INR", dto.Currency)
		assert.Equal(t, "confirmed", dto.Status)
	})

	t.Run("checkout maps outcomes to status codes", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name   string
			result application.CheckoutResult
			err    error
			status int
			code   string
		}{
			{name: "dismissed", result: application.CheckoutResult{FailureReason: "payment dismissed"}, status: http.StatusPaymentRequired, code: codePaymentNotCompleted},
			{name: "slot taken", err: application.ErrSlotUnavailable, status: http.StatusConflict, code: codeSlotUnavailable},
			{name: "gateway down", err: application.ErrGatewayUnavailable, status: http.StatusServiceUnavailable, code: codeGatewayUnavailable},
			{name: "admin", err: application.ErrUnauthorized, status: http.StatusForbidden, code: codeForbidden},
			{name: "storage", err: errors.New("disk full"), status: http.StatusInternalServerError, code: codeInternal},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				api := newTestAPI(t, nil)
				api.bookings.On("Checkout", mock.Anything, mock.Anything).Return(tc.result, tc.err).Once()

				rec := api.do(http.MethodPost, "/bookings", checkoutBody, "customer-token")
				require.Equal(t, tc.status, rec.Code)
				assert.Equal(t, tc.code, decodeError(t, rec).ErrorCode)
			})
		}
	})

	t.Run("tickets resolve the path id", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("Ticket", mock.Anything, customerPrincipal, "KKR12345678ABC").Return(booking, nil).Once()
		api.bookings.On("Ticket", mock.Anything, customerPrincipal, "KKR00000000XYZ").Return(application.Booking{}, application.ErrNotFound).Once()

		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/bookings/KKR12345678ABC", "", "customer-token").Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/bookings/KKR00000000XYZ", "", "customer-token").Code)
	})

	t.Run("late cancellation reports the policy", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("CancelMine", mock.Anything, application.CancelBookingParams{Principal: customerPrincipal, BookingID: "KKR12345678ABC", Reason: "travel"}).
			Return(application.Booking{}, application.ErrPolicyViolation).Once()

		rec := api.do(http.MethodPost, "/bookings/KKR12345678ABC/cancel", `{"reason":"travel"}`, "customer-token")

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, codePolicyViolation, decodeError(t, rec).ErrorCode)
	})

	t.Run("selection round trip", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		api.bookings.On("SelectPackage", mock.Anything, application.SelectPackageParams{Principal: customerPrincipal, Occasion: "Proposal", Package: "pkg-499"}).
			Return(application.Selection{Occasion: "Proposal", PackageID: "pkg-499", Package: "PACKAGE 499 (1 HR)"}, nil).Once()

		rec := api.do(http.MethodPut, "/selection", `{"occasion":"Proposal","package":"pkg-499"}`, "customer-token")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"occasion":"Proposal","packageId":"pkg-499","package":"PACKAGE 499 (1 HR)"}`, rec.Body.String())
	})
}

func TestCartHandlers(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, nil)
	cart := application.Cart{
		Items:           []application.CartItem{{ProductID: "addon-cake", Title: "Celebration Cake (1 kg)", PriceMinorUnits: 79900, Quantity: 2}},
		Count:           2,
		TotalMinorUnits: 159800,
	}
	api.cart.On("Add", mock.Anything, customerPrincipal, "addon-cake", 2).Return(cart, nil).Once()
	api.cart.On("Checkout", mock.Anything, customerPrincipal).
		Return(application.CartCheckoutResult{}, &application.ValidationError{FieldErrors: map[string]string{"cart": "is empty"}}).Once()

	rec := api.do(http.MethodPost, "/cart/items", `{"id":"addon-cake","qty":2}`, "customer-token")
	require.Equal(t, http.StatusOK, rec.Code)
	var dto cartDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 2, dto.Count)
	assert.Equal(t, int64(159800), dto.Total)

	rec = api.do(http.MethodPost, "/cart/checkout", "", "customer-token")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is empty", decodeError(t, rec).Errors["cart"])
}

func TestAdminHandlers(t *testing.T) {
	t.Parallel()

	t.Run("cancel reports the refund separately", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		refund := int64(50000)
		api.admin.On("CancelBooking", mock.Anything, application.AdminCancelParams{Principal: adminPrincipal, BookingID: "KKR1", Note: "closed", RefundMinorUnits: 50000}).
			Return(application.AdminCancelResult{
				Booking:       application.Booking{ID: "KKR1", Status: application.BookingStatusCancelled, RefundAmount: &refund},
				RefundOutcome: application.RefundOutcomeNotConfirmed,
				RefundError:   "provider timeout",
			}, nil).Once()

		rec := api.do(http.MethodPost, "/admin/bookings/KKR1/cancel", `{"note":"closed","refundAmount":50000}`, "admin-token")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp adminCancelResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "cancelled", resp.Booking.Status)
		assert.Equal(t, "not_confirmed", resp.Refund.Outcome)
		assert.Equal(t, "provider timeout", resp.Refund.Error)
	})

	t.Run("report and clear", func(t *testing.T) {
		t.Parallel()

		api := newTestAPI(t, nil)
		at := time.Date(2024, 6, 10, 4, 30, 0, 0, time.UTC)
		api.admin.On("Report", mock.Anything, adminPrincipal).Return(application.Report{
			Bookings: []application.Booking{{ID: "KKR2"}, {ID: "KKR1"}},
			Logins:   []application.LoginEvent{{Email: "asha@example.com", At: at}},
		}, nil).Once()
		api.admin.On("ClearBookings", mock.Anything, adminPrincipal).Return(nil).Once()

		rec := api.do(http.MethodGet, "/admin/report", "", "admin-token")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp reportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Bookings, 2)
		assert.Equal(t, "KKR2", resp.Bookings[0].ID)
		assert.Equal(t, "2024-06-10T04:30:00Z", resp.Logins[0].At)

		assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/admin/bookings", "", "admin-token").Code)
	})
}

func TestCatalogHandler(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, nil)
	rec := api.do(http.MethodGet, "/catalog", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INR", resp.Currency)
	assert.Len(t, resp.Packages, 5)
	assert.Contains(t, resp.Occasions, "Birthday Celebration")
	assert.NotEmpty(t, resp.Products)
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, 2, logging.Discard())
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "budgets are per client")

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"))
}
