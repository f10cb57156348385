package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/studio-booking/internal/application"
)

type sessionValidatorMock struct{ mock.Mock }

func (m *sessionValidatorMock) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(application.Principal), args.Error(1)
}

type authServiceMock struct{ mock.Mock }

func (m *authServiceMock) Register(ctx context.Context, params application.RegisterParams) (application.RegisterResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.RegisterResult), args.Error(1)
}

func (m *authServiceMock) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.AuthenticateResult), args.Error(1)
}

func (m *authServiceMock) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.RefreshSessionResult), args.Error(1)
}

func (m *authServiceMock) RevokeSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *authServiceMock) CurrentUser(ctx context.Context, principal application.Principal) (application.User, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(application.User), args.Error(1)
}

type bookingServiceMock struct{ mock.Mock }

func (m *bookingServiceMock) SelectPackage(ctx context.Context, params application.SelectPackageParams) (application.Selection, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.Selection), args.Error(1)
}

func (m *bookingServiceMock) CurrentSelection(ctx context.Context, principal application.Principal) (application.Selection, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(application.Selection), args.Error(1)
}

func (m *bookingServiceMock) OfferSlots(ctx context.Context, params application.OfferSlotsParams) (application.SlotOffers, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.SlotOffers), args.Error(1)
}

func (m *bookingServiceMock) Checkout(ctx context.Context, params application.CheckoutParams) (application.CheckoutResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.CheckoutResult), args.Error(1)
}

func (m *bookingServiceMock) ListMine(ctx context.Context, principal application.Principal) ([]application.Booking, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]application.Booking), args.Error(1)
}

func (m *bookingServiceMock) Ticket(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	args := m.Called(ctx, principal, bookingID)
	return args.Get(0).(application.Booking), args.Error(1)
}

func (m *bookingServiceMock) CancelMine(ctx context.Context, params application.CancelBookingParams) (application.Booking, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.Booking), args.Error(1)
}

type cartServiceMock struct{ mock.Mock }

func (m *cartServiceMock) View(ctx context.Context, principal application.Principal) (application.Cart, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(application.Cart), args.Error(1)
}

func (m *cartServiceMock) Add(ctx context.Context, principal application.Principal, productID string, quantity int) (application.Cart, error) {
	args := m.Called(ctx, principal, productID, quantity)
	return args.Get(0).(application.Cart), args.Error(1)
}

func (m *cartServiceMock) SetQuantity(ctx context.Context, principal application.Principal, productID string, quantity int) (application.Cart, error) {
	args := m.Called(ctx, principal, productID, quantity)
	return args.Get(0).(application.Cart), args.Error(1)
}

func (m *cartServiceMock) Remove(ctx context.Context, principal application.Principal, productID string) (application.Cart, error) {
	args := m.Called(ctx, principal, productID)
	return args.Get(0).(application.Cart), args.Error(1)
}

func (m *cartServiceMock) Clear(ctx context.Context, principal application.Principal) error {
	return m.Called(ctx, principal).Error(0)
}

func (m *cartServiceMock) Checkout(ctx context.Context, principal application.Principal) (application.CartCheckoutResult, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(application.CartCheckoutResult), args.Error(1)
}

type adminServiceMock struct{ mock.Mock }

func (m *adminServiceMock) ListBookings(ctx context.Context, principal application.Principal) ([]application.Booking, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]application.Booking), args.Error(1)
}

func (m *adminServiceMock) CancelBooking(ctx context.Context, params application.AdminCancelParams) (application.AdminCancelResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.AdminCancelResult), args.Error(1)
}

func (m *adminServiceMock) ClearBookings(ctx context.Context, principal application.Principal) error {
	return m.Called(ctx, principal).Error(0)
}

func (m *adminServiceMock) ListLogins(ctx context.Context, principal application.Principal) ([]application.LoginEvent, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).([]application.LoginEvent), args.Error(1)
}

func (m *adminServiceMock) Report(ctx context.Context, principal application.Principal) (application.Report, error) {
	args := m.Called(ctx, principal)
	return args.Get(0).(application.Report), args.Error(1)
}
