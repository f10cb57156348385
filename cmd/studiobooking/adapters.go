package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/persistence"
)

// translateError maps persistence sentinels onto their application
// counterparts. Anything else, including errors raised by mutations, passes
// through untouched.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrAlreadyExists):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrConcurrentModification):
		return fmt.Errorf("%w: %v", application.ErrConflict, err)
	default:
		return err
	}
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, translateError(err)
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, translateError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if passwordHash == "" {
		current, err := a.repo.GetUser(ctx, user.ID)
		if err != nil {
			return application.User{}, translateError(err)
		}
		passwordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, translateError(err)
	}
	return a.GetUser(ctx, user.ID)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error) {
	removed, err := a.repo.DeleteExpiredSessions(ctx, reference)
	return removed, translateError(err)
}

type bookingStoreAdapter struct {
	repo persistence.BookingRepository
}

func newBookingStoreAdapter(repo persistence.BookingRepository) *bookingStoreAdapter {
	return &bookingStoreAdapter{repo: repo}
}

func (a *bookingStoreAdapter) ListBookings(ctx context.Context) ([]application.Booking, error) {
	stored, err := a.repo.ListBookings(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationBookings(stored), nil
}

func (a *bookingStoreAdapter) UpdateBookings(ctx context.Context, mutate func([]application.Booking) ([]application.Booking, error)) error {
	err := a.repo.UpdateBookings(ctx, func(stored []persistence.Booking) ([]persistence.Booking, error) {
		updated, err := mutate(toApplicationBookings(stored))
		if err != nil {
			return nil, err
		}
		return toPersistenceBookings(updated), nil
	})
	return translateError(err)
}

func (a *bookingStoreAdapter) ClearBookings(ctx context.Context) error {
	return translateError(a.repo.ClearBookings(ctx))
}

type loginLogAdapter struct {
	repo persistence.LoginRepository
}

func newLoginLogAdapter(repo persistence.LoginRepository) *loginLogAdapter {
	return &loginLogAdapter{repo: repo}
}

func (a *loginLogAdapter) AppendLogin(ctx context.Context, event application.LoginEvent) error {
	return translateError(a.repo.AppendLogin(ctx, persistence.LoginEvent{Email: event.Email, At: event.At}))
}

func (a *loginLogAdapter) ListLogins(ctx context.Context) ([]application.LoginEvent, error) {
	stored, err := a.repo.ListLogins(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	events := make([]application.LoginEvent, 0, len(stored))
	for _, event := range stored {
		events = append(events, application.LoginEvent{Email: event.Email, At: event.At})
	}
	return events, nil
}

type selectionStoreAdapter struct {
	repo persistence.SelectionRepository
}

func newSelectionStoreAdapter(repo persistence.SelectionRepository) *selectionStoreAdapter {
	return &selectionStoreAdapter{repo: repo}
}

func (a *selectionStoreAdapter) GetSelection(ctx context.Context, userID string) (application.Selection, error) {
	stored, err := a.repo.GetSelection(ctx, userID)
	if err != nil {
		return application.Selection{}, translateError(err)
	}
	return application.Selection{
		Occasion:  stored.Occasion,
		PackageID: stored.PackageID,
		Package:   stored.Package,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (a *selectionStoreAdapter) PutSelection(ctx context.Context, userID string, selection application.Selection) error {
	return translateError(a.repo.PutSelection(ctx, userID, persistence.Selection{
		Occasion:  selection.Occasion,
		PackageID: selection.PackageID,
		Package:   selection.Package,
		UpdatedAt: selection.UpdatedAt,
	}))
}

func (a *selectionStoreAdapter) ClearSelection(ctx context.Context, userID string) error {
	return translateError(a.repo.ClearSelection(ctx, userID))
}

type cartStoreAdapter struct {
	repo persistence.CartRepository
}

func newCartStoreAdapter(repo persistence.CartRepository) *cartStoreAdapter {
	return &cartStoreAdapter{repo: repo}
}

func (a *cartStoreAdapter) GetCart(ctx context.Context, userID string) ([]application.CartItem, error) {
	stored, err := a.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationCart(stored), nil
}

func (a *cartStoreAdapter) UpdateCart(ctx context.Context, userID string, mutate func([]application.CartItem) ([]application.CartItem, error)) ([]application.CartItem, error) {
	stored, err := a.repo.UpdateCart(ctx, userID, func(items []persistence.CartItem) ([]persistence.CartItem, error) {
		updated, err := mutate(toApplicationCart(items))
		if err != nil {
			return nil, err
		}
		return toPersistenceCart(updated), nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationCart(stored), nil
}

func (a *cartStoreAdapter) ClearCart(ctx context.Context, userID string) error {
	return translateError(a.repo.ClearCart(ctx, userID))
}

func toApplicationUser(model persistence.User) application.User {
	role := application.Role(model.Role)
	if role != application.RoleAdmin {
		role = application.RoleUser
	}
	return application.User{
		ID:        model.ID,
		FullName:  model.FullName,
		Email:     model.Email,
		Role:      role,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		Token:     model.Token,
		UserID:    model.UserID,
		Email:     model.Email,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		ExpiresAt: model.ExpiresAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		Token:     session.Token,
		UserID:    session.UserID,
		Email:     session.Email,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		ExpiresAt: session.ExpiresAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toApplicationBookings(models []persistence.Booking) []application.Booking {
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, application.Booking{
			ID:               model.ID,
			Occasion:         model.Occasion,
			PackageID:        model.PackageID,
			Package:          model.Package,
			AmountMinorUnits: model.AmountMinorUnits,
			Name:             model.Name,
			Mobile:           model.Mobile,
			Email:            model.Email,
			Date:             model.Date,
			SlotStart:        model.SlotStart,
			SlotEnd:          model.SlotEnd,
			CreatedAt:        model.CreatedAt,
			PaymentReference: model.PaymentReference,
			Status:           model.EffectiveStatus(),
			CancelReason:     model.CancelReason,
			CancelNote:       model.CancelNote,
			CancelledAt:      cloneTime(model.CancelledAt),
			RefundAmount:     cloneAmount(model.RefundAmount),
		})
	}
	return bookings
}

func toPersistenceBookings(bookings []application.Booking) []persistence.Booking {
	models := make([]persistence.Booking, 0, len(bookings))
	for _, booking := range bookings {
		models = append(models, persistence.Booking{
			ID:               booking.ID,
			Occasion:         booking.Occasion,
			PackageID:        booking.PackageID,
			Package:          booking.Package,
			AmountMinorUnits: booking.AmountMinorUnits,
			Name:             booking.Name,
			Mobile:           booking.Mobile,
			Email:            booking.Email,
			Date:             booking.Date,
			SlotStart:        booking.SlotStart,
			SlotEnd:          booking.SlotEnd,
			CreatedAt:        booking.CreatedAt,
			PaymentReference: booking.PaymentReference,
			Status:           booking.Status,
			CancelReason:     booking.CancelReason,
			CancelNote:       booking.CancelNote,
			CancelledAt:      cloneTime(booking.CancelledAt),
			RefundAmount:     cloneAmount(booking.RefundAmount),
		})
	}
	return models
}

func toApplicationCart(models []persistence.CartItem) []application.CartItem {
	items := make([]application.CartItem, 0, len(models))
	for _, model := range models {
		items = append(items, application.CartItem{
			ProductID:       model.ProductID,
			Title:           model.Title,
			PriceMinorUnits: model.PriceMinorUnits,
			ImageURL:        model.ImageURL,
			Quantity:        model.Quantity,
		})
	}
	return items
}

func toPersistenceCart(items []application.CartItem) []persistence.CartItem {
	models := make([]persistence.CartItem, 0, len(items))
	for _, item := range items {
		models = append(models, persistence.CartItem{
			ProductID:       item.ProductID,
			Title:           item.Title,
			PriceMinorUnits: item.PriceMinorUnits,
			ImageURL:        item.ImageURL,
			Quantity:        item.Quantity,
		})
	}
	return models
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneAmount(value *int64) *int64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
