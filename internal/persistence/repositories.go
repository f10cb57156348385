package persistence

import (
	"context"
	"time"
)

// UserRepository stores registered accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error)
}

// BookingMutation receives the whole ledger and returns its replacement.
// Returning an error aborts the write.
type BookingMutation func(bookings []Booking) ([]Booking, error)

// BookingRepository stores the booking ledger. The ledger is read and written
// as a whole, so checks that span several bookings run inside UpdateBookings.
type BookingRepository interface {
	ListBookings(ctx context.Context) ([]Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBookings(ctx context.Context, mutate BookingMutation) error
	ClearBookings(ctx context.Context) error
}

// LoginRepository stores the login audit trail.
type LoginRepository interface {
	AppendLogin(ctx context.Context, event LoginEvent) error
	ListLogins(ctx context.Context) ([]LoginEvent, error)
}

// SelectionRepository keeps each user's in-progress occasion and package choice.
type SelectionRepository interface {
	GetSelection(ctx context.Context, userID string) (Selection, error)
	PutSelection(ctx context.Context, userID string, selection Selection) error
	ClearSelection(ctx context.Context, userID string) error
}

// CartMutation receives a user's cart lines and returns their replacement.
type CartMutation func(items []CartItem) ([]CartItem, error)

// CartRepository keeps storefront carts per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) ([]CartItem, error)
	UpdateCart(ctx context.Context, userID string, mutate CartMutation) ([]CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}
