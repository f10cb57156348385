package application

import (
	"context"
	"time"
)

// UserRepository stores accounts together with their password hashes.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	UpdateUser(ctx context.Context, user User, passwordHash string) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error)
}

// BookingStore reads and atomically rewrites the booking ledger.
type BookingStore interface {
	ListBookings(ctx context.Context) ([]Booking, error)
	// UpdateBookings hands mutate the current ledger and stores what it
	// returns. mutate may run more than once when writers race.
	UpdateBookings(ctx context.Context, mutate func([]Booking) ([]Booking, error)) error
	ClearBookings(ctx context.Context) error
}

// LoginLog records and lists login events.
type LoginLog interface {
	AppendLogin(ctx context.Context, event LoginEvent) error
	ListLogins(ctx context.Context) ([]LoginEvent, error)
}

// SelectionStore keeps each user's in-progress selection.
type SelectionStore interface {
	GetSelection(ctx context.Context, userID string) (Selection, error)
	PutSelection(ctx context.Context, userID string, selection Selection) error
	ClearSelection(ctx context.Context, userID string) error
}

// CartStore keeps storefront carts per user.
type CartStore interface {
	GetCart(ctx context.Context, userID string) ([]CartItem, error)
	UpdateCart(ctx context.Context, userID string, mutate func([]CartItem) ([]CartItem, error)) ([]CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}
