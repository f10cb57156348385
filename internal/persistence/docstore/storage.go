// Package docstore implements the persistence repositories as JSON documents
// held in a versioned key-value store.
package docstore

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/studio-booking/internal/kvstore"
	"github.com/example/studio-booking/internal/persistence"
)

// Storage implements every persistence repository over a kvstore.Store.
type Storage struct {
	store      kvstore.Store
	users      document[[]persistence.User]
	sessions   document[map[string]persistence.Session]
	bookings   document[[]persistence.Booking]
	logins     document[[]persistence.LoginEvent]
	selections document[map[string]persistence.Selection]
	carts      document[map[string][]persistence.CartItem]
}

// New wraps store. logger receives StorageReadError reports when the request
// context carries no logger of its own.
func New(store kvstore.Store, logger *slog.Logger) *Storage {
	return &Storage{
		store: store,
		users: newDocument(store, persistence.KeyUsers, func() []persistence.User {
			return []persistence.User{}
		}, logger),
		sessions: newDocument(store, persistence.KeySessions, func() map[string]persistence.Session {
			return map[string]persistence.Session{}
		}, logger),
		bookings: newDocument(store, persistence.KeyBookings, func() []persistence.Booking {
			return []persistence.Booking{}
		}, logger),
		logins: newDocument(store, persistence.KeyLogins, func() []persistence.LoginEvent {
			return []persistence.LoginEvent{}
		}, logger),
		selections: newDocument(store, persistence.KeySelection, func() map[string]persistence.Selection {
			return map[string]persistence.Selection{}
		}, logger),
		carts: newDocument(store, persistence.KeyCarts, func() map[string][]persistence.CartItem {
			return map[string][]persistence.CartItem{}
		}, logger),
	}
}

// Ping checks the underlying store.
func (s *Storage) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the underlying store.
func (s *Storage) Close() error {
	return s.store.Close()
}

// --- UserRepository implementation ---

// CreateUser stores a new user. Emails are unique regardless of case.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	return s.users.update(ctx, func(users *[]persistence.User) error {
		for _, existing := range *users {
			if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
				return persistence.ErrAlreadyExists
			}
		}
		*users = append(*users, user)
		return nil
	})
}

// UpdateUser replaces an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	return s.users.update(ctx, func(users *[]persistence.User) error {
		index := -1
		for i, existing := range *users {
			if existing.ID == user.ID {
				index = i
				continue
			}
			if strings.EqualFold(existing.Email, user.Email) {
				return persistence.ErrAlreadyExists
			}
		}
		if index < 0 {
			return persistence.ErrNotFound
		}
		(*users)[index] = user
		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	users, _, err := s.users.load(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	users, _, err := s.users.load(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns all users ordered by CreatedAt ascending.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	users, _, err := s.users.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by its token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	err := s.sessions.update(ctx, func(sessions *map[string]persistence.Session) error {
		if _, ok := (*sessions)[session.Token]; ok {
			return persistence.ErrAlreadyExists
		}
		(*sessions)[session.Token] = cloneSession(session)
		return nil
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return cloneSession(session), nil
}

// GetSession retrieves a session by token.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	sessions, _, err := s.sessions.load(ctx)
	if err != nil {
		return persistence.Session{}, err
	}
	session, ok := sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession replaces a stored session.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	err := s.sessions.update(ctx, func(sessions *map[string]persistence.Session) error {
		if _, ok := (*sessions)[session.Token]; !ok {
			return persistence.ErrNotFound
		}
		(*sessions)[session.Token] = cloneSession(session)
		return nil
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return cloneSession(session), nil
}

// RevokeSession marks the session revoked at revokedAt.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	var revoked persistence.Session
	err := s.sessions.update(ctx, func(sessions *map[string]persistence.Session) error {
		session, ok := (*sessions)[token]
		if !ok {
			return persistence.ErrNotFound
		}
		at := revokedAt
		session.RevokedAt = &at
		session.UpdatedAt = revokedAt
		(*sessions)[token] = session
		revoked = cloneSession(session)
		return nil
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return revoked, nil
}

// DeleteExpiredSessions drops sessions that expired or were revoked at or before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error) {
	removed := 0
	err := s.sessions.update(ctx, func(sessions *map[string]persistence.Session) error {
		removed = 0
		for token, session := range *sessions {
			expired := !session.ExpiresAt.After(reference)
			revoked := session.RevokedAt != nil && !session.RevokedAt.After(reference)
			if expired || revoked {
				delete(*sessions, token)
				removed++
			}
		}
		if removed == 0 {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// --- BookingRepository implementation ---

// ListBookings returns the ledger in stored order.
func (s *Storage) ListBookings(ctx context.Context) ([]persistence.Booking, error) {
	bookings, _, err := s.bookings.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneBookings(bookings), nil
}

// GetBooking retrieves a booking by id.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	bookings, _, err := s.bookings.load(ctx)
	if err != nil {
		return persistence.Booking{}, err
	}
	for _, booking := range bookings {
		if booking.ID == id {
			return cloneBooking(booking), nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

// UpdateBookings runs mutate against the current ledger and stores the result.
func (s *Storage) UpdateBookings(ctx context.Context, mutate persistence.BookingMutation) error {
	return s.bookings.update(ctx, func(bookings *[]persistence.Booking) error {
		next, err := mutate(cloneBookings(*bookings))
		if err != nil {
			return err
		}
		if next == nil {
			next = []persistence.Booking{}
		}
		*bookings = next
		return nil
	})
}

// ClearBookings removes the whole ledger.
func (s *Storage) ClearBookings(ctx context.Context) error {
	return s.bookings.reset(ctx)
}

// --- LoginRepository implementation ---

// AppendLogin records a login event.
func (s *Storage) AppendLogin(ctx context.Context, event persistence.LoginEvent) error {
	return s.logins.update(ctx, func(events *[]persistence.LoginEvent) error {
		*events = append(*events, event)
		return nil
	})
}

// ListLogins returns login events in the order they were recorded.
func (s *Storage) ListLogins(ctx context.Context) ([]persistence.LoginEvent, error) {
	events, _, err := s.logins.load(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// --- SelectionRepository implementation ---

// GetSelection returns the user's pending selection.
func (s *Storage) GetSelection(ctx context.Context, userID string) (persistence.Selection, error) {
	selections, _, err := s.selections.load(ctx)
	if err != nil {
		return persistence.Selection{}, err
	}
	selection, ok := selections[userID]
	if !ok {
		return persistence.Selection{}, persistence.ErrNotFound
	}
	return selection, nil
}

// PutSelection replaces the user's pending selection.
func (s *Storage) PutSelection(ctx context.Context, userID string, selection persistence.Selection) error {
	return s.selections.update(ctx, func(selections *map[string]persistence.Selection) error {
		(*selections)[userID] = selection
		return nil
	})
}

// ClearSelection drops the user's pending selection.
func (s *Storage) ClearSelection(ctx context.Context, userID string) error {
	return s.selections.update(ctx, func(selections *map[string]persistence.Selection) error {
		if _, ok := (*selections)[userID]; !ok {
			return errUnchanged
		}
		delete(*selections, userID)
		return nil
	})
}

// --- CartRepository implementation ---

// GetCart returns the user's cart lines.
func (s *Storage) GetCart(ctx context.Context, userID string) ([]persistence.CartItem, error) {
	carts, _, err := s.carts.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneCart(carts[userID]), nil
}

// UpdateCart runs mutate against the user's cart and stores the result.
func (s *Storage) UpdateCart(ctx context.Context, userID string, mutate persistence.CartMutation) ([]persistence.CartItem, error) {
	var result []persistence.CartItem
	err := s.carts.update(ctx, func(carts *map[string][]persistence.CartItem) error {
		next, err := mutate(cloneCart((*carts)[userID]))
		if err != nil {
			return err
		}
		if len(next) == 0 {
			delete(*carts, userID)
		} else {
			(*carts)[userID] = next
		}
		result = cloneCart(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearCart empties the user's cart.
func (s *Storage) ClearCart(ctx context.Context, userID string) error {
	return s.carts.update(ctx, func(carts *map[string][]persistence.CartItem) error {
		if _, ok := (*carts)[userID]; !ok {
			return errUnchanged
		}
		delete(*carts, userID)
		return nil
	})
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		session.RevokedAt = &revoked
	}
	return session
}

func cloneBooking(booking persistence.Booking) persistence.Booking {
	if booking.CancelledAt != nil {
		at := *booking.CancelledAt
		booking.CancelledAt = &at
	}
	if booking.RefundAmount != nil {
		amount := *booking.RefundAmount
		booking.RefundAmount = &amount
	}
	return booking
}

func cloneBookings(bookings []persistence.Booking) []persistence.Booking {
	out := make([]persistence.Booking, len(bookings))
	for i, booking := range bookings {
		out[i] = cloneBooking(booking)
	}
	return out
}

func cloneCart(items []persistence.CartItem) []persistence.CartItem {
	if len(items) == 0 {
		return []persistence.CartItem{}
	}
	out := make([]persistence.CartItem, len(items))
	copy(out, items)
	return out
}

var (
	_ persistence.UserRepository      = (*Storage)(nil)
	_ persistence.SessionRepository   = (*Storage)(nil)
	_ persistence.BookingRepository   = (*Storage)(nil)
	_ persistence.LoginRepository     = (*Storage)(nil)
	_ persistence.SelectionRepository = (*Storage)(nil)
	_ persistence.CartRepository      = (*Storage)(nil)
)
