package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/studio-booking/internal/payment"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequence(values ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(values) {
			i++
			return fmt.Sprintf("generated-%d", i)
		}
		v := values[i]
		i++
		return v
	}
}

func plainHash(password string) (string, error) {
	return "hash:" + password, nil
}

func plainVerify(hashed, password string) error {
	if hashed != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

type userRepositoryStub struct {
	mu     sync.Mutex
	users  map[string]UserCredentials
	getErr error
}

func newUserRepositoryStub(seed ...UserCredentials) *userRepositoryStub {
	stub := &userRepositoryStub{users: make(map[string]UserCredentials)}
	for _, creds := range seed {
		stub.users[creds.User.ID] = creds
	}
	return stub
}

func (s *userRepositoryStub) CreateUser(_ context.Context, user User, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.User.Email, user.Email) {
			return User{}, ErrAlreadyExists
		}
	}
	s.users[user.ID] = UserCredentials{User: user, PasswordHash: passwordHash}
	return user, nil
}

func (s *userRepositoryStub) GetUser(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return User{}, s.getErr
	}
	creds, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return creds.User, nil
}

func (s *userRepositoryStub) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, creds := range s.users {
		if strings.EqualFold(creds.User.Email, email) {
			return creds, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (s *userRepositoryStub) UpdateUser(_ context.Context, user User, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	s.users[user.ID] = UserCredentials{User: user, PasswordHash: passwordHash}
	return user, nil
}

type sessionRepositoryStub struct {
	mu        sync.Mutex
	sessions  map[string]Session
	createErr error
	pruned    []time.Time
}

func newSessionRepositoryStub(seed ...Session) *sessionRepositoryStub {
	stub := &sessionRepositoryStub{sessions: make(map[string]Session)}
	for _, session := range seed {
		stub.sessions[session.Token] = session
	}
	return stub
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	if _, exists := s.sessions[session.Token]; exists {
		return Session{}, ErrAlreadyExists
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; !ok {
		return Session{}, ErrNotFound
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	at := revokedAt
	session.RevokedAt = &at
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = append(s.pruned, reference)
	removed := 0
	for token, session := range s.sessions {
		if session.RevokedAt != nil || !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

type bookingStoreStub struct {
	mu        sync.Mutex
	bookings  []Booking
	updateErr error
	cleared   int
}

func (s *bookingStoreStub) ListBookings(context.Context) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out, nil
}

func (s *bookingStoreStub) UpdateBookings(_ context.Context, mutate func([]Booking) ([]Booking, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	current := make([]Booking, len(s.bookings))
	copy(current, s.bookings)
	next, err := mutate(current)
	if err != nil {
		return err
	}
	s.bookings = next
	return nil
}

func (s *bookingStoreStub) ClearBookings(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = nil
	s.cleared++
	return nil
}

type loginLogStub struct {
	mu        sync.Mutex
	events    []LoginEvent
	appendErr error
}

func (s *loginLogStub) AppendLogin(_ context.Context, event LoginEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *loginLogStub) ListLogins(context.Context) ([]LoginEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LoginEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

type selectionStoreStub struct {
	mu         sync.Mutex
	selections map[string]Selection
}

func newSelectionStoreStub() *selectionStoreStub {
	return &selectionStoreStub{selections: make(map[string]Selection)}
}

func (s *selectionStoreStub) GetSelection(_ context.Context, userID string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection, ok := s.selections[userID]
	if !ok {
		return Selection{}, ErrNotFound
	}
	return selection, nil
}

func (s *selectionStoreStub) PutSelection(_ context.Context, userID string, selection Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[userID] = selection
	return nil
}

func (s *selectionStoreStub) ClearSelection(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, userID)
	return nil
}

type cartStoreStub struct {
	mu    sync.Mutex
	carts map[string][]CartItem
}

func newCartStoreStub() *cartStoreStub {
	return &cartStoreStub{carts: make(map[string][]CartItem)}
}

func (s *cartStoreStub) GetCart(_ context.Context, userID string) ([]CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartItem, len(s.carts[userID]))
	copy(out, s.carts[userID])
	return out, nil
}

func (s *cartStoreStub) UpdateCart(_ context.Context, userID string, mutate func([]CartItem) ([]CartItem, error)) ([]CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]CartItem, len(s.carts[userID]))
	copy(current, s.carts[userID])
	next, err := mutate(current)
	if err != nil {
		return nil, err
	}
	s.carts[userID] = next
	return next, nil
}

func (s *cartStoreStub) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// interleavingCartStore runs onFirstAccess once, before the first read of the
// cart lands, to model a request that races the caller.
type interleavingCartStore struct {
	*cartStoreStub
	once          sync.Once
	onFirstAccess func()
}

func (s *interleavingCartStore) fire() {
	s.once.Do(func() {
		if s.onFirstAccess != nil {
			s.onFirstAccess()
		}
	})
}

func (s *interleavingCartStore) GetCart(ctx context.Context, userID string) ([]CartItem, error) {
	items, err := s.cartStoreStub.GetCart(ctx, userID)
	s.fire()
	return items, err
}

func (s *interleavingCartStore) UpdateCart(ctx context.Context, userID string, mutate func([]CartItem) ([]CartItem, error)) ([]CartItem, error) {
	s.fire()
	return s.cartStoreStub.UpdateCart(ctx, userID, mutate)
}

type gatewayStub struct {
	mu      sync.Mutex
	result  payment.Result
	err     error
	charges []payment.Charge
	payers  []payment.Payer
}

func (g *gatewayStub) Initiate(_ context.Context, payer payment.Payer, charge payment.Charge) (payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, charge)
	g.payers = append(g.payers, payer)
	return g.result, g.err
}

type refunderStub struct {
	mu       sync.Mutex
	err      error
	requests []payment.RefundRequest
}

func (r *refunderStub) Refund(_ context.Context, req payment.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.err
}

var errStubFailure = errors.New("stub failure")
