package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates registration, login and session lifecycle.
type AuthService struct {
	users          UserRepository
	sessions       SessionRepository
	logins         LoginLog
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, sessions SessionRepository, logins LoginLog, hash PasswordHasher, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, logins, hash, verify, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, sessions SessionRepository, logins LoginLog, hash PasswordHasher, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if hash == nil {
		hash = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		logins:         logins,
		hashPassword:   hash,
		verifyPassword: verify,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result RegisterResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	params.FullName = strings.TrimSpace(params.FullName)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	logger := s.loggerWith(ctx, "Register", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := User{
		ID:        s.idGenerator(),
		FullName:  params.FullName,
		Email:     params.Email,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	user, err = s.users.CreateUser(ctx, user, hash)
	if err != nil {
		return
	}

	var session Session
	session, err = s.issueSession(ctx, user, now)
	if err != nil {
		return
	}

	result = RegisterResult{User: user, Session: session}
	return
}

// Authenticate validates credentials, records a login event and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	params.Email = strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Authenticate", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		err = vErr
		return
	}

	var creds UserCredentials
	creds, err = s.users.GetUserCredentialsByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	var session Session
	session, err = s.issueSession(ctx, creds.User, now)
	if err != nil {
		return
	}

	if s.logins != nil {
		if logErr := s.logins.AppendLogin(ctx, LoginEvent{Email: creds.User.Email, At: now}); logErr != nil {
			logger.WarnContext(ctx, "failed to record login event", "error", logErr)
		}
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

func (s *AuthService) issueSession(ctx context.Context, user User, now time.Time) (Session, error) {
	session := Session{
		Token:     s.tokenGenerator(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if s.sessions == nil {
		return session, nil
	}
	if session.Token == "" {
		return Session{}, fmt.Errorf("token generator returned an empty token")
	}
	return s.sessions.CreateSession(ctx, session)
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.Session.UserID).InfoContext(ctx, "session refreshed")
	}()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.activeSession(ctx, token)
	if err != nil {
		return
	}

	now := s.now()
	if _, err = s.sessions.RevokeSession(ctx, token, now); err != nil {
		return
	}

	var user User
	user, err = s.lookupSessionUser(ctx, session)
	if err != nil {
		return
	}

	session, err = s.issueSession(ctx, user, now)
	if err != nil {
		return
	}

	result = RefreshSessionResult{Session: session}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil || s.users == nil {
		err = fmt.Errorf("session or user repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.DebugContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.activeSession(ctx, trimmed)
	if err != nil {
		return
	}

	var user User
	user, err = s.lookupSessionUser(ctx, session)
	if err != nil {
		return
	}

	principal = Principal{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin()}
	return
}

// CurrentUser returns the account behind principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal Principal) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	return s.users.GetUser(ctx, principal.UserID)
}

// PruneExpiredSessions deletes sessions that expired or were revoked.
func (s *AuthService) PruneExpiredSessions(ctx context.Context) (removed int, err error) {
	if s == nil || s.sessions == nil {
		return 0, fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "PruneExpiredSessions")
	removed, err = s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		logger.ErrorContext(ctx, "failed to prune sessions", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if removed > 0 {
		logger.InfoContext(ctx, "pruned sessions", "removed", removed)
	}
	return removed, nil
}

// EnsureAdminParams describes the bootstrap admin account.
type EnsureAdminParams struct {
	FullName string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// EnsureAdmin creates the admin account, or promotes and re-keys an existing
// account with the same email.
func (s *AuthService) EnsureAdmin(ctx context.Context, params EnsureAdminParams) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	params.FullName = strings.TrimSpace(params.FullName)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	logger := s.loggerWith(ctx, "EnsureAdmin", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin bootstrap failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "admin account ready")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	var creds UserCredentials
	creds, err = s.users.GetUserCredentialsByEmail(ctx, params.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		user, err = s.users.CreateUser(ctx, User{
			ID:        s.idGenerator(),
			FullName:  params.FullName,
			Email:     params.Email,
			Role:      RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}, hash)
		return
	case err != nil:
		return
	}

	existing := creds.User
	existing.Role = RoleAdmin
	existing.UpdatedAt = now
	user, err = s.users.UpdateUser(ctx, existing, hash)
	return
}

func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

func (s *AuthService) lookupSessionUser(ctx context.Context, session Session) (User, error) {
	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}
