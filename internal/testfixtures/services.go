package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/payment"
	"github.com/example/studio-booking/internal/scheduler"
)

// ServiceFactory builds application services on a shared Clock and
// IDGenerator so tests can predict timestamps, ids and tokens.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

type ServiceFactoryOption func(*ServiceFactory)

func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// AuthServiceDeps are the repositories an AuthService needs. Hash and Verify
// default to argon2id.
type AuthServiceDeps struct {
	Users      application.UserRepository
	Sessions   application.SessionRepository
	Logins     application.LoginLog
	Hash       application.PasswordHasher
	Verify     application.PasswordVerifier
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// NewAuthService uses the factory generator for both user ids and tokens.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		deps.Users,
		deps.Sessions,
		deps.Logins,
		deps.Hash,
		deps.Verify,
		f.IDGenerator.NextFunc(),
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.SessionTTL,
		deps.Logger,
	)
}

type LedgerDeps struct {
	Store    application.BookingStore
	Refunder payment.Refunder
	// Suffix defaults to a constant, so ids only vary with the clock.
	Suffix func() string
	Logger *slog.Logger
}

// NewLedger applies the cancellation policy in StudioZone.
func (f *ServiceFactory) NewLedger(deps LedgerDeps) *application.Ledger {
	suffix := deps.Suffix
	if suffix == nil {
		suffix = Suffixes("FIX")
	}
	return application.NewLedgerWithLogger(
		deps.Store,
		scheduler.NewCancellationPolicy(StudioZone),
		deps.Refunder,
		f.Clock.NowFunc(),
		suffix,
		deps.Logger,
	)
}

type BookingServiceDeps struct {
	Ledger     *application.Ledger
	Selections application.SelectionStore
	Gateway    payment.Gateway
	Refunder   payment.Refunder
	Logger     *slog.Logger
}

// NewBookingService defaults to the simulated gateway with factory ids.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	gateway := deps.Gateway
	if gateway == nil {
		gateway = payment.NewSimulatedGateway(f.IDGenerator.NextFunc())
	}
	return application.NewBookingServiceWithLogger(
		deps.Ledger,
		deps.Selections,
		gateway,
		deps.Refunder,
		scheduler.NewPlanner(StudioZone),
		f.Clock.NowFunc(),
		deps.Logger,
	)
}
