package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/config"
	httptransport "github.com/example/studio-booking/internal/http"
	"github.com/example/studio-booking/internal/jobs"
	"github.com/example/studio-booking/internal/kvstore"
	"github.com/example/studio-booking/internal/logging"
	"github.com/example/studio-booking/internal/payment"
	"github.com/example/studio-booking/internal/persistence/docstore"
	"github.com/example/studio-booking/internal/scheduler"
)

func main() {
	help := flag.Bool("help", false, "print the supported environment variables and exit")
	flag.Parse()
	if *help {
		fmt.Fprintln(os.Stdout, config.Description())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("studio booking service stopped", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := kvstore.Open(ctx, kvstore.Options{
		Driver:            cfg.StoreDriver,
		SQLiteDSN:         cfg.SQLiteDSN,
		SQLiteBusyTimeout: cfg.SQLiteBusyTimeout,
		SQLiteJournalMode: cfg.SQLiteJournalMode,
		PostgresDSN:       cfg.PostgresDSN,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RedisDB:           cfg.RedisDB,
		RedisKeyPrefix:    cfg.RedisKeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close store", logging.Err(cerr))
		}
	}()

	app, err := newApp(ctx, cfg, store, time.Now, logger)
	if err != nil {
		return err
	}

	cron := jobs.NewScheduler(logger)
	if err := cron.SchedulePruning(ctx, cfg.SessionPruneSchedule, app.auth); err != nil {
		return err
	}
	cron.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := cron.Stop(stopCtx); err != nil {
			logger.Warn("background jobs did not stop in time", logging.Err(err))
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", logging.Err(err))
		}
	}()

	logger.Info("studio booking API listening",
		"addr", server.Addr,
		"store", cfg.StoreDriver,
		"payments", cfg.PaymentProvider,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// app is the wired service graph behind the HTTP API.
type app struct {
	handler http.Handler
	auth    *application.AuthService
}

func newApp(ctx context.Context, cfg config.Config, store kvstore.Store, now func() time.Time, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}

	gateway, refunder, err := newPayments(cfg)
	if err != nil {
		return nil, err
	}

	storage := docstore.New(store, logger)
	users := newUserRepositoryAdapter(storage)
	sessions := newSessionRepositoryAdapter(storage)
	logins := newLoginLogAdapter(storage)

	authService := application.NewAuthServiceWithLogger(
		users,
		sessions,
		logins,
		nil,
		nil,
		uuid.NewString,
		func() string { return randomHex(32) },
		now,
		cfg.SessionTTL,
		logger,
	)
	ledger := application.NewLedgerWithLogger(
		newBookingStoreAdapter(storage),
		scheduler.NewCancellationPolicy(loc),
		refunder,
		now,
		nil,
		logger,
	)
	bookingService := application.NewBookingServiceWithLogger(
		ledger,
		newSelectionStoreAdapter(storage),
		gateway,
		refunder,
		scheduler.NewPlanner(loc),
		now,
		logger,
	)
	cartService := application.NewCartServiceWithLogger(newCartStoreAdapter(storage), logger)
	adminService := application.NewAdminServiceWithLogger(ledger, logins, logger)

	if cfg.AdminEmail != "" {
		_, err := authService.EnsureAdmin(ctx, application.EnsureAdminParams{
			FullName: cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	var limiter *httptransport.RateLimiter
	if interval := cfg.LoginRateInterval(); interval > 0 {
		limiter = httptransport.NewRateLimiter(interval, cfg.LoginBurst, logger)
	}

	secureCookie := cfg.Env == logging.EnvProd
	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, secureCookie, logger),
		Bookings:     httptransport.NewBookingHandler(bookingService, logger),
		Cart:         httptransport.NewCartHandler(cartService, logger),
		Admin:        httptransport.NewAdminHandler(adminService, logger),
		Sessions:     authService,
		LoginLimiter: limiter,
		Logger:       logger,
	})

	return &app{handler: handler, auth: authService}, nil
}

// newPayments picks the gateway and refund capability. Stripe covers both;
// otherwise refunds go to the configured endpoint or are only simulated.
func newPayments(cfg config.Config) (payment.Gateway, payment.Refunder, error) {
	if cfg.PaymentProvider == config.PaymentStripe {
		stripeGateway, err := payment.NewStripeGateway(cfg.StripeSecretKey, nil)
		if err != nil {
			return nil, nil, err
		}
		return stripeGateway, stripeGateway, nil
	}

	gateway := payment.NewSimulatedGateway(uuid.NewString)
	if cfg.RefundEndpoint != "" {
		return gateway, payment.NewHTTPRefunder(cfg.RefundEndpoint, &http.Client{Timeout: 10 * time.Second}), nil
	}
	return gateway, nil, nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
