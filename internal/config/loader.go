package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Payment providers.
const (
	PaymentSimulated = "simulated"
	PaymentStripe    = "stripe"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	Env string `env:"STUDIO_ENV" env-default:"local" env-description:"local, dev or prod; selects the log format"`

	HTTPPort        int           `env:"STUDIO_HTTP_PORT" env-default:"8080" env-description:"HTTP listen port"`
	ReadTimeout     time.Duration `env:"STUDIO_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"STUDIO_HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `env:"STUDIO_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"STUDIO_SHUTDOWN_TIMEOUT" env-default:"10s"`

	StoreDriver       string        `env:"STUDIO_STORE_DRIVER" env-default:"sqlite" env-description:"memory, sqlite, postgres or redis"`
	SQLiteDSN         string        `env:"STUDIO_SQLITE_DSN" env-default:"file:studio.db"`
	SQLiteBusyTimeout time.Duration `env:"STUDIO_SQLITE_BUSY_TIMEOUT" env-default:"5s"`
	SQLiteJournalMode string        `env:"STUDIO_SQLITE_JOURNAL_MODE" env-default:"WAL"`
	PostgresDSN       string        `env:"STUDIO_POSTGRES_DSN"`
	RedisAddr         string        `env:"STUDIO_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword     string        `env:"STUDIO_REDIS_PASSWORD"`
	RedisDB           int           `env:"STUDIO_REDIS_DB" env-default:"0"`
	RedisKeyPrefix    string        `env:"STUDIO_REDIS_KEY_PREFIX" env-default:"studio:"`

	SessionTTL           time.Duration `env:"STUDIO_SESSION_TTL" env-default:"24h"`
	SessionPruneSchedule string        `env:"STUDIO_SESSION_PRUNE_SCHEDULE" env-default:"@every 15m" env-description:"cron schedule for expired session cleanup"`
	TimeZone             string        `env:"STUDIO_TIME_ZONE" env-default:"Asia/Kolkata" env-description:"IANA zone slot dates are interpreted in"`

	PaymentProvider string `env:"STUDIO_PAYMENT_PROVIDER" env-default:"simulated" env-description:"simulated or stripe"`
	StripeSecretKey string `env:"STUDIO_STRIPE_SECRET_KEY"`
	RefundEndpoint  string `env:"STUDIO_REFUND_ENDPOINT" env-description:"URL accepting {paymentId, amount}; empty simulates refunds unless stripe is configured"`

	AdminName     string `env:"STUDIO_ADMIN_NAME" env-default:"Studio Admin"`
	AdminEmail    string `env:"STUDIO_ADMIN_EMAIL"`
	AdminPassword string `env:"STUDIO_ADMIN_PASSWORD"`

	LoginRatePerMinute float64 `env:"STUDIO_LOGIN_RATE_PER_MINUTE" env-default:"10"`
	LoginBurst         int     `env:"STUDIO_LOGIN_BURST" env-default:"5"`
}

// Load parses configuration values from the current process environment.
//
// Defaults come from the struct tags. Values that parse but make no sense
// (non-positive ports, unknown drivers, stripe without a key) are reported
// together.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.PaymentProvider = strings.ToLower(strings.TrimSpace(cfg.PaymentProvider))
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load for main; it panics on invalid configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Description lists the supported environment variables.
func Description() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// Location resolves the configured studio time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// LoginRateInterval is the spacing between login attempts allowed per client.
func (c Config) LoginRateInterval() time.Duration {
	if c.LoginRatePerMinute <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / c.LoginRatePerMinute)
}

func (c Config) validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "STUDIO_HTTP_PORT")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "STUDIO_SESSION_TTL")
	}
	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "STUDIO_TIME_ZONE")
	}

	switch c.StoreDriver {
	case "memory", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.PostgresDSN) == "" {
			missing = append(missing, "STUDIO_POSTGRES_DSN")
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			missing = append(missing, "STUDIO_REDIS_ADDR")
		}
	default:
		invalid = append(invalid, "STUDIO_STORE_DRIVER")
	}

	switch c.PaymentProvider {
	case PaymentSimulated:
	case PaymentStripe:
		if strings.TrimSpace(c.StripeSecretKey) == "" {
			missing = append(missing, "STUDIO_STRIPE_SECRET_KEY")
		}
	default:
		invalid = append(invalid, "STUDIO_PAYMENT_PROVIDER")
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		if c.AdminEmail == "" {
			missing = append(missing, "STUDIO_ADMIN_EMAIL")
		} else {
			missing = append(missing, "STUDIO_ADMIN_PASSWORD")
		}
	}
	if c.LoginRatePerMinute < 0 || c.LoginBurst < 0 {
		invalid = append(invalid, "STUDIO_LOGIN_RATE_PER_MINUTE")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment variable values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
