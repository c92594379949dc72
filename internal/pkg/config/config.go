package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session   SessionConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Gate      GateConfig
	Login     LoginConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET, required"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"`
	Cookie       string        `env:"SESSION_COOKIE, default=session"`
	Issuer       string        `env:"SESSION_ISSUER, default=storefront"`
	// SecureCookie is unset by default; see CookieSecure.
	SecureCookie *bool         `env:"SESSION_COOKIE_SECURE"`
}

type StoreConfig struct {
	Driver         string `env:"STORE_DRIVER,     default=postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START, default=true"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

// RedisConfig is optional: an empty address disables login throttling.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type GateConfig struct {
	// ProtectedRoutes maps a path prefix to the minimum role, e.g.
	// /admin:ADMIN,/account:USER
	ProtectedRoutes map[string]string `env:"PROTECTED_ROUTES, default=/admin:ADMIN,/account:USER"`
	LoginPath       string            `env:"LOGIN_PATH,       default=/login"`
	DeniedPath      string            `env:"DENIED_PATH,      default=/"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=0"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Login.MaxAttempts < 0 {
		return errors.New("LOGIN_MAX_ATTEMPTS must not be negative")
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// CookieSecure reports whether the session cookie carries the Secure flag.
// Without SESSION_COOKIE_SECURE it is on everywhere except development.
func (c *Config) CookieSecure() bool {
	if c.Session.SecureCookie != nil {
		return *c.Session.SecureCookie
	}
	return !c.IsDevelopment()
}

// ThrottleLogins reports whether login attempts should be rate limited.
func (c *Config) ThrottleLogins() bool {
	return c.Redis.Addr != "" && c.Login.MaxAttempts > 0
}
