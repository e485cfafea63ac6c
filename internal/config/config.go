// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Defaults are tuned for local development.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kelseyhightower/envconfig"
)

// devSecret is used when JWT_SECRET is unset outside production.
const devSecret = "dev-secret-key-do-not-use-in-production!!"

// Config holds all application configuration. Populated from environment
// variables at startup and passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string `envconfig:"ENV" default:"development"`

	// Port is the HTTP listen port.
	Port int `envconfig:"PORT" default:"3000"`

	// FrontendURL is the public origin of the club site, added to CORS.
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// CORSOrigins lists additional allowed origins (comma separated).
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	// TrustedProxies lists the CIDRs whose forwarding headers are believed
	// when resolving the client address.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,::1/128,fd00::/8"`

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// StaticDir is served at / when set. Empty disables static serving.
	StaticDir string `envconfig:"STATIC_DIR"`

	// BodyLimit caps request bodies (echo size notation, e.g. "10K").
	BodyLimit string `envconfig:"BODY_LIMIT" default:"10K"`

	// MetricsEnabled exposes Prometheus metrics at /metrics.
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// Version is reported by the health endpoint.
	Version string `envconfig:"APP_VERSION" default:"1.0.0"`

	// Nested structs get a prefixed key, but envconfig falls back to the
	// bare tag name, so DB_HOST and JWT_SECRET work as written below.
	Database  DatabaseConfig  `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"CACHE"`
	Auth      AuthConfig      `envconfig:"AUTH"`
	RateLimit RateLimitConfig `envconfig:"LIMITS"`
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (DB_HOST, DB_USER, DB_PASSWORD, DB_NAME) are read separately so container
// orchestrators can manage each independently. DATABASE_URL wins when set.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format. If no port is
	// specified, 3306 is appended automatically.
	Host     string `envconfig:"DB_HOST" default:"localhost:3306"`
	User     string `envconfig:"DB_USER" default:"clubgate"`
	Password string `envconfig:"DB_PASSWORD" default:"clubgate"`
	Name     string `envconfig:"DB_NAME" default:"clubgate"`

	// URL is a full go-sql-driver DSN, bypassing the individual fields.
	URL string `envconfig:"DATABASE_URL"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built with FormatDSN so
// special characters in passwords are escaped.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters. Redis is optional: an empty
// URL disables the admin stats cache.
type RedisConfig struct {
	URL      string        `envconfig:"REDIS_URL"`
	StatsTTL time.Duration `envconfig:"REDIS_STATS_TTL" default:"30s"`
}

// AuthConfig holds token, hashing and bootstrap-admin settings.
type AuthConfig struct {
	// Secret signs bearer tokens. Must be 32+ characters in production.
	Secret string `envconfig:"JWT_SECRET"`

	// TokenTTL is the token lifetime and the session record lifetime.
	TokenTTL time.Duration `envconfig:"JWT_EXPIRES_IN" default:"24h"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `envconfig:"BCRYPT_COST" default:"12"`

	// SessionRetention is how long expired or revoked sessions are kept
	// before the maintenance job purges them.
	SessionRetention time.Duration `envconfig:"SESSION_RETENTION" default:"168h"`

	// AdminEmail and AdminPassword seed the first admin account on startup.
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
}

// RateLimitConfig holds the three limiter policies and the compaction cadence.
type RateLimitConfig struct {
	AuthWindow    time.Duration `envconfig:"RATELIMIT_AUTH_WINDOW" default:"15m"`
	AuthMax       int           `envconfig:"RATELIMIT_AUTH_MAX" default:"5"`
	ContactWindow time.Duration `envconfig:"RATELIMIT_CONTACT_WINDOW" default:"1h"`
	ContactMax    int           `envconfig:"RATELIMIT_CONTACT_MAX" default:"10"`
	GlobalWindow  time.Duration `envconfig:"RATELIMIT_GLOBAL_WINDOW" default:"1m"`
	GlobalMax     int           `envconfig:"RATELIMIT_GLOBAL_MAX" default:"60"`

	// CompactInterval is how often stale windows and expired sessions are
	// deleted.
	CompactInterval time.Duration `envconfig:"RATELIMIT_COMPACT_INTERVAL" default:"5m"`
}

// Load reads configuration from environment variables with defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		if c.Auth.Secret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if len(c.Auth.Secret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	}
	if c.Auth.Secret == "" {
		c.Auth.Secret = devSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.Auth.BcryptCost)
	}
	rl := c.RateLimit
	if rl.AuthMax < 1 || rl.ContactMax < 1 || rl.GlobalMax < 1 {
		return errors.New("rate limit maximums must be at least 1")
	}
	if rl.AuthWindow <= 0 || rl.ContactWindow <= 0 || rl.GlobalWindow <= 0 {
		return errors.New("rate limit windows must be positive")
	}
	if rl.CompactInterval <= 0 {
		return errors.New("RATELIMIT_COMPACT_INTERVAL must be positive")
	}
	return nil
}

// AllowedOrigins returns the frontend URL plus any extra CORS origins.
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.FrontendURL}
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction matches common variants like "Production" and "prod".
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}
