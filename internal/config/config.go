package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

var (
	ErrMissingJWTSecret      = errors.New("JWT_SECRET_KEY is not set")
	ErrUnknownDatabaseDriver = errors.New("unknown database driver")
	ErrMissingDatabaseURL    = errors.New("DATABASE_URL is required for the postgres driver")
	ErrInvalidTrustedProxy   = errors.New("invalid trusted proxy")
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Redis
		Uploads
		Log
		CORS
		Audit
	}

	HTTP struct {
		Port int32
		Host string

		// Proxies whose X-Forwarded-For is believed; empty uses the peer address
		TrustedProxies []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // SQLite file path
		URL    string // PostgreSQL connection string
	}
	Auth struct {
		JWTSecret   string
		TokenExpiry time.Duration
		BcryptCost  int

		// Login throttling
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Redis struct {
		Addr     string // Empty disables the Redis-backed login limiter
		Password string
		DB       int
	}
	Uploads struct {
		Dir      string
		MaxBytes int64
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
	CORS struct {
		AllowedOrigins []string
	}
	Audit struct {
		Retention         time.Duration // 0 keeps events forever
		RetentionSchedule string        // five-field cron expression
	}
)

// loadDotEnv reads a .env file when present. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	return nil
}

func NewConfig() *Config {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	// Database defaults
	v.SetDefault("database_driver", "")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")

	// Auth defaults
	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("auth_token_expiry", "24h")
	v.SetDefault("auth_bcrypt_cost", 10)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("upload_max_bytes", 10<<20) // 10 MiB

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("cors_allowed_origins", DefaultCORSOrigin)

	v.SetDefault("audit_retention", "2160h") // 90 days
	v.SetDefault("audit_retention_schedule", DefaultAuditRetentionSchedule)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: resolveDriver(v.GetString("DATABASE_DRIVER"), v.GetString("DATABASE_URL")),
			Path:   v.GetString("DATABASE_PATH"),
			URL:    v.GetString("DATABASE_URL"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("JWT_SECRET_KEY"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Uploads: Uploads{
			Dir:      v.GetString("UPLOAD_DIR"),
			MaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Audit: Audit{
			Retention:         v.GetDuration("AUDIT_RETENTION"),
			RetentionSchedule: v.GetString("AUDIT_RETENTION_SCHEDULE"),
		},
	}
}

// resolveDriver picks postgres when a connection URL is given and no driver was set explicitly.
func resolveDriver(driver, url string) DatabaseDriver {
	if driver == "" {
		if url != "" {
			return DatabaseDriverPostgres
		}
		return DatabaseDriverSQLite
	}
	return DatabaseDriver(strings.ToLower(driver))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports configuration that must stop the process before it serves traffic.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	for _, proxy := range c.HTTP.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("%w: %q", ErrInvalidTrustedProxy, proxy)
		}
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
	case DatabaseDriverPostgres:
		if c.Database.URL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDatabaseDriver, c.Database.Driver)
	}
	return nil
}

// validProxy accepts an IP address or a CIDR range.
func validProxy(proxy string) bool {
	if net.ParseIP(proxy) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(proxy)
	return err == nil
}
