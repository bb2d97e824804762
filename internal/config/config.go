package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Submission backends.
const (
	BackendPostgres  = "postgres"
	BackendSimulated = "simulated"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	SubmitBackend        string        `mapstructure:"SUBMIT_BACKEND"`
	SubmitDelay          time.Duration `mapstructure:"SUBMIT_DELAY"`
	SubmitTimeout        time.Duration `mapstructure:"SUBMIT_TIMEOUT"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
	// NotificationRetention is how long submission notices and confirmation
	// records are kept in memory. Zero keeps them for the process lifetime.
	NotificationRetention time.Duration `mapstructure:"NOTIFICATION_RETENTION"`
	ValidationScope      string        `mapstructure:"VALIDATION_SCOPE"`
	Theme                string        `mapstructure:"THEME"`

	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	HIPAAEncryptionKey string        `mapstructure:"HIPAA_ENCRYPTION_KEY"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SUBMIT_BACKEND", "SUBMIT_DELAY", "SUBMIT_TIMEOUT",
	"SESSION_TTL", "SESSION_SWEEP_INTERVAL", "NOTIFICATION_RETENTION", "VALIDATION_SCOPE", "THEME",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT", "BODY_LIMIT", "HIPAA_ENCRYPTION_KEY",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads the environment and an optional .env file, then validates.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SUBMIT_BACKEND", BackendPostgres)
	v.SetDefault("SUBMIT_DELAY", "2s")
	v.SetDefault("SUBMIT_TIMEOUT", "10s")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("NOTIFICATION_RETENTION", "24h")
	v.SetDefault("VALIDATION_SCOPE", "record")
	v.SetDefault("THEME", "clinical")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	cfg.SubmitBackend = strings.ToLower(strings.TrimSpace(cfg.SubmitBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesDatabase reports whether submissions are stored in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.SubmitBackend == BackendPostgres
}

// Validate checks that the configuration is safe to run. DATABASE_URL is
// required only for the postgres backend. In production HIPAA_ENCRYPTION_KEY
// is required and must be a 64-character hex string.
func (c *Config) Validate() error {
	switch c.SubmitBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SUBMIT_BACKEND is %q", BackendPostgres)
		}
	case BackendSimulated:
	default:
		return fmt.Errorf("SUBMIT_BACKEND must be %q or %q, got %q", BackendPostgres, BackendSimulated, c.SubmitBackend)
	}

	switch strings.ToLower(c.ValidationScope) {
	case "", "record", "step":
	default:
		return fmt.Errorf("VALIDATION_SCOPE must be \"record\" or \"step\", got %q", c.ValidationScope)
	}

	if c.SubmitTimeout < 0 || c.SubmitDelay < 0 || c.SessionTTL < 0 || c.NotificationRetention < 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT, SUBMIT_DELAY, SESSION_TTL and NOTIFICATION_RETENTION must not be negative")
	}
	if (c.SessionTTL > 0 || c.NotificationRetention > 0) && c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive when SESSION_TTL or NOTIFICATION_RETENTION is set")
	}

	if c.IsProduction() && c.HIPAAEncryptionKey == "" {
		return fmt.Errorf("HIPAA_ENCRYPTION_KEY is required in production")
	}
	if c.HIPAAEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(c.HIPAAEncryptionKey)
		if err != nil {
			return fmt.Errorf("HIPAA_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("HIPAA_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
		}
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
