// Package config loads application configuration from the environment.
package config

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all environment-driven settings.
type Config struct {
	Addr     string `env:"RIPPEDCITY_ADDR, default=:8080"`
	Env      string `env:"RIPPEDCITY_ENV,  default=development"`
	LogLevel string `env:"LOG_LEVEL,       default=info"`

	// Supabase connection. Both values must be present for the remote
	// backend to be considered configured; otherwise the app renders the
	// configuration-error page and disables all auth and data calls.
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	// CoachEmail is the single administrator identity. A session whose
	// email matches exactly (case-sensitive) gets the coach dashboard.
	CoachEmail string `env:"COACH_EMAIL, default=rippedcityinc@mail.com"`

	// DemoMode enables the hidden demo entry path (logo gesture and the
	// demo bypass email). Never enable in production.
	DemoMode bool `env:"DEMO_MODE, default=false"`

	// CSRFKey is a 32-byte hex-encoded secret. Required in production.
	CSRFKey string `env:"RIPPEDCITY_CSRF_KEY"`

	// Resend email delivery for the lead-magnet guide. Empty key falls
	// back to the noop sender.
	ResendKey   string `env:"RIPPEDCITY_RESEND_KEY"`
	EmailFrom   string `env:"RIPPEDCITY_EMAIL_FROM, default=Ripped City Inc <noreply@rippedcityinc.com>"`
	EmailReply  string `env:"RIPPEDCITY_REPLY_TO,   default=rippedcityinc@mail.com"`
	DemoDBPath  string `env:"RIPPEDCITY_DEMO_DB,    default=rippedcity-demo.db"`
	TemplateDir string `env:"RIPPEDCITY_TEMPLATES,  default=internal/adapters/http/templates"`
	StaticDir   string `env:"RIPPEDCITY_STATIC,     default=static"`
}

// Load reads configuration from a .env file (if present) and the process
// environment. The .env file never overrides already-set variables.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SupabaseConfigured reports whether both remote service values are set.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ErrBadCSRFKey is returned when RIPPEDCITY_CSRF_KEY is set but malformed.
var ErrBadCSRFKey = errors.New("RIPPEDCITY_CSRF_KEY must be 64 hex characters (32 bytes)")

// CSRFKeyBytes decodes the configured CSRF key. Returns nil when unset.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, ErrBadCSRFKey
	}
	return key, nil
}
