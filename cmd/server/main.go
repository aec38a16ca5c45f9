package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "modernc.org/sqlite"

	emailPkg "rippedcity/internal/adapters/email"
	web "rippedcity/internal/adapters/http"
	"rippedcity/internal/config"
	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("config_load_failed")
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
	log := logger.Get()

	deps := &web.Deps{Cfg: cfg}

	// Remote backend. Without both Supabase values the app serves the
	// configuration-error page; demo mode can stand in with a local store.
	if cfg.SupabaseConfigured() {
		deps.Service = remote.NewSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		log.Info().Str("url", cfg.SupabaseURL).Msg("remote backend configured")
	} else {
		log.Warn().Msg("SUPABASE_URL / SUPABASE_ANON_KEY not set — remote backend disabled")
	}

	// Demo store: SQLite-seeded stand-in behind the hidden demo entry path.
	if cfg.DemoMode {
		dsn := cfg.DemoDBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open demo database")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("demo database unreachable")
		}
		demo, err := remote.NewDemo(db, cfg.CoachEmail)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize demo store")
		}
		deps.Demo = demo
		log.Info().Str("path", cfg.DemoDBPath).Msg("demo mode enabled")
	}

	// Configure email sender
	if cfg.ResendKey != "" {
		deps.Sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Info().Msg("email sender configured (Resend)")
	} else {
		deps.Sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Warn().Msg("RIPPEDCITY_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Info().Msg("email sender configured (noop — set RIPPEDCITY_RESEND_KEY for real delivery)")
		}
	}

	mux := web.NewMux(deps)

	log.Info().
		Str("version", version).
		Str("addr", cfg.Addr).
		Str("env", cfg.Env).
		Msg("rippedcity starting")

	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
