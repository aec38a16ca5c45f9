package web

import (
	"crypto/rand"
	"net/http"
	"time"

	"rippedcity/internal/adapters/email"
	"rippedcity/internal/adapters/http/middleware"
	"rippedcity/internal/application/portal"
	"rippedcity/internal/config"
	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// Deps holds the HTTP adapter's dependencies.
type Deps struct {
	Cfg     *config.Config
	Service remote.Service // nil when Supabase is not configured
	Demo    *remote.Demo   // nil unless demo mode is enabled
	Sender  email.Sender
}

// Global deps instance (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// Global controller hub (one controller per signed-in browser session)
var hub *portal.Hub

// Global per-visitor wizard and gesture state
var visitors *visitorRegistry

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// loadCSRFKey resolves the CSRF secret. In production the key MUST be
// configured. In development a random key is generated per startup.
func loadCSRFKey(cfg *config.Config) []byte {
	key, err := cfg.CSRFKeyBytes()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("csrf_key_invalid")
	}
	if key != nil {
		return key
	}
	if cfg.IsProduction() {
		logger.Get().Fatal().Msg("RIPPEDCITY_CSRF_KEY is required in production")
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		logger.Get().Fatal().Err(err).Msg("csrf_key_generate_failed")
	}
	logger.Get().Warn().Msg("using random CSRF key; sessions will not survive restart")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(d *Deps) http.Handler {
	deps = d
	sessions = middleware.NewSessionStore()
	hub = portal.NewHub()
	visitors = newVisitorRegistry()
	middleware.SecureCookies = d.Cfg.IsProduction()

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(d.Cfg.StaticDir))))
	registerRoutes(mux)

	csrfKey := loadCSRFKey(d.Cfg)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: RequestLog -> RateLimit -> Visitor -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Visitor(sessions),
		middleware.RateLimit(limiter),
		middleware.RequestLog,
	)
}

// configured reports whether the real backend is reachable.
func configured() bool {
	return deps.Cfg.SupabaseConfigured()
}

// demoAvailable reports whether the demo entry path can land somewhere.
func demoAvailable() bool {
	return deps.Cfg.DemoMode && deps.Demo != nil
}
