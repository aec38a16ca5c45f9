package orchestrators

import (
	"context"
	"strings"

	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// AuthForLogin defines the auth gateway interface needed by Login.
type AuthForLogin interface {
	SignInWithPassword(ctx context.Context, email, password string) (remote.Session, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	Session remote.Session
	Demo    bool // demo entry path taken, no real session exists
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Auth       AuthForLogin
	Configured bool
	DemoMode   bool
}

// demoBypassEmail triggers the demo entry path when the backend is not
// configured. Only honored in demo mode; production deployments never
// take this branch.
const demoBypassEmail = "tbone0189@gmail.com"

// ExecuteLogin signs a visitor in against the remote auth service.
// PRE: Email and password collected from the sign-in form
// POST: Returns the backend session on success; backend error messages
// pass through verbatim for display
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := strings.TrimSpace(input.Email)

	if !deps.Configured {
		if deps.DemoMode && strings.ToLower(email) == demoBypassEmail {
			logger.Get().Info().Str("event", "demo_login").Msg("auth_event")
			return LoginResult{Demo: true}, nil
		}
		logger.Get().Warn().Str("event", "login_unconfigured").Msg("auth_event")
		return LoginResult{}, remote.ErrNotConfigured
	}

	sess, err := deps.Auth.SignInWithPassword(ctx, email, input.Password)
	if err != nil {
		logger.Get().Info().Str("event", "login_failed").Str("email", email).Err(err).Msg("auth_event")
		return LoginResult{}, err
	}

	logger.Get().Info().Str("event", "login_success").Str("email", sess.Email).Msg("auth_event")
	return LoginResult{Session: sess}, nil
}
