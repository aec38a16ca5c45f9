package orchestrators

import (
	"context"
	"strings"

	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// RecovererForPassword defines the auth service interface needed by
// RecoverPassword.
type RecovererForPassword interface {
	RecoverPassword(ctx context.Context, email string) error
}

// RecoverPasswordInput carries input for the password recovery orchestrator.
type RecoverPasswordInput struct {
	Email string
}

// RecoverPasswordDeps holds dependencies for RecoverPassword.
type RecoverPasswordDeps struct {
	Service    RecovererForPassword
	Configured bool
}

// ExecuteRecoverPassword asks the backend to email a reset link.
// POST: Backend errors pass through verbatim for display
func ExecuteRecoverPassword(ctx context.Context, input RecoverPasswordInput, deps RecoverPasswordDeps) error {
	email := strings.TrimSpace(input.Email)
	if !deps.Configured {
		return remote.ErrNotConfigured
	}
	if err := deps.Service.RecoverPassword(ctx, email); err != nil {
		logger.Get().Error().Err(err).Str("email", email).Msg("password_recover_failed")
		return err
	}
	logger.Get().Info().Str("event", "recover_requested").Str("email", email).Msg("auth_event")
	return nil
}
