package orchestrators

import (
	"context"

	"rippedcity/internal/domain/client"
	"rippedcity/internal/domain/intake"
	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// DirectoryForIntake defines the row-store interface needed by SubmitIntake.
type DirectoryForIntake interface {
	InsertClient(ctx context.Context, s remote.Session, c client.Client) (client.Client, error)
}

// SubmitIntakeInput carries input for the intake submission orchestrator.
type SubmitIntakeInput struct {
	Wizard *intake.Wizard
}

// SubmitIntakeResult carries the result of a completed submission.
type SubmitIntakeResult struct {
	Created client.Client
	Stored  bool // false when the backend is not configured
}

// SubmitIntakeDeps holds dependencies for SubmitIntake.
type SubmitIntakeDeps struct {
	Directory  DirectoryForIntake
	Configured bool
}

// ExecuteSubmitIntake finalizes the wizard and inserts the assembled
// prospect record. Without a configured backend the submission still
// completes so the applicant sees the confirmation; nothing is stored.
// PRE: Wizard is at the final step with all guards satisfied
// POST: Wizard outcome is submitted or failed; the draft survives a
// failure so the applicant can retry
func ExecuteSubmitIntake(ctx context.Context, input SubmitIntakeInput, deps SubmitIntakeDeps) (SubmitIntakeResult, error) {
	w := input.Wizard
	if err := w.BeginSubmit(); err != nil {
		return SubmitIntakeResult{}, err
	}

	payload := w.Payload()

	if !deps.Configured {
		w.FinishSubmit(true)
		logger.Get().Warn().Str("event", "intake_unconfigured").Str("email", payload.Email).Msg("intake_event")
		return SubmitIntakeResult{Created: payload}, nil
	}

	created, err := deps.Directory.InsertClient(ctx, remote.Session{}, payload)
	if err != nil {
		w.FinishSubmit(false)
		logger.Get().Error().Err(err).Str("email", payload.Email).Msg("intake_insert_failed")
		return SubmitIntakeResult{}, err
	}

	w.FinishSubmit(true)
	logger.Get().Info().Str("event", "intake_submitted").Str("id", created.ID).Str("email", created.Email).Msg("intake_event")
	return SubmitIntakeResult{Created: created, Stored: true}, nil
}
