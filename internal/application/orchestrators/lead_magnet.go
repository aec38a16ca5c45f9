package orchestrators

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"rippedcity/internal/adapters/email"
	"rippedcity/internal/domain/content"
	"rippedcity/pkg/logger"
)

// SendGuideInput carries input for the lead magnet orchestrator.
type SendGuideInput struct {
	Email string
}

// SendGuideResult reports whether the guide was actually dispatched.
type SendGuideResult struct {
	Sent bool
}

// SendGuideDeps holds dependencies for SendGuide.
type SendGuideDeps struct {
	Sender email.Sender
	From   string
}

var guideValidate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidEmail rejects addresses the lead magnet form should not accept.
var ErrInvalidEmail = fmt.Errorf("a valid email address is required")

// ExecuteSendGuide emails the free guide to an interested visitor. Send
// failures are logged and reported as not-sent rather than as errors;
// the confirmation the visitor sees does not depend on delivery.
// PRE: Email collected from the lead magnet form
func ExecuteSendGuide(ctx context.Context, input SendGuideInput, deps SendGuideDeps) (SendGuideResult, error) {
	addr := strings.TrimSpace(input.Email)
	if err := guideValidate.Var(addr, "required,email"); err != nil {
		return SendGuideResult{}, ErrInvalidEmail
	}

	_, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{addr},
		From:    deps.From,
		Subject: content.LeadMagnetTitle,
		HTML:    guideHTML(),
	})
	if err != nil {
		logger.Get().Error().Err(err).Str("email", addr).Msg("guide_send_failed")
		return SendGuideResult{Sent: false}, nil
	}

	logger.Get().Info().Str("event", "guide_sent").Str("email", addr).Msg("lead_event")
	return SendGuideResult{Sent: true}, nil
}

func guideHTML() string {
	return fmt.Sprintf(`<h1>%s</h1>
<p>Thanks for your interest. Your guide is attached below.</p>
<p>Optimizing digestion is the first step to transforming your physique:
if you can't digest it, you can't absorb it, and if you can't absorb it,
you can't grow from it.</p>
<p>— Ripped City Inc</p>`, content.LeadMagnetTitle)
}
