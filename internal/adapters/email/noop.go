package email

import (
	"context"
	"fmt"
	"time"

	"rippedcity/pkg/logger"
)

// NoopSender is a no-op email sender for development and testing.
// It logs sends but does not actually deliver emails.
type NoopSender struct{}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email but does not deliver it.
// POST: Returns a noop result without actual delivery
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	logger.Get().Info().Strs("to", req.To).Str("subject", req.Subject).Msg("noop_email_send")
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
