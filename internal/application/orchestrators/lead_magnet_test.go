package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"rippedcity/internal/adapters/email"
)

type stubSender struct {
	sent []email.SendRequest
	err  error
}

func (s *stubSender) Send(ctx context.Context, req email.SendRequest) (email.SendResult, error) {
	s.sent = append(s.sent, req)
	if s.err != nil {
		return email.SendResult{}, s.err
	}
	return email.SendResult{MessageID: "m-1", SentAt: time.Now()}, nil
}

func TestExecuteSendGuideDeliversToVisitor(t *testing.T) {
	sender := &stubSender{}
	deps := SendGuideDeps{Sender: sender, From: "Ripped City Inc <coach@rippedcityinc.com>"}

	res, err := ExecuteSendGuide(context.Background(), SendGuideInput{Email: " visitor@example.com "}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Sent {
		t.Error("expected sent result")
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "visitor@example.com" {
		t.Errorf("send request = %+v", sender.sent)
	}
	if sender.sent[0].Subject == "" {
		t.Error("guide email needs a subject")
	}
}

func TestExecuteSendGuideRejectsBadAddress(t *testing.T) {
	sender := &stubSender{}
	deps := SendGuideDeps{Sender: sender}

	for _, addr := range []string{"", "not-an-email", "@example.com"} {
		if _, err := ExecuteSendGuide(context.Background(), SendGuideInput{Email: addr}, deps); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("addr %q: expected ErrInvalidEmail, got %v", addr, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Error("invalid addresses must not reach the provider")
	}
}

func TestExecuteSendGuideSwallowsProviderFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("provider down")}
	deps := SendGuideDeps{Sender: sender}

	res, err := ExecuteSendGuide(context.Background(), SendGuideInput{Email: "visitor@example.com"}, deps)
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if res.Sent {
		t.Error("failed delivery must report not-sent")
	}
}
