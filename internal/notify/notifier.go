package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/craftable-labs/triage/internal/config"
)

type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

type Result struct {
	Success   bool
	MessageID string
	Error     error
}

type Notifier interface {
	Send(ctx context.Context, msg Message) Result
	Name() string
}

func NewNotifier(cfg config.NotifyConfig) (Notifier, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPNotifier(cfg.SMTP, cfg.From), nil
	case "resend":
		return NewResendNotifier(cfg.APIKey), nil
	case "sendgrid":
		return NewSendGridNotifier(cfg.APIKey), nil
	}
	return nil, fmt.Errorf("unknown notify provider: %s (smtp, resend and sendgrid are supported)", cfg.Provider)
}

// ValidateEmail checks for injection characters and RFC 5322 compliance
func ValidateEmail(email string) error {
	if strings.ContainsAny(email, "\r\n,;") {
		return fmt.Errorf("email contains invalid characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

func validateMessage(msg Message) error {
	if err := ValidateEmail(msg.From); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := ValidateEmail(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	// Reject headers with CRLF to prevent injection
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	return nil
}
