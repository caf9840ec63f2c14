// Package mailer provides the outbound email transports used by the
// notification dispatcher. The provider is chosen by configuration:
// "smtp" for any SMTP-compatible relay, "resend" for the Resend HTTP API,
// "log" for development runs that only log sends.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentdesk/expiry-engine/internal/config"
	"github.com/talentdesk/expiry-engine/internal/notify"
)

// New builds the configured Sender.
func New(cfg *config.Config, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.EmailProvider {
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom), nil
	case "log":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}

// LogSender logs sends instead of delivering them. Used in development and
// as the wiring for environments without an email provider.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, email notify.Email) error {
	s.logger.Info("email send (log provider)", "to", email.To, "subject", email.Subject)
	return nil
}
