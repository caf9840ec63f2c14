package mailer

import (
	"context"

	mail "gopkg.in/mail.v2"

	"github.com/talentdesk/expiry-engine/internal/notify"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPSender creates an SMTP sender. The dialer connects per send; the
// dispatcher's one-per-second pacing makes connection reuse unnecessary.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one message, honoring the context deadline.
func (s *SMTPSender) Send(ctx context.Context, email notify.Email) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTML)

	// DialAndSend has no context support; bound it ourselves.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
