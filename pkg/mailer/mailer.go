package mailer

import (
	"context"
	"fmt"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/wneessen/go-mail"
)

// Message is one outbound email, already rendered.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered messages. Implemented by the SMTP mailer and by
// test fakes.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through the configured SMTP relay using go-mail.
type SMTPMailer struct {
	cfg config.MailConfig
}

// New builds the SMTP mailer. Returns an error when mail is not configured so
// callers can fall back to a no-op sender explicitly.
func New(cfg config.MailConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send delivers one message. A fresh client per send keeps the mailer
// stateless; volume is a handful of messages per admin action.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	out := mail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}
	if m.cfg.ReplyTo != "" {
		if err := out.ReplyTo(m.cfg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := mail.NewClient(
		m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithUsername(m.cfg.SMTPUser),
		mail.WithPassword(m.cfg.SMTPPassword),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.cfg.SendTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
