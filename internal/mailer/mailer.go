// Package mailer is the outbound mail collaborator: plain-text
// notifications over SMTP.
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/services"
)

// Sender sends one plain-text message. The pipeline depends on this
// interface only; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends notifications through the configured SMTP server.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// New builds an SMTP sender from configuration. Missing connection
// settings are a configuration error; callers log it and skip
// notifications for the run.
func New(cfg *config.Config) (*SMTPSender, error) {
	smtp := cfg.SMTP
	if smtp.Address == "" || smtp.Username == "" || smtp.Password == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mailer", "new",
			"smtp address, username, and password must be configured", nil)
	}

	client, err := gomail.NewClient(smtp.Address,
		gomail.WithPort(smtp.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(smtp.Username),
		gomail.WithPassword(smtp.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: build smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: smtp.Username}, nil
}

// Send delivers one message. Blocking, like the rest of the run's I/O.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mailer: from %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %q: %w", to, err)
	}
	return nil
}
