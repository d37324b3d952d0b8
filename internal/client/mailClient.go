package client

import (
	"context"
	"fmt"
	"log/slog"
	"storefront/internal/config"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/wneessen/go-mail"
)

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

type smtpMailerImpl struct {
	client  *mail.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	from    string
	timeout time.Duration
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP host is configured.
func NewMailer(cfg *config.SMTP, logger *slog.Logger) (Mailer, error) {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, outgoing mail will only be logged")
		return &logMailerImpl{logger: logger}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("new smtp client: %w", err)
	}

	return &smtpMailerImpl{
		client: client,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		from:    cfg.From,
		timeout: cfg.Timeout,
	}, nil
}

func (m *smtpMailerImpl) Send(ctx context.Context, email *Email) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Text)
	if email.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.client.DialAndSendWithContext(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type logMailerImpl struct {
	logger *slog.Logger
}

func (m *logMailerImpl) Send(ctx context.Context, email *Email) error {
	m.logger.InfoContext(ctx, "mail not sent, SMTP disabled",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Text,
	)
	return nil
}
