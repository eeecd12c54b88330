// Package notify delivers the end-of-run summary.
package notify

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is one summary notification
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment string // optional file path
}

// Notifier sends a Message somewhere a person will read it
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, Message) error { return nil }

// SMTPConfig holds the mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends messages over authenticated SMTP
type Mailer struct {
	config SMTPConfig
	logger *zap.Logger
}

// NewMailer creates a Mailer. Port 465 uses implicit TLS; anything else
// requires STARTTLS.
func NewMailer(config SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{config: config, logger: logger}
}

// Notify implements Notifier
func (m *Mailer) Notify(ctx context.Context, msg Message) error {
	mm, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.config.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	m.logger.Info("summary mailed", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *Mailer) build(msg Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(m.config.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.Attachment != "" {
		mm.AttachFile(msg.Attachment, mail.WithFileName(filepath.Base(msg.Attachment)))
	}
	return mm, nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.config.Username),
		mail.WithPassword(m.config.Password),
	}
	if m.config.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if m.config.Port > 0 {
		opts = append(opts, mail.WithPort(m.config.Port))
	}
	return opts
}
