// Package mailer delivers rendered HTML notifications.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender sends one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// SMTP sends mail through an SMTP relay.
type SMTP struct {
	client *mail.Client
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSMTP builds an SMTP sender. Authentication is enabled when a username is set.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) (*SMTP, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{client: client, cfg: cfg, logger: logger}, nil
}

// Send delivers one message.
func (s *SMTP) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.logger.Debug("email sent", zap.String("to", to))
	return nil
}

// Log is a Sender for development setups without SMTP; it only logs.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging sender.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs the message instead of delivering it.
func (l *Log) Send(_ context.Context, to, subject, _ string) error {
	l.logger.Info("email delivery disabled, dropping message", zap.String("to", to), zap.String("subject", subject))
	return nil
}
