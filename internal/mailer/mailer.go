package mailer

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when mail settings are incomplete. Callers
// report it without mutating any state.
var ErrNotConfigured = errors.New("mail provider is not configured")

// Mailer delivers candidate notifications.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
}

// SMTP sends mail through a single SMTP endpoint.
type SMTP struct {
	dialer *gomail.Dialer
	sender string
	logger *zap.Logger
}

// NewSMTP validates the config and returns an SMTP mailer.
func NewSMTP(cfg *Config, logger *zap.Logger) (*SMTP, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg == nil || strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	sender := strings.TrimSpace(cfg.Sender)
	if sender == "" {
		sender = cfg.Username
	}

	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		sender: sender,
		logger: logger,
	}, nil
}

// Send delivers one HTML mail.
func (s *SMTP) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	s.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
