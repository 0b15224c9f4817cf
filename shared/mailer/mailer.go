package mailer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("mailer is not configured")

// Mailer represents an email sender.
type Mailer struct {
	config     Config
	dialer     *gomail.Dialer
	configured bool
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"SMTP_HOST" envDefault:"smtp-relay.brevo.com"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"MAIL_FROM"`
	FromName string `env:"MAIL_FROM_NAME" envDefault:"Auxin"`
}

// NewMailer creates a new Mailer instance with the given configuration.
// An incomplete configuration does not stop the process: the mailer is created in an
// unconfigured state and every send reports ErrNotConfigured.
func NewMailer(cfg Config, logger *zerolog.Logger) *Mailer {
	if err := cfg.validate(); err != nil {
		logger.Warn().Err(err).Msg("mailer is not configured, outgoing email is disabled")
		return &Mailer{config: cfg}
	}

	dialer := gomail.NewDialer(
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
	)

	return &Mailer{
		config:     cfg,
		dialer:     dialer,
		configured: true,
	}
}

// Configured reports whether the mailer can send email.
func (m *Mailer) Configured() bool {
	return m.configured
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if !m.configured {
		return ErrNotConfigured
	}

	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email via %s:%d: %w", m.config.Host, m.config.Port, err)
	}

	return nil
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetAddressHeader("From", m.config.From, m.config.FromName)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}

// validate checks if the Mailer configuration is valid.
func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing SMTP_USER environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing SMTP_PASS environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing MAIL_FROM environment variable")
	}

	return nil
}
