// Package mail implements the outbound mail collaborator over SMTP.
package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config holds the SMTP settings for outbound mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends transactional HTML email through an SMTP relay. Delivery
// failures are the caller's to log; nothing here retries.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("mail: SMTP host and port are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail: sender address is required")
	}

	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send delivers a single HTML email.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
