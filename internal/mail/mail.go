// Package mail delivers the few transactional emails the server sends.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/gomail.v2"
)

// Sender sends a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay with gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// LogSender writes emails to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	slog.Info("Email not sent, SMTP disabled", "to", to, "subject", subject, "body", body)
	return nil
}

// Message is an email captured by a RecordingSender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// RecordingSender keeps sent emails in memory. Err, when set, is returned
// from every Send instead of recording the message.
type RecordingSender struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (r *RecordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of the recorded emails.
func (r *RecordingSender) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
