package infra

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"feedesk/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Text    string
}

// Mailer delivers receipt notifications to parents.
type Mailer interface {
	Send(msg Message) error
}

// NewMailer returns an SMTP mailer when SMTP_HOST is set and a log-only
// mailer otherwise, so local runs never need a mail server.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{From: cfg.MailFrom}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends through jordan-wright/email with PLAIN auth.
type SMTPMailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct {
	From string

	mu   sync.Mutex
	sent []Message
}

func (m *LogMailer) Send(msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	log.Info().
		Str("from", m.From).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("mailer: message logged (SMTP not configured)")
	return nil
}

// Messages returns a copy of what was sent so far.
func (m *LogMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
