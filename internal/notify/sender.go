package notify

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send ignores ctx: net/smtp has no cancellable API, the worker bounds it with
// the BRPOP cadence instead.
func (s *SMTPSender) Send(_ context.Context, to, name, subject, body string) error {
	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, s.message(to, name, subject, body))
}

// message renders the RFC 5322 message. Names and subject are header-encoded
// and stripped of line breaks.
func (s *SMTPSender) message(to, name, subject, body string) []byte {
	from := mail.Address{Name: stripLineBreaks(s.cfg.FromName), Address: s.cfg.From}
	rcpt := mail.Address{Name: stripLineBreaks(name), Address: to}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", rcpt.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", stripLineBreaks(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func stripLineBreaks(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}
