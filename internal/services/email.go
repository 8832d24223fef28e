package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"trysite/internal/models"

	"github.com/rs/zerolog"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
	log zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log.With().Str("component", "smtp").Logger()}
}

func (s *SMTPSender) Send(_ context.Context, msg models.MailMessage) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	recipients := []string{msg.To}
	if msg.Bcc != "" {
		recipients = append(recipients, msg.Bcc)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, recipients, buildMessage(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	s.log.Info().Str("to", msg.To).Bool("bcc", msg.Bcc != "").Msg("Email sent")
	return nil
}

// buildMessage renders headers and body. Bcc recipients only appear in the
// envelope.
func buildMessage(from string, msg models.MailMessage) []byte {
	contentType := "text/plain"
	if msg.IsHTMLBody {
		contentType = "text/html"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogSender writes mail to the log instead of sending it. Used when no SMTP
// host is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "mail-log").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg models.MailMessage) error {
	s.log.Info().
		Str("to", msg.To).
		Str("bcc", msg.Bcc).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Email not sent, no SMTP host configured")
	return nil
}

var confirmationEmailTemplate = template.Must(template.New("confirmation").Parse(
	`Hello,<br><br>Your demo site '{{.SiteName}}' has been created.<br><br>` +
		`1) Setup your site by opening <a href="{{.ConfirmationLink}}">this link</a>.<br><br>` +
		`2) Log into the <a href="{{.SiteURL}}/admin">admin</a> with these credentials:<br>` +
		`Username: {{.AdminName}}<br>Password: {{.AdminPassword}}<br><br>` +
		`Note: The site will be disabled on Sunday at 10PM CET.`))

type ConfirmationEmail struct {
	SiteName         string
	ConfirmationLink string
	SiteURL          string
	AdminName        string
	AdminPassword    string
}

func RenderConfirmationEmail(data ConfirmationEmail) (string, error) {
	var buf bytes.Buffer
	if err := confirmationEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
