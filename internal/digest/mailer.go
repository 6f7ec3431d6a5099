package digest

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
)

// Mailer sends the rendered digest over SMTP. With no host configured it
// becomes a no-op so local runs can render without a mail account.
type Mailer struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Injectable for tests; defaults to smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPHost != "" && m.cfg.DigestFrom != "" && m.cfg.DigestTo != ""
}

// Send delivers the digest HTML to the configured recipient.
func (m *Mailer) Send(subject, htmlBody string) error {
	if !m.Enabled() {
		m.logger.Info().Msg("SMTP not configured, skipping delivery")
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.DigestFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", m.cfg.DigestTo)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	if err := m.send(addr, auth, m.cfg.DigestFrom, []string{m.cfg.DigestTo}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}
	m.logger.Info().Str("to", m.cfg.DigestTo).Msg("digest delivered")
	return nil
}
