// internal/app/system/mailer/mailer.go
//
// Package mailer sends the scheduled report emails over SMTP. Messages are
// multipart MIME with an HTML body and optional spreadsheet attachments.
package mailer

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Config holds the SMTP transport settings.
type Config struct {
	Server      string
	Port        int
	Username    string
	Password    string
	FromAddress string

	// Encryption is "starttls" (default), "tls" (implicit TLS, port 465
	// style), or "none".
	Encryption string
}

// Configured reports whether all required transport fields are present.
func (c Config) Configured() bool {
	return c.Server != "" && c.Port != 0 && c.Username != "" &&
		c.Password != "" && c.FromAddress != ""
}

// Attachment is one file attached to an outgoing email.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Email is a renderable outgoing message.
type Email struct {
	To          []string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer sends emails through a configured SMTP relay.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a mailer. Send fails until the config is complete.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Encryption == "" {
		cfg.Encryption = "starttls"
	}
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers the email to all recipients.
func (m *Mailer) Send(email Email) error {
	if !m.cfg.Configured() {
		return fmt.Errorf("smtp is not configured")
	}
	recipients := ParseRecipients(strings.Join(email.To, ","))
	if len(recipients) == 0 {
		return fmt.Errorf("no valid recipient addresses")
	}

	msg, err := buildMIME(m.cfg.FromAddress, recipients, email)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(m.cfg.Server, fmt.Sprint(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)

	switch strings.ToLower(m.cfg.Encryption) {
	case "tls":
		err = m.sendImplicitTLS(addr, auth, recipients, msg)
	default:
		// smtp.SendMail negotiates STARTTLS when the server offers it.
		err = smtp.SendMail(addr, auth, m.cfg.FromAddress, recipients, msg)
	}
	if err != nil {
		return fmt.Errorf("send via %s: %w", addr, err)
	}

	m.log.Info("email sent",
		zap.Int("recipients", len(recipients)),
		zap.String("subject", email.Subject),
		zap.Int("attachments", len(email.Attachments)))
	return nil
}

// sendImplicitTLS handles SMTPS servers that expect TLS from the first byte.
func (m *Mailer) sendImplicitTLS(addr string, auth smtp.Auth, recipients []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Server})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.cfg.FromAddress); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// ParseRecipients splits a comma-separated recipient string, dropping blank
// and obviously malformed entries.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		at := strings.Index(addr, "@")
		if at <= 0 || at == len(addr)-1 || !strings.Contains(addr[at+1:], ".") {
			continue
		}
		out = append(out, addr)
	}
	return out
}

const mimeBoundary = "orgchart-mime-boundary"

// buildMIME assembles a multipart/mixed message: an alternative text/html
// body part followed by base64 attachments.
func buildMIME(from string, recipients []string, email Email) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	writePart := func(contentType, body string) {
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\n\r\n", contentType)
		b.WriteString(body)
		b.WriteString("\r\n")
	}
	if email.TextBody != "" {
		writePart("text/plain", email.TextBody)
	}
	if email.HTMLBody != "" {
		writePart("text/html", email.HTMLBody)
	}
	if email.TextBody == "" && email.HTMLBody == "" {
		return nil, fmt.Errorf("email has no body")
	}

	for _, att := range email.Attachments {
		contentType := att.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)

		encoded := base64.StdEncoding.EncodeToString(att.Content)
		for len(encoded) > 76 {
			b.WriteString(encoded[:76])
			b.WriteString("\r\n")
			encoded = encoded[76:]
		}
		b.WriteString(encoded)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String()), nil
}
