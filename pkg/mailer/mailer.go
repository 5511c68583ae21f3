package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Maverics-Seneca/auth-service/pkg/config"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var resetTemplate = template.Must(template.New("reset").Parse(
	`<p>Click the link below to reset your password:</p>
<a href="{{.Link}}">Reset Password</a>
<p>If you didn't request this, ignore this email.</p>`))

// PasswordResetMessage renders the reset email for link.
func PasswordResetMessage(to, link string) (Message, error) {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	return Message{To: to, Subject: "Reset Your Password - MediTrack", HTML: body.String()}, nil
}

// New returns an SMTP sender, or a logging sender when no SMTP host is set.
func New(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		return &logSender{logger: logger}
	}
	return &smtpSender{cfg: cfg, logger: logger}
}

type smtpSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	raw := compose(s.cfg.From, msg)

	var err error
	if s.cfg.UseTLS {
		err = sendTLS(addr, s.cfg.Host, auth, s.cfg.From, msg.To, raw)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, raw)
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func compose(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}

// sendTLS delivers over implicit TLS (port 465 style).
func sendTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("dial tls: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
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

// logSender is used in development when SMTP is not configured.
type logSender struct {
	logger *zap.Logger
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("smtp disabled, email not delivered", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
