package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/learnloop/learnloop/pkg/slogx"
)

// Sender delivers the two transactional mails the auth flows produce. The raw
// token is embedded in a frontend link; the mail never contains the hashed
// form stored server-side.
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, name, token string) error
	SendPasswordResetEmail(ctx context.Context, to, name, token string) error
}

// SMTPConfig holds the connection settings for the upstream mail relay.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// SMTPSender sends mail through a plain-auth SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Welcome to LearnLoop! Please confirm your email address by opening the link below:\r\n\r\n"+
			"%s\r\n\r\n"+
			"The link expires in 24 hours. If you did not create an account, you can ignore this mail.\r\n",
		name, link)

	return s.send(ctx, to, "Verify your email address", body)
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"We received a request to reset your LearnLoop password. Open the link below to choose a new one:\r\n\r\n"+
			"%s\r\n\r\n"+
			"The link expires in 1 hour. If you did not request a reset, you can ignore this mail.\r\n",
		name, link)

	return s.send(ctx, to, "Reset your password", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	log := slogx.FromContext(ctx)

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		log.Error("smtp send failed", "to", to, "subject", subject, "err", err)
		return fmt.Errorf("email: send: %w", err)
	}

	log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// LogSender writes mails to the log instead of delivering them. Used in dev
// and tests where no relay is configured.
type LogSender struct {
	FrontendURL string
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	slogx.FromContext(ctx).Info("verification email (log sender)",
		"to", to,
		"link", fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.FrontendURL, "/"), token),
	)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, to, name, token string) error {
	slogx.FromContext(ctx).Info("password reset email (log sender)",
		"to", to,
		"link", fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.FrontendURL, "/"), token),
	)
	return nil
}
