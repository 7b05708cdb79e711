// Package mail sends verification and password-reset messages. Delivery is
// best effort: callers log failures but never roll back token creation.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/vkarpins/stashkeeper/internal/server/config"
)

// Mailer is the outbound-mail contract consumed by the auth service.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, token, otp string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// SMTPMailer delivers messages through a plain SMTP relay via go-mail.
type SMTPMailer struct {
	host string
	port int
	from string
}

// NewSMTPMailer constructs a mailer from server config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{host: cfg.SMTPHost, port: cfg.SMTPPort, from: cfg.MailFrom}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, toEmail, token, otp string) error {
	subject := "Verify your StashKeeper account"
	body := fmt.Sprintf(
		"Welcome to StashKeeper.\n\nYour verification code is %s.\nOr follow the link: https://stashkeeper.app/verify/%s\n",
		otp, token)
	return m.send(ctx, toEmail, subject, body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	subject := "StashKeeper password reset"
	body := fmt.Sprintf(
		"A password reset was requested for this address.\nReset link: https://stashkeeper.app/reset/%s\n\nIf this was not you, ignore this message.\n",
		token)
	return m.send(ctx, toEmail, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, toEmail, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.from, err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("invalid to address %q: %w", toEmail, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.host, gomail.WithPort(m.port), gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
