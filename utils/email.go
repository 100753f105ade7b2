package utils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends transactional email through SendGrid
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
	}
	if fromName == "" {
		fromName = "Fitly App"
	}
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendEmail sends one message with plain text and HTML bodies
func (m *SendGridMailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", toEmail, err)
	}
	if response.StatusCode >= 400 {
		slog.Error("SendGrid API error", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	slog.Info("email sent", "to", toEmail, "status", response.StatusCode)
	return nil
}

func (m *SendGridMailer) SendPasswordReset(ctx context.Context, toName, toEmail, resetURL string) error {
	return m.SendEmail(ctx, toName, toEmail, "Password Reset Request",
		fmt.Sprintf("You requested a password reset. Open this link to reset your password: %s", resetURL),
		fmt.Sprintf(`<p>You requested a password reset. Click the link below to reset your password:</p>
<a href="%s">%s</a>`, resetURL, resetURL))
}

// LogMailer stands in for SendGrid in development. It logs the message
// instead of delivering it.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, toName, toEmail, resetURL string) error {
	slog.Warn("SENDGRID_API_KEY not set, password reset email not delivered",
		"to", toEmail, "name", toName, "reset_url", resetURL)
	return nil
}
