// Package notification delivers invitation and verification emails.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/tendant/simple-workspace/pkg/lifecycle"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// sender delivers composed messages. *gomail.Dialer satisfies it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends HTML emails over SMTP.
type EmailService struct {
	config EmailConfig
	sender sender
	logger *slog.Logger
}

// NewEmailService creates an SMTP-backed email service.
func NewEmailService(config EmailConfig, logger *slog.Logger) *EmailService {
	return &EmailService{
		config: config,
		sender: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		logger: logger,
	}
}

var (
	verificationTemplate = template.Must(template.New("verification").Parse(`<html><body>
	<h2>Verify Your Email Address</h2>
	<p>Thank you for registering! Please verify your email address to complete your registration.</p>
	<p><a href="{{.URL}}">Click here to verify your email</a></p>
	<p>Or copy this link to your browser: {{.URL}}</p>
</body></html>`))

	invitationTemplate = template.Must(template.New("invitation").Parse(`<html><body>
	<h2>Invitation to join {{.TenantName}}</h2>
	<p>{{.InviterName}} has invited you to collaborate on {{.TenantName}}.</p>
	<p><a href="{{.JoinURL}}">Click here to accept the invitation</a></p>
	<p>Or copy this link to your browser: {{.JoinURL}}</p>
</body></html>`))
)

// SendVerificationEmail sends the account verification link.
func (s *EmailService) SendVerificationEmail(ctx context.Context, to, verifyURL string) error {
	body, err := render(verificationTemplate, struct{ URL string }{verifyURL})
	if err != nil {
		return err
	}
	return s.send(ctx, to, "Verify Your Email Address", body)
}

// SendInvitation sends a tenant invitation with its join link.
func (s *EmailService) SendInvitation(ctx context.Context, inv lifecycle.Invitation) error {
	body, err := render(invitationTemplate, inv)
	if err != nil {
		return err
	}
	return s.send(ctx, inv.To, "Invitation to join "+inv.TenantName, body)
}

func (s *EmailService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	if s.config.FromName != "" {
		m.SetAddressHeader("From", s.config.From, s.config.FromName)
	} else {
		m.SetHeader("From", s.config.From)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// LogNotifier logs emails instead of sending them. It is used when SMTP is
// not configured so that links can still be picked up from the logs.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendVerificationEmail logs the verification link.
func (n *LogNotifier) SendVerificationEmail(_ context.Context, to, verifyURL string) error {
	n.logger.Info("email delivery disabled; verification link", "to", to, "url", verifyURL)
	return nil
}

// SendInvitation logs the invitation.
func (n *LogNotifier) SendInvitation(_ context.Context, inv lifecycle.Invitation) error {
	n.logger.Info("email delivery disabled; invitation",
		"to", inv.To,
		"tenant_id", inv.TenantID,
		"tenant_name", inv.TenantName,
		"join_url", inv.JoinURL,
	)
	return nil
}
