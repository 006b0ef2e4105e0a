// Package contact implements the contact-form workflow: CAPTCHA-gated,
// honeypot-filtered, stateless forwarding of submissions as email.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/pkg/logger"
	"github.com/ignite/optin-service/internal/resend"
)

// Sentinel errors for the contact service layer.
var (
	ErrCaptchaRequired = errors.New("captcha response is required")
	ErrCaptchaFailed   = errors.New("captcha verification failed")
	ErrMissingFields   = errors.New("name, email and message are required")
)

// CaptchaVerifier checks a client-side challenge token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// EmailSender forwards the validated submission.
type EmailSender interface {
	SendEmail(ctx context.Context, req resend.SendEmailRequest) error
}

// Submission carries the contact-form fields.
type Submission struct {
	Name    string
	Email   string
	Message string
	// Honeypot is a form field real users never see or fill. A non-empty
	// value flags an automated submitter.
	Honeypot     string
	CaptchaToken string
}

// RequestMeta carries network attributes available at the HTTP boundary,
// included in the forwarded email for context.
type RequestMeta struct {
	RemoteIP  string
	Country   string
	UserAgent string
}

// Service validates and forwards contact-form submissions. It keeps no
// state between requests.
type Service struct {
	captcha CaptchaVerifier
	mailer  EmailSender
	cfg     config.ContactConfig
}

// NewService creates the contact workflow service.
func NewService(captcha CaptchaVerifier, mailer EmailSender, cfg config.ContactConfig) *Service {
	return &Service{captcha: captcha, mailer: mailer, cfg: cfg}
}

// Submit verifies and forwards a submission. A filled honeypot returns nil
// without forwarding anything, so automated submitters see the same outcome
// as real users and learn nothing about the detection.
func (s *Service) Submit(ctx context.Context, sub Submission, meta RequestMeta) error {
	if sub.CaptchaToken == "" {
		return ErrCaptchaRequired
	}

	ok, err := s.captcha.Verify(ctx, sub.CaptchaToken, meta.RemoteIP)
	if err != nil {
		return fmt.Errorf("verifying captcha: %w", err)
	}
	if !ok {
		return ErrCaptchaFailed
	}

	if sub.Honeypot != "" {
		logger.Info("contact submission dropped, honeypot filled", "remote_ip", meta.RemoteIP)
		return nil
	}

	if strings.TrimSpace(sub.Name) == "" ||
		strings.TrimSpace(sub.Email) == "" ||
		strings.TrimSpace(sub.Message) == "" {
		return ErrMissingFields
	}

	err = s.mailer.SendEmail(ctx, resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail),
		To:      []string{s.cfg.Recipient},
		ReplyTo: sub.Email,
		Subject: "Contact form: " + sub.Name,
		Text:    buildBody(sub, meta),
	})
	if err != nil {
		return fmt.Errorf("forwarding contact submission: %w", err)
	}

	logger.Info("contact submission forwarded", "from_email", sub.Email)
	return nil
}

func buildBody(sub Submission, meta RequestMeta) string {
	var b strings.Builder
	b.WriteString("New contact form submission\n\n")
	fmt.Fprintf(&b, "Name: %s\n", sub.Name)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	if meta.RemoteIP != "" {
		fmt.Fprintf(&b, "IP: %s\n", meta.RemoteIP)
	}
	if meta.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", meta.Country)
	}
	if meta.UserAgent != "" {
		fmt.Fprintf(&b, "User-Agent: %s\n", meta.UserAgent)
	}
	b.WriteString("\nMessage:\n")
	b.WriteString(sub.Message)
	b.WriteString("\n")
	return b.String()
}
