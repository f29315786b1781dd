package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"

	"contacthub/api/internal/config"
)

// Sender delivers a single message. The Resend implementation is the
// only one in production; tests substitute a recording fake.
type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(cfg config.MailConfig) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.From,
	}
}

func (s *ResendSender) Send(ctx context.Context, to string, subject string, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// VerificationEmail builds the subject and body for the signup
// confirmation message. The link embeds the stored one-time token.
func VerificationEmail(linkBaseURL string, token string) (subject string, body string) {
	link := fmt.Sprintf("%s/users/verify/%s", strings.TrimSuffix(linkBaseURL, "/"), token)
	subject = "Confirm your email address"
	body = fmt.Sprintf(`<p>Welcome! Please confirm your email address by following the link below.</p><p><a href=%q>%s</a></p>`, link, link)
	return subject, body
}
