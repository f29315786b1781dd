package mail

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"contacthub/api/internal/config"
)

var _ Sender = (*ResendSender)(nil)

func TestNewResendSender(t *testing.T) {
	sender := NewResendSender(config.MailConfig{
		APIKey: "re_test_key",
		From:   "no-reply@contacthub.local",
	})
	require.NotNil(t, sender.client)
	require.Equal(t, "no-reply@contacthub.local", sender.from)
}

func TestVerificationEmail(t *testing.T) {
	subject, body := VerificationEmail("http://localhost:3000/", "tok-123")
	require.NotEmpty(t, subject)
	require.Contains(t, body, "http://localhost:3000/users/verify/tok-123")
}

type recordingSender struct {
	to      []string
	bodies  []string
	subject string
}

func (r *recordingSender) Send(_ context.Context, to string, subject string, body string) error {
	r.to = append(r.to, to)
	r.bodies = append(r.bodies, body)
	r.subject = subject
	return nil
}

func TestDispatcherWithoutQueueSendsInline(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(nil, "mail:outbound", sender, "http://api.local", zerolog.Nop())

	require.NoError(t, d.EnqueueVerification(context.Background(), "a@x.com", "tok-9"))

	require.Equal(t, []string{"a@x.com"}, sender.to)
	require.Contains(t, sender.bodies[0], "http://api.local/users/verify/tok-9")
}

func TestResendLimiterNilClientAllows(t *testing.T) {
	limiter := NewResendLimiter(nil, 1, 0)

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(context.Background(), "a@x.com")
		require.NoError(t, err)
		require.True(t, ok)
	}
}
