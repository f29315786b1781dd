package mail

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dispatcher hands verification mail to the outbound stream so the HTTP
// request does not wait on delivery. Without a queue client it degrades
// to sending inline.
type Dispatcher struct {
	queue       *redis.Client
	stream      string
	sender      Sender
	linkBaseURL string
	log         zerolog.Logger
}

func NewDispatcher(queue *redis.Client, stream string, sender Sender, linkBaseURL string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		stream:      stream,
		sender:      sender,
		linkBaseURL: linkBaseURL,
		log:         log,
	}
}

func (d *Dispatcher) EnqueueVerification(ctx context.Context, to string, token string) error {
	if d.queue == nil {
		return d.deliver(ctx, to, token)
	}

	_, err := d.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]any{
			"type":  "verification",
			"to":    to,
			"token": token,
		},
	}).Result()
	return err
}

func (d *Dispatcher) deliver(ctx context.Context, to string, token string) error {
	subject, body := VerificationEmail(d.linkBaseURL, token)
	return d.sender.Send(ctx, to, subject, body)
}
