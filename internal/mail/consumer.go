package mail

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const consumerGroup = "mailer"

// Consumer drains the outbound stream and delivers each message. A
// failed delivery skips the ack, leaving the entry pending; a periodic
// claim pass re-claims entries idle longer than claimInterval and
// retries them.
type Consumer struct {
	client        *redis.Client
	stream        string
	name          string
	claimInterval time.Duration
	sender        Sender
	linkBaseURL   string
	log           zerolog.Logger
}

func NewConsumer(client *redis.Client, stream string, name string, claimInterval time.Duration, sender Sender, linkBaseURL string, log zerolog.Logger) *Consumer {
	return &Consumer{
		client:        client,
		stream:        stream,
		name:          name,
		claimInterval: claimInterval,
		sender:        sender,
		linkBaseURL:   linkBaseURL,
		log:           log,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("mail stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("claim pass failed")
			}
		default:
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	for _, stream := range result {
		c.deliverBatch(ctx, stream.Messages)
	}
	return nil
}

// claimStalled takes over pending entries whose consumer never acked
// them, delivering each again under this consumer's name.
func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	ids := stalledIDs(pending, c.claimInterval)
	if len(ids) == 0 {
		return nil
	}

	msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    consumerGroup,
		Consumer: c.name,
		MinIdle:  c.claimInterval,
		Messages: ids,
	}).Result()
	if err != nil {
		return err
	}

	c.deliverBatch(ctx, msgs)
	return nil
}

func (c *Consumer) deliverBatch(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		if err := c.handle(ctx, msg); err != nil {
			c.log.Error().Err(err).Str("message_id", msg.ID).Msg("mail delivery failed")
			continue
		}
		if err := c.client.XAck(ctx, c.stream, consumerGroup, msg.ID).Err(); err != nil {
			c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
		}
	}
}

// stalledIDs filters a pending summary down to the entries idle long
// enough to be claimed away from their original consumer.
func stalledIDs(pending []redis.XPendingExt, minIdle time.Duration) []string {
	var ids []string
	for _, entry := range pending {
		if entry.Idle < minIdle {
			continue
		}
		ids = append(ids, entry.ID)
	}
	return ids
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) error {
	to, _ := msg.Values["to"].(string)
	token, _ := msg.Values["token"].(string)
	if to == "" || token == "" {
		c.log.Warn().Str("message_id", msg.ID).Msg("malformed mail message dropped")
		return nil
	}

	subject, body := VerificationEmail(c.linkBaseURL, token)
	return c.sender.Send(ctx, to, subject, body)
}
