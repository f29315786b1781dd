package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResendLimiter caps how often a verification email can be re-requested
// per address. A nil client disables the limit.
type ResendLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewResendLimiter(client *redis.Client, max int, window time.Duration) *ResendLimiter {
	return &ResendLimiter{client: client, max: max, window: window}
}

func (l *ResendLimiter) Allow(ctx context.Context, email string) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("verify:resend:%s", email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.max), nil
}
