package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const loginKeyPrefix = "ratelimit:login:"

// SlidingWindowLimiter counts attempts per key over a rolling window using a
// sorted set of timestamps. Every attempt is recorded, including rejected
// ones, so a client hammering the endpoint stays blocked.
type SlidingWindowLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindowLimiter allows limit attempts per key within window.
func NewSlidingWindowLimiter(client redis.UniversalClient, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow records one attempt for key and reports whether it is within budget.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	k := loginKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", "("+cutoff)
		p.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: uuid.NewString()})
		card = p.ZCard(ctx, k)
		p.PExpire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("login limiter: %w", err)
	}
	return card.Val() <= int64(l.limit), nil
}
