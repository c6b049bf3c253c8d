package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter counts events in a sliding window using one Redis sorted set per
// key. Scores are event timestamps; trimming the set to the window keeps the
// cardinality equal to the recent request count.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records an event under key and reports whether the caller is still
// inside the limit. A missing client or a degenerate limit admits everything.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := time.Now()
	reset = now.Add(window)
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, reset, nil
	}

	setKey := l.Prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	event := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: key + ":" + uuid.NewString(),
	}

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", cutoff)
	pipe.ZAdd(ctx, setKey, event)
	count := pipe.ZCard(ctx, setKey)
	pipe.Expire(ctx, setKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	seen := int(count.Val())
	remaining = max - seen
	if remaining < 0 {
		remaining = 0
	}
	return seen <= max, remaining, reset, nil
}
