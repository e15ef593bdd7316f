package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Result of one Limit call. Reset is when the oldest counted request leaves the window.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter interface {
	Limit(ctx context.Context, identifier string) (Result, error)
}

// RedisSlidingWindow counts requests per identifier in a sorted set scored
// by arrival time in milliseconds. Rejected requests are removed again so
// they do not extend the block.
type RedisSlidingWindow struct {
	Rdb      *redis.Client
	Scope    string
	Requests int
	Window   time.Duration
	Now      func() time.Time
}

func (l *RedisSlidingWindow) key(identifier string) string {
	return "ratelimit:" + l.Scope + ":" + identifier
}

func (l *RedisSlidingWindow) Limit(ctx context.Context, identifier string) (Result, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.Window.Milliseconds()
	key := l.key(identifier)
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	pipe := l.Rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: member})
	count := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.PExpire(ctx, key, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	res := Result{Limit: l.Requests, Reset: now.Add(l.Window)}
	if zs := oldest.Val(); len(zs) > 0 {
		res.Reset = time.UnixMilli(int64(zs[0].Score)).Add(l.Window)
	}
	used := int(count.Val())
	if used > l.Requests {
		if err := l.Rdb.ZRem(ctx, key, member).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
		}
		return res, nil
	}
	res.Success = true
	res.Remaining = l.Requests - used
	return res, nil
}
