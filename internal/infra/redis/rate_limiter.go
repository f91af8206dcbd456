package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"telegram-scraper-bot/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter keeps the sliding window in a sorted set scored by unix millis
// and the block deadline in a plain key that expires with the block.
type RateLimiter struct {
	client      *Client
	maxMessages int
	window      time.Duration
	block       time.Duration
}

func NewRateLimiter(client *Client, maxMessages int, window, block time.Duration) *RateLimiter {
	return &RateLimiter{client: client, maxMessages: maxMessages, window: window, block: block}
}

func (r *RateLimiter) Check(ctx context.Context, sessionID int64, now time.Time) (repository.RateDecision, error) {
	bKey := BlockKey(sessionID)
	raw, err := r.client.Get(ctx, bKey)
	switch {
	case err == nil:
		if until, perr := strconv.ParseInt(raw, 10, 64); perr == nil && now.UnixMilli() < until {
			return repository.RateDecision{Remaining: time.Duration(until-now.UnixMilli()) * time.Millisecond}, nil
		}
	case !errors.Is(err, redis.Nil):
		return repository.RateDecision{Allowed: true}, fmt.Errorf("read block: %w", err)
	}

	hKey := HitsKey(sessionID)
	nowMs := now.UnixMilli()
	oldest := now.Add(-r.window).UnixMilli()

	var card *redis.IntCmd
	_, err = r.client.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, hKey, &redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(nowMs, 10) + ":" + uuid.NewString()})
		// keep hits with now - t <= window
		p.ZRemRangeByScore(ctx, hKey, "-inf", "("+strconv.FormatInt(oldest, 10))
		card = p.ZCard(ctx, hKey)
		p.PExpire(ctx, hKey, r.window+time.Second)
		return nil
	})
	if err != nil {
		return repository.RateDecision{Allowed: true}, fmt.Errorf("record hit: %w", err)
	}

	if card.Val() > int64(r.maxMessages) {
		until := now.Add(r.block).UnixMilli()
		if err := r.client.Set(ctx, bKey, strconv.FormatInt(until, 10), r.block); err != nil {
			return repository.RateDecision{Allowed: true}, fmt.Errorf("write block: %w", err)
		}
		return repository.RateDecision{Remaining: r.block, JustBlocked: true}, nil
	}
	return repository.RateDecision{Allowed: true}, nil
}

// Sweep is a no-op: every key carries its own expiry.
func (r *RateLimiter) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

func HitsKey(sessionID int64) string {
	return fmt.Sprintf("rate_limit:%d:hits", sessionID)
}

func BlockKey(sessionID int64) string {
	return fmt.Sprintf("rate_limit:%d:block", sessionID)
}
