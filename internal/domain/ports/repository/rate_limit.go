package repository

import (
	"context"
	"time"
)

// RateDecision is the outcome of one rate limiter check.
// JustBlocked is set on the message that triggered the block.
type RateDecision struct {
	Allowed     bool
	Remaining   time.Duration
	JustBlocked bool
}

// RateLimiter is the per-session sliding window spam guard.
type RateLimiter interface {
	Check(ctx context.Context, sessionID int64, now time.Time) (RateDecision, error)
	// Sweep forgets windows with no recent traffic and no active block.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
