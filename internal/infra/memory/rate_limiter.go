package memory

import (
	"context"
	"sync"
	"time"

	"telegram-scraper-bot/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

type rateWindow struct {
	hits         []time.Time
	blockedUntil time.Time
}

// RateLimiter is an in-process sliding window limiter.
// A session sending more than maxMessages within window is blocked for block.
type RateLimiter struct {
	mu          sync.Mutex
	maxMessages int
	window      time.Duration
	block       time.Duration
	windows     map[int64]*rateWindow
}

func NewRateLimiter(maxMessages int, window, block time.Duration) *RateLimiter {
	return &RateLimiter{
		maxMessages: maxMessages,
		window:      window,
		block:       block,
		windows:     make(map[int64]*rateWindow),
	}
}

func (r *RateLimiter) Check(_ context.Context, sessionID int64, now time.Time) (repository.RateDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[sessionID]
	if !ok {
		w = &rateWindow{}
		r.windows[sessionID] = w
	}
	if now.Before(w.blockedUntil) {
		return repository.RateDecision{Remaining: w.blockedUntil.Sub(now)}, nil
	}

	w.hits = append(w.hits, now)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if now.Sub(t) <= r.window {
			kept = append(kept, t)
		}
	}
	w.hits = kept

	if len(w.hits) > r.maxMessages {
		w.blockedUntil = now.Add(r.block)
		return repository.RateDecision{Remaining: r.block, JustBlocked: true}, nil
	}
	return repository.RateDecision{Allowed: true}, nil
}

func (r *RateLimiter) Sweep(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, w := range r.windows {
		if now.Before(w.blockedUntil) {
			continue
		}
		if n := len(w.hits); n > 0 && now.Sub(w.hits[n-1]) <= r.window {
			continue
		}
		delete(r.windows, id)
		removed++
	}
	return removed, nil
}
