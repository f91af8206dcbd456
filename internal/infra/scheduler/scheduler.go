package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is the minimal interface the scheduler needs from the session owner.
type Sweeper interface {
	// SweepIdle evicts sessions idle since before cutoff and returns how many were removed.
	SweepIdle(ctx context.Context, cutoff time.Time) int
}

// Scheduler periodically evicts idle sessions.
type Scheduler struct {
	interval time.Duration
	idleTTL  time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that sweeps every interval, evicting sessions idle for idleTTL.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval, idleTTL time.Duration, sweeper Sweeper, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval: interval,
		idleTTL:  idleTTL,
		sweeper:  sweeper,
		log:      logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Dur("idle_ttl", s.idleTTL).Msg("[scheduler] started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("[scheduler] context cancelled; stopping")
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce performs a single sweep with a bounded timeout.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	removed := s.sweeper.SweepIdle(runCtx, s.now().Add(-s.idleTTL))
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("[scheduler] idle sessions evicted")
	}
	return removed
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("[scheduler] stopped")
}
