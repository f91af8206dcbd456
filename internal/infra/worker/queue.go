// File: internal/infra/worker/queue.go
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/infra/logging"
	"telegram-scraper-bot/internal/infra/metrics"
)

// ResourceQueue runs at most maxConcurrency jobs at once and keeps the rest in FIFO order.
// running and pending are only touched under mu; handlers run outside it.
type ResourceQueue struct {
	name       string
	max        int
	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	log        *zerolog.Logger

	mu      sync.Mutex
	running int
	pending []*model.Job
	closed  bool

	wg sync.WaitGroup
}

// NewResourceQueue builds a queue whose jobs inherit ctx's values but not its
// cancellation: running jobs keep going after a shutdown signal and are cancelled
// only when Close gives up waiting for them.
// jobTimeout > 0 puts a deadline on each handler's context.
func NewResourceQueue(ctx context.Context, name string, maxConcurrency int, jobTimeout time.Duration, log *zerolog.Logger) *ResourceQueue {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	l := log.With().Str("queue", name).Logger()
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &ResourceQueue{
		name:       name,
		max:        maxConcurrency,
		jobTimeout: jobTimeout,
		ctx:        jobCtx,
		cancel:     cancel,
		log:        &l,
	}
}

func (q *ResourceQueue) Name() string { return q.name }

// Submit admits job: it starts right away when a slot is free, otherwise it is
// appended to the pending list. Submit never waits for a job.
func (q *ResourceQueue) Submit(job *model.Job) (model.Admission, error) {
	if job == nil || job.Handler == nil {
		return model.Admission{}, fmt.Errorf("submit: %w", domain.ErrInvalidArgument)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return model.Admission{}, domain.ErrQueueClosed
	}
	defer q.observeLocked()

	if q.running < q.max {
		q.running++
		q.startLocked(job)
		return model.Admission{Status: model.AdmissionRunning}, nil
	}
	q.pending = append(q.pending, job)
	q.log.Debug().Str("job_id", job.ID).Int64("session_id", job.SessionID).Int("position", len(q.pending)).Msg("job queued")
	return model.Admission{Status: model.AdmissionQueued, Position: len(q.pending)}, nil
}

// Cancel drops every pending job of sessionID. Running jobs are not touched.
func (q *ResourceQueue) Cancel(sessionID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := make([]*model.Job, 0, len(q.pending))
	for _, j := range q.pending {
		if j.SessionID == sessionID {
			metrics.ObserveQueueJob(q.name, "cancelled", 0)
			q.log.Info().Str("job_id", j.ID).Int64("session_id", sessionID).Msg("pending job cancelled")
			continue
		}
		kept = append(kept, j)
	}
	removed := len(kept) != len(q.pending)
	q.pending = kept
	q.observeLocked()
	return removed
}

// IsQueued reports whether sessionID has a job waiting for a slot.
func (q *ResourceQueue) IsQueued(sessionID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.pending {
		if j.SessionID == sessionID {
			return true
		}
	}
	return false
}

func (q *ResourceQueue) Stats() model.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.QueueStats{
		Name:           q.name,
		MaxConcurrency: q.max,
		Running:        q.running,
		Queued:         len(q.pending),
	}
}

// Wait blocks until no job is running or pending.
func (q *ResourceQueue) Wait() { q.wg.Wait() }

// Close stops admission and drops pending jobs, calling their OnDrop hooks.
// It then waits for running jobs until ctx ends and cancels whatever is still running.
func (q *ResourceQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	dropped := q.pending
	q.pending = nil
	q.observeLocked()
	q.mu.Unlock()

	if len(dropped) > 0 {
		q.log.Warn().Int("dropped", len(dropped)).Msg("pending jobs dropped on close")
	}
	for _, j := range dropped {
		metrics.ObserveQueueJob(q.name, "dropped", 0)
		q.notifyDropped(j)
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	defer q.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ResourceQueue) notifyDropped(job *model.Job) {
	if job.OnDrop == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error().Interface("panic", rec).Str("job_id", job.ID).Msg("drop hook panicked")
		}
	}()
	job.OnDrop(q.ctx)
}

func (q *ResourceQueue) startLocked(job *model.Job) {
	q.wg.Add(1)
	go q.run(job)
}

// run executes job and then hands its slot to the next pending job.
func (q *ResourceQueue) run(job *model.Job) {
	defer q.wg.Done()
	defer q.complete()
	q.execute(job)
}

func (q *ResourceQueue) execute(job *model.Job) {
	start := time.Now()
	if !job.SubmittedAt.IsZero() {
		metrics.ObserveQueueWait(q.name, start.Sub(job.SubmittedAt))
	}

	ctx := logging.WithJobID(logging.WithSessionID(q.ctx, job.SessionID), job.ID)
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}
	l := logging.With(ctx, q.log)

	status := "completed"
	defer func() {
		if rec := recover(); rec != nil {
			status = "panicked"
			l.Error().Interface("panic", rec).Err(domain.ErrQueueInternal).Msg("job panicked")
		}
		metrics.ObserveQueueJob(q.name, status, time.Since(start))
		l.Info().Str("status", status).Dur("duration", time.Since(start)).Msg("job finished")
	}()

	if err := job.Handler(ctx); err != nil {
		status = "failed"
		l.Error().Err(fmt.Errorf("%w: %v", domain.ErrQueueInternal, err)).Msg("job failed")
	}
}

func (q *ResourceQueue) complete() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running > 0 {
		q.running--
	}
	if len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.running++
		q.startLocked(next)
	}
	q.observeLocked()
}

func (q *ResourceQueue) observeLocked() {
	metrics.SetQueueDepth(q.name, q.running, len(q.pending))
}
