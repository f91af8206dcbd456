package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/domain/ports/repository"
	"telegram-scraper-bot/internal/infra/logging"
	"telegram-scraper-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Orchestrator is the single entry point for inbound messages. It is the only
// component that touches the rate limiter, the session store and the queues together.
//
// Lock order is session then queue. Job cleanup takes the session lock only.
type Orchestrator struct {
	limiter  repository.RateLimiter
	sessions repository.SessionStore
	queues   map[model.Resource]JobQueue
	search   SearchRunner
	bot      adapter.Messenger
	tr       adapter.Translator
	log      *zerolog.Logger
	dev      bool

	now func() time.Time
}

func NewOrchestrator(
	limiter repository.RateLimiter,
	sessions repository.SessionStore,
	queues map[model.Resource]JobQueue,
	search SearchRunner,
	bot adapter.Messenger,
	tr adapter.Translator,
	logger *zerolog.Logger,
	dev bool,
) *Orchestrator {
	return &Orchestrator{
		limiter:  limiter,
		sessions: sessions,
		queues:   queues,
		search:   search,
		bot:      bot,
		tr:       tr,
		log:      logger,
		dev:      dev,
		now:      time.Now,
	}
}

// reply is an outbound message decided under the session lock and sent after it is released.
// sent, when set, runs once the message has gone out.
type reply struct {
	text     string
	keyboard adapter.Keyboard
	sent     func()
}

// HandleMessage processes one inbound message. Rejected actions get an explanatory
// reply and the matching domain sentinel error; nil means the action was accepted.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg model.Message) error {
	ctx = logging.WithSessionID(ctx, msg.SessionID)
	log := logging.With(ctx, o.log)
	now := o.now()
	metrics.IncTelegramCommand(msg.Command.Kind.String())

	decision, err := o.limiter.Check(ctx, msg.SessionID, now)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiter check failed; allowing message")
	}
	if !decision.Allowed {
		secs := ceilSeconds(decision.Remaining)
		if decision.JustBlocked {
			metrics.IncRateLimitTriggered()
			log.Info().Int("block_seconds", secs).Msg("session blocked for spam")
			o.send(ctx, msg.SessionID, reply{text: o.tr.T("spam_blocked", secs)})
		} else {
			o.send(ctx, msg.SessionID, reply{text: o.tr.T("spam_wait", secs)})
		}
		return domain.ErrRateLimited
	}

	var out reply
	err = o.sessions.WithSession(msg.SessionID, now, func(sess *model.Session) error {
		var herr error
		out, herr = o.dispatch(ctx, sess, msg, now)
		return herr
	})
	if out.text != "" {
		o.send(ctx, msg.SessionID, out)
	}
	if out.sent != nil {
		out.sent()
	}
	if err != nil && !IsUserError(err) {
		log.Error().Err(err).Str("command", msg.Command.Kind.String()).Msg("handle message failed")
	}
	return err
}

func (o *Orchestrator) dispatch(ctx context.Context, sess *model.Session, msg model.Message, now time.Time) (reply, error) {
	switch msg.Command.Kind {
	case model.CommandStart:
		name := strings.TrimSpace(msg.FirstName)
		if name == "" {
			name = o.tr.T("default_name")
		}
		return reply{text: o.tr.T("welcome", name), keyboard: adapter.KeyboardStart}, nil
	case model.CommandHelp:
		return reply{text: o.tr.T("help"), keyboard: adapter.KeyboardStart}, nil
	case model.CommandListResources:
		return reply{text: o.tr.T("shops", o.shopLines()), keyboard: adapter.KeyboardResources}, nil
	case model.CommandCancel:
		return o.cancel(ctx, sess)
	case model.CommandSelectResource:
		return o.selectResource(sess, msg.Command.Resource)
	default:
		return o.freeText(ctx, sess, strings.TrimSpace(msg.Command.Text), now)
	}
}

func (o *Orchestrator) selectResource(sess *model.Session, r model.Resource) (reply, error) {
	if _, ok := o.queues[r]; !ok {
		return reply{text: o.tr.T("unknown_resource")}, fmt.Errorf("select %q: %w", r, domain.ErrUnknownResource)
	}
	sess.SelectResource(r)
	switch r {
	case model.ResourceDigikala:
		return reply{text: o.tr.T("prompt_digikala")}, nil
	case model.ResourceEbay:
		return reply{text: o.tr.T("prompt_ebay")}, nil
	default:
		return reply{text: o.tr.T("prompt_global_link")}, nil
	}
}

func (o *Orchestrator) freeText(ctx context.Context, sess *model.Session, text string, now time.Time) (reply, error) {
	switch {
	case sess.State == model.StateAwaitingLink:
		sess.AcceptLink(text)
		return reply{text: o.tr.T("prompt_global_query")}, nil
	case sess.AwaitingQuery():
		return o.submit(ctx, sess, text, now)
	default:
		return reply{text: o.tr.T("choose_option_first"), keyboard: adapter.KeyboardStart}, domain.ErrInvalidArgument
	}
}

func (o *Orchestrator) submit(ctx context.Context, sess *model.Session, query string, now time.Time) (reply, error) {
	if sess.HasActiveJob {
		return reply{text: o.tr.T("active_job_wait")}, domain.ErrDuplicateActiveJob
	}
	r, link := sess.Resource, sess.PendingLink
	q, ok := o.queues[r]
	if !ok {
		sess.Cancel()
		return reply{text: o.tr.T("unknown_resource")}, fmt.Errorf("submit %q: %w", r, domain.ErrUnknownResource)
	}

	// the job waits for the admission reply so "started" or "queued" is always seen first
	admitted := make(chan struct{})
	job := model.NewJob(sess.ID, r, now, nil)
	job.Handler = o.jobHandler(sess.ID, job.ID, r, query, link, admitted)
	job.OnDrop = o.jobDropped(sess.ID, job.ID)

	// mark the session before the job can start so its cleanup always finds the id
	sess.StartJob(job.ID)
	adm, err := q.Submit(job)
	if err != nil {
		sess.FinishJob(job.ID)
		close(admitted)
		return reply{text: o.tr.T("submit_failed")}, fmt.Errorf("submit %s job: %w", r, err)
	}

	logging.With(logging.WithJobID(ctx, job.ID), o.log).Info().
		Str("resource", string(r)).
		Str("admission", string(adm.Status)).
		Int("position", adm.Position).
		Str("query", logging.Redact(query, o.dev)).
		Msg("job submitted")

	release := func() { close(admitted) }
	if adm.Running() {
		return reply{text: o.tr.T("job_started"), sent: release}, nil
	}
	return reply{text: o.tr.T("job_queued", r.Title(), adm.Position), sent: release}, nil
}

// jobHandler builds the job body. Session cleanup runs in its deferred block so it
// happens on success, error and panic alike.
func (o *Orchestrator) jobHandler(sessionID int64, jobID string, r model.Resource, query, link string, admitted <-chan struct{}) model.JobHandler {
	return func(ctx context.Context) error {
		defer o.finishJob(sessionID, jobID)
		select {
		case <-admitted:
		case <-ctx.Done():
			return ctx.Err()
		}
		ctx = logging.WithJobID(logging.WithSessionID(ctx, sessionID), jobID)
		return o.search.Run(ctx, sessionID, r, query, link)
	}
}

// jobDropped tells the user their queued job will not run and frees the session.
func (o *Orchestrator) jobDropped(sessionID int64, jobID string) func(ctx context.Context) {
	return func(ctx context.Context) {
		o.finishJob(sessionID, jobID)
		o.send(ctx, sessionID, reply{text: o.tr.T("job_dropped"), keyboard: adapter.KeyboardStart})
	}
}

func (o *Orchestrator) finishJob(sessionID int64, jobID string) {
	_ = o.sessions.WithSession(sessionID, o.now(), func(sess *model.Session) error {
		if !sess.FinishJob(jobID) {
			o.log.Debug().Int64("session_id", sessionID).Str("job_id", jobID).Msg("stale job completion ignored")
		}
		return nil
	})
}

func (o *Orchestrator) cancel(ctx context.Context, sess *model.Session) (reply, error) {
	removed := false
	for r, q := range o.queues {
		if q.Cancel(sess.ID) {
			removed = true
			logging.With(ctx, o.log).Info().Str("resource", string(r)).Msg("pending job cancelled")
		}
	}
	if sess.Cancel() {
		removed = true
	}
	if !removed {
		return reply{text: o.tr.T("cancel_nothing"), keyboard: adapter.KeyboardStart}, domain.ErrNothingToCancel
	}
	return reply{text: o.tr.T("cancel_done"), keyboard: adapter.KeyboardStart}, nil
}

func (o *Orchestrator) shopLines() string {
	var b strings.Builder
	n := 0
	for _, r := range model.Resources {
		if _, ok := o.queues[r]; !ok {
			continue
		}
		n++
		title := r.Title()
		if r.NeedsLink() {
			title = o.tr.T("shop_global")
		}
		b.WriteString(o.tr.T("shop_line", n, title))
	}
	return b.String()
}

// SweepIdle evicts sessions idle since before cutoff and reports the store size.
func (o *Orchestrator) SweepIdle(ctx context.Context, cutoff time.Time) int {
	removed := o.sessions.Sweep(cutoff)
	if n, err := o.limiter.Sweep(ctx, o.now()); err != nil {
		o.log.Warn().Err(err).Msg("rate limiter sweep failed")
	} else if n > 0 {
		o.log.Debug().Int("windows", n).Msg("rate windows swept")
	}
	metrics.SetSessionsTracked(o.sessions.Len())
	return removed
}

// Session returns a snapshot of a session for the admin API.
func (o *Orchestrator) Session(id int64) (model.Session, bool) {
	return o.sessions.Get(id)
}

func (o *Orchestrator) send(ctx context.Context, chatID int64, r reply) {
	if err := o.bot.SendText(ctx, chatID, r.text, adapter.SendOptions{Keyboard: r.keyboard}); err != nil {
		metrics.IncSendFailure("reply")
		logging.With(ctx, o.log).Warn().Err(err).Msg("send reply failed")
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// IsUserError reports whether err is a rejection already explained to the user.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrDuplicateActiveJob) ||
		errors.Is(err, domain.ErrNothingToCancel) ||
		errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrUnknownResource)
}
