package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"telegram-scraper-bot/internal/application"
	"telegram-scraper-bot/internal/config"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/domain/ports/repository"
	"telegram-scraper-bot/internal/infra/adapters/scraper"
	tele "telegram-scraper-bot/internal/infra/adapters/telegram"
	httpapi "telegram-scraper-bot/internal/infra/http"
	"telegram-scraper-bot/internal/infra/i18n"
	"telegram-scraper-bot/internal/infra/logging"
	"telegram-scraper-bot/internal/infra/memory"
	"telegram-scraper-bot/internal/infra/metrics"
	red "telegram-scraper-bot/internal/infra/redis"
	"telegram-scraper-bot/internal/infra/scheduler"
	"telegram-scraper-bot/internal/infra/worker"
	"telegram-scraper-bot/internal/usecase"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Translator ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.I18n.Lang)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Rate limiter ----
	limiter, closeLimiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// ---- Transport ----
	var bot adapter.Bot
	switch strings.ToLower(cfg.Bot.Mode) {
	case "noop":
		bot = tele.NewNoopBotAdapter(logger, os.Stdin, cfg.Bot.DevChatID)
	default:
		tb, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot = tb
	}

	// ---- Search + queues ----
	scrapers := scraper.NewScrapers(cfg.Scraper, logger)
	searchUC := usecase.NewSearchUseCase(scrapers, bot, translator, cfg.Scraper.MaxResults, logger, cfg.Runtime.Dev)

	// running jobs survive the signal; the queue Close calls below drain them
	queues, jobQueues := newQueues(ctx, cfg, logger)
	sessions := memory.NewSessionStore()
	orch := application.NewOrchestrator(limiter, sessions, jobQueues, searchUC, bot, translator, logger, cfg.Runtime.Dev)

	// ---- Idle session sweeper ----
	sched := scheduler.NewScheduler(cfg.Sessions.SweepInterval, cfg.Sessions.IdleTTL, orch, logger)
	sched.Start(ctx)
	defer sched.Stop()

	// ---- Admin HTTP ----
	statters := make([]httpapi.QueueStatter, 0, len(queues))
	for _, q := range queues {
		statters = append(statters, q)
	}
	auth := httpapi.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	admin := httpapi.NewServer(cfg.Admin, statters, orch, auth, logger)
	go func() {
		if err := admin.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server error")
			stop()
		}
	}()

	// ---- Polling (blocks) ----
	logger.Info().Str("mode", cfg.Bot.Mode).Int("queues", len(queues)).Msg("bot started")
	pollErr := bot.StartPolling(ctx, orch)
	if pollErr != nil && !errors.Is(pollErr, context.Canceled) {
		logger.Error().Err(pollErr).Msg("polling stopped")
	}
	logger.Info().Msg("shutdown requested")

	// ---- Graceful shutdown ----
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown")
	}
	for _, q := range queues {
		if err := q.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("queue", q.Name()).Msg("queue did not drain")
		}
	}
	if pollErr != nil && !errors.Is(pollErr, context.Canceled) {
		return pollErr
	}
	return nil
}

func newRateLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.RateLimiter, func(), error) {
	rl := cfg.RateLimit
	if strings.ToLower(rl.Backend) != "redis" {
		return memory.NewRateLimiter(rl.MaxMessages, rl.Window, rl.BlockDuration), func() {}, nil
	}
	client, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Redis.URL).Msg("using redis rate limiter")
	return red.NewRateLimiter(client, rl.MaxMessages, rl.Window, rl.BlockDuration), func() { _ = client.Close() }, nil
}

// newQueues builds one queue per configured resource, in a stable order.
func newQueues(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) ([]*worker.ResourceQueue, map[model.Resource]application.JobQueue) {
	names := make([]string, 0, len(cfg.Queues))
	for name := range cfg.Queues {
		names = append(names, name)
	}
	sort.Strings(names)

	var list []*worker.ResourceQueue
	byResource := make(map[model.Resource]application.JobQueue, len(names))
	for _, name := range names {
		r, ok := model.ParseResource(name)
		if !ok {
			logger.Warn().Str("queue", name).Msg("unknown resource in queues config; skipped")
			continue
		}
		qc := cfg.Queues[name]
		q := worker.NewResourceQueue(ctx, string(r), qc.MaxConcurrency, qc.JobTimeout, logger)
		list = append(list, q)
		byResource[r] = q
	}
	return list, byResource
}
