package usecase

import (
	"context"
	"time"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
	"telegram-scraper-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SearchUseCase = (*searchUC)(nil)

type SearchUseCase interface {
	// Run performs one search for chatID and delivers the formatted results.
	// It returns only delivery errors; a scraper failure arrives as a single record
	// with the diagnostic in its price and is delivered like any other result.
	Run(ctx context.Context, chatID int64, r model.Resource, query, link string) error
}

type searchUC struct {
	scrapers   map[model.Resource]adapter.Scraper
	bot        adapter.Messenger
	tr         adapter.Translator
	maxResults int
	log        *zerolog.Logger
	dev        bool
	now        func() time.Time
}

func NewSearchUseCase(
	scrapers map[model.Resource]adapter.Scraper,
	bot adapter.Messenger,
	tr adapter.Translator,
	maxResults int,
	logger *zerolog.Logger,
	dev bool,
) *searchUC {
	return &searchUC{
		scrapers:   scrapers,
		bot:        bot,
		tr:         tr,
		maxResults: maxResults,
		log:        logger,
		dev:        dev,
		now:        time.Now,
	}
}

func (s *searchUC) Run(ctx context.Context, chatID int64, r model.Resource, query, link string) error {
	log := logging.With(ctx, s.log)
	defer logging.TraceDuration(log, "SearchUseCase.Run")()
	start := s.now()

	if err := s.bot.SendTyping(ctx, chatID); err != nil {
		log.Debug().Err(err).Msg("typing indicator failed")
	}
	if err := s.bot.SendText(ctx, chatID, s.tr.T("searching", r.Title()), adapter.SendOptions{}); err != nil {
		metrics.IncSendFailure("searching")
		log.Warn().Err(err).Msg("send searching notice failed")
	}

	var results []model.ResultRecord
	if sc, ok := s.scrapers[r]; ok && sc != nil {
		results = sc.Search(ctx, adapter.SearchRequest{Query: query, Link: link, MaxResults: s.maxResults})
	} else {
		log.Warn().Str("resource", string(r)).Msg("no scraper registered")
	}
	if s.maxResults > 0 && len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	elapsed := s.now().Sub(start)
	metrics.ObserveScrape(string(r), len(results), elapsed, len(results) > 0)
	log.Info().
		Str("resource", string(r)).
		Str("query", logging.Redact(query, s.dev)).
		Int("results", len(results)).
		Dur("elapsed", elapsed).
		Msg("search finished")

	msg := FormatResults(s.tr, results) + formatDuration(s.tr, roundTo2(elapsed.Seconds()))
	if err := s.bot.SendText(ctx, chatID, msg, adapter.SendOptions{HTML: true}); err != nil {
		metrics.IncSendFailure("results")
		return err
	}
	return nil
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
