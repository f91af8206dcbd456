package scraper

import (
	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/config"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
)

// NewScrapers resolves one scraper per resource. Disabled resources get Unavailable.
func NewScrapers(cfg config.ScraperConfig, logger *zerolog.Logger) map[model.Resource]adapter.Scraper {
	f := newFetcher(cfg)
	disabled := map[model.Resource]bool{}
	for _, name := range cfg.Disabled {
		if r, ok := model.ParseResource(name); ok {
			disabled[r] = true
		}
	}

	out := make(map[model.Resource]adapter.Scraper, len(model.Resources))
	for _, r := range model.Resources {
		if disabled[r] {
			logger.Warn().Str("resource", string(r)).Msg("scraper disabled; using unavailable stub")
			out[r] = Unavailable{Resource: r}
			continue
		}
		switch r {
		case model.ResourceDigikala:
			out[r] = NewDigikala(f, cfg.DigikalaBaseURL, logger)
		case model.ResourceEbay:
			out[r] = NewEbay(f, cfg.EbayBaseURL, logger)
		case model.ResourceGlobal:
			out[r] = NewGlobal(f, cfg.SearchBaseURL, logger)
		default:
			out[r] = Unavailable{Resource: r}
		}
	}
	return out
}
