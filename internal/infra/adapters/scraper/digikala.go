package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

const (
	defaultDigikalaAPI  = "https://api.digikala.com"
	defaultDigikalaSite = "https://www.digikala.com"
)

var _ adapter.Scraper = (*Digikala)(nil)

// Digikala searches the Digikala search API. Prices are converted from rial to toman.
type Digikala struct {
	f       *fetcher
	apiBase string
	site    string
	log     *zerolog.Logger
}

func NewDigikala(f *fetcher, apiBase string, logger *zerolog.Logger) *Digikala {
	if apiBase == "" {
		apiBase = defaultDigikalaAPI
	}
	return &Digikala{f: f, apiBase: strings.TrimRight(apiBase, "/"), site: defaultDigikalaSite, log: logger}
}

func (d *Digikala) Search(ctx context.Context, req adapter.SearchRequest) []model.ResultRecord {
	log := logging.With(ctx, d.log)
	defer logging.TraceDuration(log, "Digikala.Search")()
	start := time.Now()

	u := d.apiBase + "/v1/search/?q=" + url.QueryEscape(req.Query)
	body, err := d.f.get(ctx, u)
	if err != nil {
		log.Error().Err(err).Msg("digikala search failed")
		return failure(fmt.Errorf("%w: %v", domain.ErrScraperFailure, err))
	}

	products := gjson.GetBytes(body, "data.products")
	if !products.IsArray() {
		log.Warn().Msg("digikala response has no product list")
		return nil
	}

	var out []model.ResultRecord
	seen := map[string]struct{}{}
	products.ForEach(func(_, p gjson.Result) bool {
		title := strings.TrimSpace(p.Get("title_fa").String())
		if title == "" {
			title = strings.TrimSpace(p.Get("title_en").String())
		}
		uri := p.Get("url.uri").String()
		if title == "" || uri == "" {
			return true
		}
		link := stripQuery(resolve(d.site, uri))
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}

		var price string
		if rial := p.Get("default_variant.price.selling_price").Int(); rial > 0 {
			price = strconv.FormatInt(rial/10, 10)
		}
		out = append(out, model.ResultRecord{Title: title, URL: link, Price: price})
		return req.MaxResults <= 0 || len(out) < req.MaxResults
	})

	log.Info().Int("results", len(out)).Dur("elapsed", time.Since(start)).Msg("digikala search finished")
	return out
}
