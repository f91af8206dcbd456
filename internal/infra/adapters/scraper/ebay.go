package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

const defaultEbayBase = "https://www.ebay.com"

var _ adapter.Scraper = (*Ebay)(nil)

// Ebay scrapes the eBay search result page.
type Ebay struct {
	f    *fetcher
	base string
	log  *zerolog.Logger
}

func NewEbay(f *fetcher, base string, logger *zerolog.Logger) *Ebay {
	if base == "" {
		base = defaultEbayBase
	}
	return &Ebay{f: f, base: strings.TrimRight(base, "/"), log: logger}
}

func (e *Ebay) Search(ctx context.Context, req adapter.SearchRequest) []model.ResultRecord {
	log := logging.With(ctx, e.log)
	defer logging.TraceDuration(log, "Ebay.Search")()

	searchURL := e.base + "/sch/i.html?_nkw=" + url.QueryEscape(req.Query)
	body, err := e.f.get(ctx, searchURL)
	if err != nil {
		log.Error().Err(err).Msg("ebay search failed")
		return failure(fmt.Errorf("%w: %v", domain.ErrScraperFailure, err))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failure(fmt.Errorf("%w: %v", domain.ErrScraperFailure, err))
	}

	out := parseEbayItems(doc, searchURL, req.MaxResults)
	log.Info().Int("results", len(out)).Msg("ebay search finished")
	return out
}

func parseEbayItems(doc *goquery.Document, searchURL string, limit int) []model.ResultRecord {
	var out []model.ResultRecord
	seen := map[string]struct{}{}
	full := func() bool { return limit > 0 && len(out) >= limit }

	add := func(href, title, price string) {
		if !strings.Contains(href, "/itm/") {
			return
		}
		link := stripQuery(resolve(searchURL, href))
		if _, dup := seen[link]; dup {
			return
		}
		title = strings.TrimSpace(title)
		// the first card of a result page is an ad placeholder
		if strings.EqualFold(title, "Shop on eBay") {
			return
		}
		seen[link] = struct{}{}
		out = append(out, model.ResultRecord{Title: title, URL: link, Price: currencyPrice(price)})
	}

	doc.Find("li.s-item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Find("a.s-item__link").First().Attr("href")
		add(href, s.Find(".s-item__title").First().Text(), s.Find(".s-item__price").First().Text())
		return !full()
	})
	if len(out) > 0 {
		return out
	}

	// page layout without result cards: fall back to bare item links
	doc.Find("a[href*='/itm/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		add(href, a.Text(), "")
		return !full()
	})
	return out
}
