package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"telegram-scraper-bot/internal/domain"
	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
	"telegram-scraper-bot/internal/infra/logging"
)

const defaultSearchBase = "https://html.duckduckgo.com"

var forbiddenWords = []string{
	"porn", "sex", "xxx", "adult", "nsfw", "erotic", "fetish",
	"hentai", "bdsm", "hardcore", "nude", "explicit", "18+", "mature",
	"پورنو", "پورنوگرافی", "محتوای بزرگسال", "محتوای ۱۸",
	"محتوای جنسی", "روابط جنسی", "مستهجن", "شهوانی",
}

var (
	linkExclude = []string{"category", "search", "filter", "collections", "tag"}
	linkInclude = []string{"product", "item", "sku", "detail", "p/"}
)

var _ adapter.Scraper = (*Global)(nil)

// Global searches any shop: a site-restricted web search finds product pages,
// then each page is read for its schema.org Product data.
type Global struct {
	f          *fetcher
	searchBase string
	log        *zerolog.Logger
}

func NewGlobal(f *fetcher, searchBase string, logger *zerolog.Logger) *Global {
	if searchBase == "" {
		searchBase = defaultSearchBase
	}
	return &Global{f: f, searchBase: strings.TrimRight(searchBase, "/"), log: logger}
}

func containsForbidden(s string) bool {
	s = strings.ToLower(s)
	for _, w := range forbiddenWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (g *Global) Search(ctx context.Context, req adapter.SearchRequest) []model.ResultRecord {
	log := logging.With(ctx, g.log)
	defer logging.TraceDuration(log, "Global.Search")()

	if containsForbidden(req.Link) || containsForbidden(req.Query) {
		log.Warn().Msg("global search rejected: forbidden words")
		return []model.ResultRecord{{Title: "⛔ Invalid content", URL: "#", Price: "Input contains forbidden words."}}
	}

	links, err := g.searchLinks(ctx, req.Query, req.Link, req.MaxResults)
	if err != nil {
		log.Error().Err(err).Msg("global link search failed")
		return failure(fmt.Errorf("%w: %v", domain.ErrScraperFailure, err))
	}

	var out []model.ResultRecord
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		body, err := g.f.get(ctx, link)
		if err != nil {
			log.Warn().Err(err).Str("url", link).Msg("product page fetch failed")
			continue
		}
		title, price := extractProduct(body)
		if title == "" {
			continue
		}
		out = append(out, model.ResultRecord{Title: title, URL: link, Price: price})
	}
	log.Info().Int("links", len(links)).Int("results", len(out)).Msg("global search finished")
	return out
}

// searchLinks runs a "site:" restricted search and returns candidate product urls.
func (g *Global) searchLinks(ctx context.Context, query, site string, limit int) ([]string, error) {
	q := query
	if host := siteHost(site); host != "" {
		q = "site:" + host + " " + query
	}
	body, err := g.f.postForm(ctx, g.searchBase+"/html/", url.Values{"q": {q}})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := map[string]struct{}{}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = unwrapRedirect(href)
		if !strings.HasPrefix(href, "http") || !isProductLink(href) {
			return true
		}
		clean := stripQuery(href)
		if _, dup := seen[clean]; dup {
			return true
		}
		seen[clean] = struct{}{}
		urls = append(urls, clean)
		return limit <= 0 || len(urls) < limit
	})
	return urls, nil
}

// siteHost accepts "shop.ir", "https://shop.ir/x" and similar.
func siteHost(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	return u.Host
}

// unwrapRedirect decodes "//duckduckgo.com/l/?uddg=<target>" result links.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func isProductLink(href string) bool {
	l := strings.ToLower(href)
	for _, e := range linkExclude {
		if strings.Contains(l, e) {
			return false
		}
	}
	for _, i := range linkInclude {
		if strings.Contains(l, i) {
			return true
		}
	}
	return false
}

// extractProduct reads name and toman price from LD+JSON Product data,
// falling back to the page title and common price markup.
func extractProduct(body []byte) (title, price string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if !gjson.Valid(raw) {
			return true
		}
		p, ok := findProduct(gjson.Parse(raw))
		if !ok {
			return true
		}
		title = strings.TrimSpace(p.Get("name").String())
		if title == "" {
			title = strings.TrimSpace(p.Get("headline").String())
		}
		offer := p.Get("offers")
		if offer.IsArray() {
			offer = offer.Get("0")
		}
		pr := offer.Get("price")
		if !pr.Exists() {
			pr = offer.Get("priceSpecification.price")
		}
		price = tomanDigits(pr.String())
		return false
	})

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if price == "" {
		doc.Find(`[itemprop="price"], meta[property="product:price:amount"], [class*="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			txt, ok := s.Attr("content")
			if !ok {
				txt = s.Text()
			}
			price = tomanDigits(txt)
			return price == ""
		})
	}
	return title, price
}

// findProduct returns the first schema.org Product in r, looking through arrays and @graph.
func findProduct(r gjson.Result) (gjson.Result, bool) {
	if r.IsArray() {
		for _, it := range r.Array() {
			if p, ok := findProduct(it); ok {
				return p, true
			}
		}
		return gjson.Result{}, false
	}
	if !r.IsObject() {
		return gjson.Result{}, false
	}
	if strings.EqualFold(r.Get("@type").String(), "product") {
		return r, true
	}
	if g := r.Get("@graph"); g.Exists() {
		return findProduct(g)
	}
	return gjson.Result{}, false
}
