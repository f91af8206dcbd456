package usecase

import (
	"fmt"
	"html"
	"strings"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
)

// FormatResults renders results as a Telegram HTML message.
func FormatResults(tr adapter.Translator, results []model.ResultRecord) string {
	if len(results) == 0 {
		return tr.T("results_empty")
	}
	lines := make([]string, 0, len(results))
	for i, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = tr.T("result_no_title")
		}
		url := strings.TrimSpace(r.URL)
		if url == "" {
			url = "#"
		}
		lines = append(lines, tr.T("result_item", i+1, html.EscapeString(url), html.EscapeString(title), formatPrice(tr, r.Price)))
	}
	return strings.Join(lines, "\n\n")
}

// formatPrice groups bare toman amounts and passes other currencies through.
func formatPrice(tr adapter.Translator, price string) string {
	price = strings.TrimSpace(price)
	if price == "" {
		return tr.T("price_unknown")
	}
	digits := strings.ReplaceAll(price, ",", "")
	if !isDigits(digits) {
		return html.EscapeString(price)
	}
	return tr.T("price_toman", groupThousands(strings.TrimLeft(digits, "0")))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func groupThousands(s string) string {
	if s == "" {
		return "0"
	}
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	pre := n % 3
	if pre == 0 {
		pre = 3
	}
	b.WriteString(s[:pre])
	for i := pre; i < n; i += 3 {
		b.WriteString(",")
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatDuration(tr adapter.Translator, seconds float64) string {
	return fmt.Sprintf("\n\n%s", tr.T("search_duration", seconds))
}
