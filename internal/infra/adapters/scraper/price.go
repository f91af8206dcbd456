package scraper

import (
	"regexp"
	"strings"

	"telegram-scraper-bot/internal/domain/model"
)

var (
	digitsReplacer = strings.NewReplacer(
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
		"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
	tomanRe  = regexp.MustCompile(`[0-9][0-9.,٬\s]*`)
	dollarRe = regexp.MustCompile(`[$€£]\s?[\d,]+(?:\.\d{1,2})?`)
)

func normalizeDigits(s string) string { return digitsReplacer.Replace(s) }

// tomanDigits extracts the first amount in s as bare ASCII digits, or "".
func tomanDigits(s string) string {
	m := tomanRe.FindString(normalizeDigits(s))
	if m == "" {
		return ""
	}
	var b strings.Builder
	for _, c := range m {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	out := strings.TrimLeft(b.String(), "0")
	return out
}

// currencyPrice extracts a symbol-prefixed price like "$12.99".
func currencyPrice(s string) string {
	return strings.ReplaceAll(dollarRe.FindString(s), " ", "")
}

// failure is the synthetic record returned instead of an error.
func failure(err error) []model.ResultRecord {
	return []model.ResultRecord{{Title: "Search error", URL: "#", Price: err.Error()}}
}
