package adapter

import (
	"context"

	"telegram-scraper-bot/internal/domain/model"
)

type SearchRequest struct {
	Query      string
	Link       string // two-step resources only
	MaxResults int
}

// Scraper is the port for one resource's search.
// Ordinary failures never surface as errors: the scraper returns a single
// synthetic record carrying the diagnostic in place of the price.
type Scraper interface {
	Search(ctx context.Context, req SearchRequest) []model.ResultRecord
}
