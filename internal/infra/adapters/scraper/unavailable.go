package scraper

import (
	"context"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/adapter"
)

var _ adapter.Scraper = Unavailable{}

// Unavailable stands in for a resource whose scraper is disabled or missing.
type Unavailable struct {
	Resource model.Resource
}

func (u Unavailable) Search(context.Context, adapter.SearchRequest) []model.ResultRecord {
	return []model.ResultRecord{{
		Title: u.Resource.Title() + " search is unavailable",
		URL:   "#",
		Price: "unavailable",
	}}
}
