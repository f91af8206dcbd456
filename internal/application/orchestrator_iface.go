package application

import (
	"context"

	"telegram-scraper-bot/internal/domain/model"
)

// ---- small interfaces to decouple the orchestrator from concrete infra structs ----

// JobQueue is the admission surface of one resource queue.
type JobQueue interface {
	Submit(job *model.Job) (model.Admission, error)
	Cancel(sessionID int64) bool
	IsQueued(sessionID int64) bool
}

// SearchRunner performs one search and delivers its results to the chat.
type SearchRunner interface {
	Run(ctx context.Context, chatID int64, r model.Resource, query, link string) error
}
