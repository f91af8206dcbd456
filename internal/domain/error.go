package domain

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrRateLimited        = errors.New("session is rate limited")
	ErrDuplicateActiveJob = errors.New("session already has an active job")
	ErrUnknownResource    = errors.New("unknown resource")
	ErrNothingToCancel    = errors.New("nothing to cancel")
	ErrQueueClosed        = errors.New("resource queue is closed")
	ErrScraperFailure     = errors.New("scraper failure")
	ErrQueueInternal      = errors.New("job handler failed inside the queue")
)
