package repository

import (
	"time"

	"telegram-scraper-bot/internal/domain/model"
)

// SessionStore keeps conversational state keyed by session id.
// WithSession creates the session on first contact and runs fn while holding
// that session's lock, so no two mutations of one session interleave.
type SessionStore interface {
	WithSession(id int64, now time.Time, fn func(s *model.Session) error) error
	Get(id int64) (model.Session, bool)
	// Sweep drops sessions idle since before cutoff that own no job.
	Sweep(cutoff time.Time) int
	Len() int
}
