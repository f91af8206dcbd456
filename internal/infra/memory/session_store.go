package memory

import (
	"sync"
	"time"

	"telegram-scraper-bot/internal/domain/model"
	"telegram-scraper-bot/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

type sessionEntry struct {
	mu      sync.Mutex
	sess    *model.Session
	evicted bool
}

// SessionStore is the process-lifetime session store.
// The map is guarded by mu; each entry has its own lock so sessions progress independently.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*sessionEntry)}
}

func (s *SessionStore) WithSession(id int64, now time.Time, fn func(sess *model.Session) error) error {
	for {
		e := s.entry(id, now)
		e.mu.Lock()
		if e.evicted {
			// lost a race with Sweep; the next lookup creates a fresh entry
			e.mu.Unlock()
			continue
		}
		e.sess.LastSeen = now
		err := fn(e.sess)
		e.mu.Unlock()
		return err
	}
}

func (s *SessionStore) entry(id int64, now time.Time) *sessionEntry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e
	}
	e = &sessionEntry{sess: model.NewSession(id, now)}
	s.sessions[id] = e
	return e
}

// Get returns a snapshot of the session.
func (s *SessionStore) Get(id int64) (model.Session, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return model.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return model.Session{}, false
	}
	return *e.sess, true
}

func (s *SessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		// busy entries are skipped and picked up on the next sweep
		if !e.mu.TryLock() {
			continue
		}
		if !e.sess.HasActiveJob && e.sess.LastSeen.Before(cutoff) {
			e.evicted = true
			delete(s.sessions, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
