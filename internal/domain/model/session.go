package model

import "time"

type SessionState string

const (
	StateIdle                   SessionState = "idle"
	StateAwaitingQuery          SessionState = "awaiting_query"
	StateAwaitingLink           SessionState = "awaiting_link"
	StateAwaitingQueryAfterLink SessionState = "awaiting_query_after_link"
)

// Session is the conversational state of one chat.
// HasActiveJob overlays State: a session can be Idle and still own a running or queued job.
type Session struct {
	ID           int64        `json:"id"`
	State        SessionState `json:"state"`
	Resource     Resource     `json:"resource,omitempty"`
	PendingLink  string       `json:"pending_link,omitempty"`
	HasActiveJob bool         `json:"has_active_job"`
	ActiveJobID  string       `json:"active_job_id,omitempty"`
	LastSeen     time.Time    `json:"last_seen"`
}

func NewSession(id int64, now time.Time) *Session {
	return &Session{ID: id, State: StateIdle, LastSeen: now}
}

// SelectResource starts a new flow for r, dropping any pending data.
func (s *Session) SelectResource(r Resource) {
	s.Resource = r
	s.PendingLink = ""
	if r.NeedsLink() {
		s.State = StateAwaitingLink
	} else {
		s.State = StateAwaitingQuery
	}
}

// AcceptLink stores the link of the two-step flow and waits for the query.
func (s *Session) AcceptLink(link string) {
	s.PendingLink = link
	s.State = StateAwaitingQueryAfterLink
}

// AwaitingQuery reports whether the next free text is a search query.
func (s *Session) AwaitingQuery() bool {
	return s.State == StateAwaitingQuery || s.State == StateAwaitingQueryAfterLink
}

// StartJob marks jobID as the session's active job and returns the session to Idle.
func (s *Session) StartJob(jobID string) {
	s.HasActiveJob = true
	s.ActiveJobID = jobID
	s.reset()
}

// FinishJob clears the active job if jobID is still the active one.
// A stale completion (the job was cancelled and another submitted) is ignored.
func (s *Session) FinishJob(jobID string) bool {
	if s.ActiveJobID != jobID {
		return false
	}
	s.HasActiveJob = false
	s.ActiveJobID = ""
	s.reset()
	return true
}

// Cancel forces the session back to Idle and reports whether a job was active.
func (s *Session) Cancel() bool {
	had := s.HasActiveJob
	s.HasActiveJob = false
	s.ActiveJobID = ""
	s.reset()
	return had
}

func (s *Session) reset() {
	s.State = StateIdle
	s.Resource = ""
	s.PendingLink = ""
}
