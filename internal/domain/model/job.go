package model

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobHandler is the body of a job. The queue calls it exactly once.
type JobHandler func(ctx context.Context) error

type Job struct {
	ID          string
	SessionID   int64
	Resource    Resource
	SubmittedAt time.Time
	Handler     JobHandler
	// OnDrop, when set, is called if the queue shuts down before the job started.
	OnDrop func(ctx context.Context)
}

// NewJob builds a job with a time-ordered id.
func NewJob(sessionID int64, r Resource, now time.Time, h JobHandler) *Job {
	return &Job{
		ID:          ulid.Make().String(),
		SessionID:   sessionID,
		Resource:    r,
		SubmittedAt: now,
		Handler:     h,
	}
}

type AdmissionStatus string

const (
	AdmissionRunning AdmissionStatus = "running"
	AdmissionQueued  AdmissionStatus = "queued"
)

// Admission is the outcome of a submit: running now, or queued at a 1-based position.
type Admission struct {
	Status   AdmissionStatus
	Position int
}

func (a Admission) Running() bool { return a.Status == AdmissionRunning }

// QueueStats is a point-in-time view of one resource queue.
type QueueStats struct {
	Name           string `json:"name"`
	MaxConcurrency int    `json:"max_concurrency"`
	Running        int    `json:"running"`
	Queued         int    `json:"queued"`
}
