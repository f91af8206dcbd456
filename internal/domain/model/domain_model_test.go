//go:build !integration

package model

import (
	"testing"
	"time"
)

// --- Session Model Tests ---

func TestSessionTransitions(t *testing.T) {
	now := time.Now()

	t.Run("single step resource awaits a query", func(t *testing.T) {
		s := NewSession(1, now)
		if s.State != StateIdle {
			t.Fatalf("expected new session to be idle, got %s", s.State)
		}
		s.SelectResource(ResourceEbay)
		if s.State != StateAwaitingQuery || s.Resource != ResourceEbay {
			t.Fatalf("unexpected state after select: %+v", s)
		}
		if !s.AwaitingQuery() {
			t.Error("expected AwaitingQuery to be true")
		}
	})

	t.Run("two step resource collects the link first", func(t *testing.T) {
		s := NewSession(1, now)
		s.SelectResource(ResourceGlobal)
		if s.State != StateAwaitingLink {
			t.Fatalf("expected awaiting_link, got %s", s.State)
		}
		if s.AwaitingQuery() {
			t.Error("link step must not be treated as a query")
		}
		s.AcceptLink("https://shop.example")
		if s.State != StateAwaitingQueryAfterLink || s.PendingLink != "https://shop.example" {
			t.Fatalf("unexpected state after link: %+v", s)
		}
	})

	t.Run("selecting again drops pending data", func(t *testing.T) {
		s := NewSession(1, now)
		s.SelectResource(ResourceGlobal)
		s.AcceptLink("https://shop.example")
		s.SelectResource(ResourceDigikala)
		if s.PendingLink != "" || s.State != StateAwaitingQuery {
			t.Fatalf("expected pending link cleared, got %+v", s)
		}
	})
}

func TestSessionJobLifecycle(t *testing.T) {
	s := NewSession(7, time.Now())
	s.SelectResource(ResourceEbay)
	s.StartJob("job-1")

	if !s.HasActiveJob || s.ActiveJobID != "job-1" {
		t.Fatalf("expected active job, got %+v", s)
	}
	if s.State != StateIdle {
		t.Fatalf("expected idle while job is active, got %s", s.State)
	}

	if s.FinishJob("job-0") {
		t.Fatal("stale job id must not finish the active job")
	}
	if !s.HasActiveJob {
		t.Fatal("active job cleared by stale completion")
	}
	if !s.FinishJob("job-1") {
		t.Fatal("expected FinishJob to clear the active job")
	}
	if s.HasActiveJob || s.ActiveJobID != "" {
		t.Fatalf("expected no active job, got %+v", s)
	}
}

func TestSessionCancel(t *testing.T) {
	s := NewSession(7, time.Now())
	if s.Cancel() {
		t.Fatal("cancel on idle session must report nothing active")
	}
	s.SelectResource(ResourceGlobal)
	s.AcceptLink("x")
	s.StartJob("job-1")
	if !s.Cancel() {
		t.Fatal("expected cancel to report the active job")
	}
	if s.State != StateIdle || s.PendingLink != "" || s.HasActiveJob {
		t.Fatalf("unexpected state after cancel: %+v", s)
	}
}

// --- Resource / Command Tests ---

func TestParseResource(t *testing.T) {
	for _, r := range Resources {
		got, ok := ParseResource(" " + string(r) + " ")
		if !ok || got != r {
			t.Errorf("ParseResource(%q) = %q, %v", r, got, ok)
		}
	}
	if _, ok := ParseResource("amazon"); ok {
		t.Error("expected unknown resource to fail")
	}
	if !ResourceGlobal.NeedsLink() || ResourceEbay.NeedsLink() {
		t.Error("only the global resource needs a link")
	}
}

func TestNewJob(t *testing.T) {
	now := time.Now()
	a := NewJob(1, ResourceEbay, now, nil)
	b := NewJob(1, ResourceEbay, now, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique job ids, got %q and %q", a.ID, b.ID)
	}
	if a.SubmittedAt != now || a.Resource != ResourceEbay || a.SessionID != 1 {
		t.Fatalf("unexpected job: %+v", a)
	}
}

func TestCommandKindString(t *testing.T) {
	if CommandCancel.String() != "cancel" || CommandFreeText.String() != "free_text" {
		t.Fatalf("unexpected command names")
	}
}
