package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ceasar/auth-service/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, e domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) snapshot() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.events...)
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(4, sink, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, user := range []string{"alice", "bob", "carol"} {
			d.Enqueue(domain.AuditEvent{Type: domain.AuditLoginFailed, Username: user, Reason: fmt.Sprint(i)})
		}
	}
	d.Close()

	got := sink.snapshot()
	if len(got) != 150 {
		t.Fatalf("expected 150 events, got %d", len(got))
	}
	next := map[string]int{}
	for _, e := range got {
		if e.Reason != fmt.Sprint(next[e.Username]) {
			t.Fatalf("out of order for %s: got %s want %d", e.Username, e.Reason, next[e.Username])
		}
		next[e.Username]++
	}
}

func TestDispatcher_EnqueueAfterCloseIsIgnored(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(1, sink, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	d.Enqueue(domain.AuditEvent{Type: domain.AuditRegistered, Username: "alice"})
	if n := len(sink.snapshot()); n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(1, sink, zerolog.Nop())
	// Workers not started: the buffer fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Enqueue(domain.AuditEvent{Username: "alice"})
	}
	if d.Dropped() != 10 {
		t.Fatalf("expected 10 dropped, got %d", d.Dropped())
	}
	d.Start(context.Background())
	d.Close()
	if n := len(sink.snapshot()); n != channelBuffer {
		t.Fatalf("expected %d recorded, got %d", channelBuffer, n)
	}
}

func TestDispatcher_SinkErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{err: errors.New("disk full")}
	d := NewDispatcher(1, sink, zerolog.New(&buf))
	d.Start(context.Background())
	d.Enqueue(domain.AuditEvent{Type: domain.AuditLoginFailed, Username: "alice"})
	d.Close()

	if !strings.Contains(buf.String(), "audit record failed") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

func TestLogSink_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	err := sink.Record(context.Background(), domain.AuditEvent{
		Type:     domain.AuditLoginSucceeded,
		Username: "alice",
		UserID:   "01H",
		At:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"event":"login_succeeded"`, `"user_id":"01H"`, `"component":"audit"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
	if strings.Contains(out, "remote_ip") || strings.Contains(out, "reason") {
		t.Fatalf("unexpected empty fields in %s", out)
	}
}
