package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	fail   bool
}

func (r *recordingRecorder) Record(_ context.Context, e domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.fail {
		return errors.New("store down")
	}
	return nil
}

func (r *recordingRecorder) byTarget(target string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.TargetID == target {
			out = append(out, e.Detail)
		}
	}
	return out
}

func TestDispatcher_PerTargetOrdering(t *testing.T) {
	rec := &recordingRecorder{}
	d := NewDispatcher(4, rec, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, target := range []string{"u1", "u2", "c9"} {
			d.Enqueue(domain.AuditEvent{Action: domain.AuditUserUpdated, TargetID: target, Detail: fmt.Sprint(i)})
		}
	}
	d.Close()

	for _, target := range []string{"u1", "u2", "c9"} {
		got := rec.byTarget(target)
		if len(got) != 50 {
			t.Fatalf("%s: expected 50 events, got %d", target, len(got))
		}
		for i, detail := range got {
			if detail != fmt.Sprint(i) {
				t.Fatalf("%s: event %d out of order: %s", target, i, detail)
			}
		}
	}
}

func TestDispatcher_DropsWhenFullOrClosed(t *testing.T) {
	var drops atomic.Int64
	d := NewDispatcher(1, &recordingRecorder{}, zerolog.Nop(), OnDrop(func() { drops.Add(1) }))
	// not started: the single shard fills up
	for i := 0; i < channelBuffer+3; i++ {
		d.Enqueue(domain.AuditEvent{TargetID: "x"})
	}
	if got := drops.Load(); got != 3 {
		t.Fatalf("expected 3 dropped events, got %d", got)
	}

	d.Start(context.Background())
	d.Close()
	d.Enqueue(domain.AuditEvent{TargetID: "x"})
	if got := drops.Load(); got != 4 {
		t.Fatalf("expected enqueue after close to drop, got %d drops", got)
	}
	d.Close()
}

func TestDispatcher_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &recordingRecorder{fail: true}
	d := NewDispatcher(2, rec, zerolog.Nop())
	d.Start(context.Background())
	d.Enqueue(domain.AuditEvent{TargetID: "a"})
	d.Enqueue(domain.AuditEvent{TargetID: "b"})
	d.Close()

	if n := len(rec.byTarget("a")) + len(rec.byTarget("b")); n != 2 {
		t.Fatalf("expected both events attempted, got %d", n)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, &recordingRecorder{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected default worker count, got %d", len(d.workers))
	}
	if d.shardIndex("user-42") != d.shardIndex("user-42") {
		t.Fatalf("shard index must be deterministic")
	}
}
