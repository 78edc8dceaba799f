package telemetry

import (
	"fmt"
	"testing"
)

func TestRecorderKeepsOrderAndStampsTime(t *testing.T) {
	r := NewRecorder(10)
	for i := 0; i < 3; i++ {
		r.Record(Event{Kind: KindInference, SessionID: fmt.Sprintf("s%d", i)})
	}
	r.Close()

	events := r.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events after close, got %d", len(events))
	}
	for i, ev := range events {
		if want := fmt.Sprintf("s%d", i); ev.SessionID != want {
			t.Errorf("event %d out of order: got %s want %s", i, ev.SessionID, want)
		}
		if ev.At.IsZero() {
			t.Errorf("event %d missing timestamp", i)
		}
	}
}

func TestRecorderBoundsCapacity(t *testing.T) {
	r := NewRecorder(10)
	for i := 0; i < 15; i++ {
		r.Record(Event{Kind: KindCacheHit, SessionID: fmt.Sprintf("s%d", i)})
	}
	r.Close()

	events := r.Snapshot()
	if len(events) != 10 {
		t.Fatalf("expected capacity-bounded log of 10, got %d", len(events))
	}
	if events[0].SessionID != "s5" {
		t.Errorf("oldest events should be trimmed first, got %s", events[0].SessionID)
	}
	if events[9].SessionID != "s14" {
		t.Errorf("newest event should be retained, got %s", events[9].SessionID)
	}
}

func TestRecorderAfterCloseDropsSilently(t *testing.T) {
	r := NewRecorder(5)
	r.Record(Event{Kind: KindInference})
	r.Close()

	r.Record(Event{Kind: KindInference}) // must not panic or block
	if got := r.Len(); got != 1 {
		t.Errorf("event after close should not be retained, len=%d", got)
	}
	if r.Dropped() != 1 {
		t.Errorf("event after close should count as dropped, got %d", r.Dropped())
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Record(Event{Kind: KindInference})
	r.Close()
	if r.Snapshot() != nil || r.Len() != 0 || r.Dropped() != 0 {
		t.Errorf("nil recorder should behave as an empty sink")
	}
}
