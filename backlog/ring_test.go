package backlog

import (
	"testing"
	"time"
)

func waitForLen(t *testing.T, r *Ring, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.Len() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("ring never reached length %d, got %d", want, r.Len())
}

func TestRingRetainsUpToCapacity(t *testing.T) {
	r := NewRing(2)
	defer r.Close()

	r.Record(Event{Kind: SayEvent, Source: "A", Sequence: 1, Message: "one"})
	r.Record(Event{Kind: SayEvent, Source: "A", Sequence: 2, Message: "two"})
	r.Record(Event{Kind: SayEvent, Source: "A", Sequence: 3, Message: "three"})

	waitForLen(t, r, 2)
	got := r.Snapshot()
	if got[0].Message != "two" || got[1].Message != "three" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestRingRecordAfterCloseIsNoOp(t *testing.T) {
	r := NewRing(4)
	r.Close()
	r.Record(Event{Kind: WhisperEvent, Source: "A", Message: "hi"})
	if r.Len() != 0 {
		t.Fatalf("expected no entries after close, got %d", r.Len())
	}
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := NewRing(4)
	defer r.Close()
	r.Record(Event{Kind: SayEvent, Source: "A", Message: "hi"})
	waitForLen(t, r, 1)
	snap := r.Snapshot()
	snap[0].Message = "mutated"
	fresh := r.Snapshot()
	if fresh[0].Message != "hi" {
		t.Fatalf("expected internal state unaffected by snapshot mutation, got %q", fresh[0].Message)
	}
}
