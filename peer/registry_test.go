package peer

import (
	"testing"
	"time"

	"meshchat/frame"
)

func TestInsertContainsRemove(t *testing.T) {
	m := NewMap()
	ch := make(chan Control, 1)
	m.Insert("B", ch)
	if !m.Contains("B") {
		t.Fatalf("expected B to be present")
	}
	m.Remove("B")
	if m.Contains("B") {
		t.Fatalf("expected B to be removed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestBroadcastExcludesSource(t *testing.T) {
	m := NewMap()
	a := make(chan Control, 1)
	b := make(chan Control, 1)
	m.Insert("A", a)
	m.Insert("B", b)

	m.Broadcast("A", frame.Text("hi"))

	select {
	case <-a:
		t.Fatalf("source A should not receive its own broadcast")
	default:
	}
	select {
	case msg := <-b:
		if msg.Frame.Text != "hi" {
			t.Fatalf("unexpected frame: %+v", msg.Frame)
		}
	default:
		t.Fatalf("expected B to receive the broadcast")
	}
}

func TestSendToPeerMissingTargetIsSilentDrop(t *testing.T) {
	m := NewMap()
	m.SendToPeer("", "ghost", frame.Text("hi")) // must not panic
}

func TestSendToPeerSkipsExceptSource(t *testing.T) {
	m := NewMap()
	ch := make(chan Control, 1)
	m.Insert("A", ch)
	m.SendToPeer("A", "A", frame.Text("hi"))
	select {
	case <-ch:
		t.Fatalf("expected no delivery when target == exceptSource")
	default:
	}
}

func TestPeerNamesWithLatency(t *testing.T) {
	m := NewMap()
	m.Insert("A", make(chan Control, 1))
	m.Insert("B", make(chan Control, 1))
	got := m.PeerNamesWithLatency(func(name string) uint32 {
		if name == "A" {
			return 17
		}
		return 0
	})
	byName := map[string]uint32{}
	for _, p := range got {
		byName[p.Name] = p.Ms
	}
	if byName["A"] != 17 || byName["B"] != 0 {
		t.Fatalf("unexpected latencies: %+v", byName)
	}
}

func TestBroadcastRemovesDeadPeerOnFullChannel(t *testing.T) {
	m := NewMap()
	ch := make(chan Control) // unbuffered, no reader: first send blocks under select+default
	m.Insert("B", ch)
	m.Broadcast("", frame.Text("hi"))
	time.Sleep(10 * time.Millisecond)
	if m.Contains("B") {
		t.Fatalf("expected B to be removed after failed non-blocking enqueue")
	}
}
