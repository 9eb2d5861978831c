package server

import (
	"testing"
	"time"

	"meshchat/command"
	"meshchat/peer"
)

func TestEmitAnnounceBroadcastsWithAvailableIncoming(t *testing.T) {
	s := newTestServer("A")
	b := make(chan peer.Control, 1)
	s.Peers.Insert("B", b)
	s.Conns.Inc() // one inbound open, max_incoming=2 => available=1

	s.emitAnnounce()

	select {
	case ctl := <-b:
		decoded, err := command.Decode(ctl.Frame)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		ann := decoded.(command.Announce)
		if ann.Source != "A" || ann.AvailableIncoming != 1 {
			t.Fatalf("unexpected announce: %+v", ann)
		}
		if ann.City != "Testville" {
			t.Fatalf("expected configured location, got %+v", ann)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected announce broadcast")
	}
}

func TestEmitAnnounceIncludesPeerLatency(t *testing.T) {
	s := newTestServer("A")
	b := make(chan peer.Control, 1)
	s.Peers.Insert("B", b)
	s.Latency.Record("B", 42)

	s.emitAnnounce()

	ctl := <-b
	decoded, _ := command.Decode(ctl.Frame)
	ann := decoded.(command.Announce)
	if len(ann.Peers) != 1 || ann.Peers[0].Name != "B" || ann.Peers[0].Ms != 42 {
		t.Fatalf("unexpected peers list: %+v", ann.Peers)
	}
}

func TestRunAnnouncerEveryFiresOnSchedule(t *testing.T) {
	s := newTestServer("A")
	b := make(chan peer.Control, 2)
	s.Peers.Insert("B", b)

	go s.runAnnouncerEvery(10 * time.Millisecond)

	select {
	case <-b:
	case <-time.After(time.Second):
		t.Fatalf("expected at least one announce tick")
	}
}
