package server

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"meshchat/backlog"
	"meshchat/command"
	"meshchat/dedup"
	"meshchat/frame"
	"meshchat/monitor"
	"meshchat/peer"
)

// apply is the overlay's single dispatch point for command semantics
// (design note §9: "represented as a tagged variant with a single apply
// entry point that matches; do not use open polymorphism"). Ping never
// reaches here: its reply goes straight back on the inbound connection
// (§4.6), so it is handled in handleInbound before the dedup gate.
func (s *Server) apply(cmd command.Command, f *frame.Frame) {
	switch c := cmd.(type) {
	case command.Say:
		deliverToUI(s.ToUI, ServerSay{From: c.Source, Text: c.Message})
		s.recordBacklog(c.Source, c.Sequence, c.Message, false)
		s.publishMonitor(monitor.SayEvent(c.Source, c.Message))
		s.Peers.Broadcast(c.Source, f)

	case command.Whisper:
		s.applyWhisper(c, f)

	case command.Register:
		log.Printf("server: received Register from %s in peer-to-peer traffic; trackers only", c.Source)

	case command.Announce:
		s.applyAnnounce(c, f)

	case command.Broadcast:
		s.Peers.Broadcast(c.Source, f)

	case command.Deliver:
		// A shortest-path variant over the adjacency map's union is a
		// documented extension point (§9); this repo broadcasts, matching
		// §4.3's literal apply effect for Deliver.
		s.Peers.Broadcast(c.Source, f)

	case command.Extension:
		s.Peers.Broadcast(c.Source, f)
		if h, ok := s.extensions[c.ExtensionID]; ok {
			h(c.Source, c.Payload)
		}

	case command.Unknown:
		// Ignored silently; no dedup, no propagation (§4.3).

	default:
		log.Printf("server: apply: unhandled command type %T", cmd)
	}
}

// applyWhisper implements §4.3's hop-by-hop routing plus the supplemented
// terminal-delivery decision recorded in DESIGN.md: delivery to the local
// client happens whenever destination == self.name, independent of
// whether path has also emptied.
func (s *Server) applyWhisper(c command.Whisper, f *frame.Frame) {
	if c.Destination == s.Name {
		deliverToUI(s.ToUI, ServerWhisper{From: c.Source, To: c.Destination, Text: c.Message})
		s.recordBacklog(c.Source, c.Sequence, c.Message, true)
		s.publishMonitor(monitor.WhisperEvent(c.Source, c.Destination, c.Message))
	}
	hop, rest, ok := c.NextHop()
	if !ok {
		return
	}
	next := command.Whisper{
		Envelope:    c.Envelope,
		Destination: c.Destination,
		Message:     c.Message,
		Path:        rest,
	}
	nextFrame, err := command.Encode(next)
	if err != nil {
		log.Printf("server: re-encoding whisper for next hop %s: %v", hop, err)
		return
	}
	s.Peers.SendToPeer(c.Source, hop, nextFrame)
}

// applyAnnounce implements §4.3's three Announce effects: adjacency
// upsert, broadcast, and opportunistic connect.
func (s *Server) applyAnnounce(c command.Announce, f *frame.Frame) {
	peers := make([]dedup.PeerLatency, len(c.Peers))
	for i, p := range c.Peers {
		peers[i] = dedup.PeerLatency{Name: p.Name, Ms: p.Ms}
	}
	s.Adjacency.Upsert(c.Source, dedup.Adjacency{
		City:  c.City,
		Lat:   c.Lat,
		Lng:   c.Lng,
		Peers: peers,
	})
	s.publishMonitor(monitor.AdjacencySnapshot(s.Adjacency.Names()))
	s.Peers.Broadcast(c.Source, f)

	// Invariant 8/9 (§8): available_incoming == 0, or source already
	// outbound-connected, never triggers a connect attempt.
	if c.AvailableIncoming >= 1 && !s.Peers.Contains(c.Source) {
		if rand.Intn(int(c.AvailableIncoming)) == 0 {
			s.connectToPeer(peer.Target{Name: c.Source, IP: c.IP, Port: fmt.Sprintf("%d", c.Port)})
		}
	}
}

// recordBacklog appends a locally-delivered event to the in-memory backlog
// ring, when one is configured (SPEC_FULL.md §C).
func (s *Server) recordBacklog(source string, seq uint64, message string, whisper bool) {
	if s.Backlog == nil {
		return
	}
	kind := backlog.SayEvent
	if whisper {
		kind = backlog.WhisperEvent
	}
	s.Backlog.Record(backlog.Event{Kind: kind, Source: source, Sequence: seq, Message: message, Recorded: time.Now().UnixNano()})
}

// publishMonitor forwards ev to the debug feed, when one is attached.
func (s *Server) publishMonitor(ev monitor.Event) {
	if s.Monitor == nil {
		return
	}
	s.Monitor.Publish(ev)
}

// backlogToMonitorEvents renders retained backlog entries into the
// monitor's wire shape, for replay to newly connected debug clients
// (SPEC_FULL.md §C: "so a UI that attaches after startup ... can request a
// short backlog instead of only seeing events from the moment it
// attached"). Every retained Whisper entry was, by construction, addressed
// to selfName: recordBacklog only ever runs from applyWhisper's
// destination == s.Name branch.
func backlogToMonitorEvents(selfName string, events []backlog.Event) []monitor.Event {
	out := make([]monitor.Event, len(events))
	for i, ev := range events {
		mev := monitor.Event{Source: ev.Source, Text: ev.Message, At: time.Unix(0, ev.Recorded)}
		if ev.Kind == backlog.WhisperEvent {
			mev.Kind = "whisper"
			mev.Target = selfName
		} else {
			mev.Kind = "say"
		}
		out[i] = mev
	}
	return out
}
