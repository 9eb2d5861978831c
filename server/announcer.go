package server

import (
	"log"
	"time"

	"meshchat/command"
	"meshchat/dedup"
)

// announceInterval is the fixed 5s period of §4.8. A configurable period
// is named as an extension point, not a requirement; config.AnnounceInterval
// reaches runAnnouncerEvery through Server.AnnounceInterval for callers that
// want it.
const announceInterval = 5 * time.Second

// runAnnouncerEvery is the periodic topology beacon task of §4.8,
// parameterized by period so config.AnnounceInterval can override the
// spec's fixed 5s default. It runs for the server's lifetime.
func (s *Server) runAnnouncerEvery(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		s.emitAnnounce()
	}
}

func (s *Server) emitAnnounce() {
	peers := s.Peers.PeerNamesWithLatency(s.Latency.LookupOrZero)
	cmdPeers := make([]command.PeerLatency, len(peers))
	for i, p := range peers {
		cmdPeers[i] = command.PeerLatency{Name: p.Name, Ms: p.Ms}
	}

	announce := command.Announce{
		Envelope:          command.Envelope{Source: s.Name, Sequence: s.Seq.Next()},
		IP:                s.BindIP,
		Port:              mustParseUint(s.BindPort),
		AvailableIncoming: s.Conns.AvailableIncoming(s.MaxIncoming),
		City:              s.Location.City,
		Lat:               s.Location.Lat,
		Lng:               s.Location.Lng,
		Peers:             cmdPeers,
	}
	f, err := command.Encode(announce)
	if err != nil {
		log.Printf("announcer: encode announce: %v", err)
		return
	}
	s.Peers.Broadcast(s.Name, f)
	// The announcer's own emission also seeds this peer's self-view of its
	// location in the adjacency map, so a local debug monitor reading
	// adjacency has a row for self too.
	s.Adjacency.Upsert(s.Name, dedup.Adjacency{
		City:  s.Location.City,
		Lat:   s.Location.Lat,
		Lng:   s.Location.Lng,
		Peers: dedupPeerLatencies(cmdPeers),
	})
}

func dedupPeerLatencies(in []command.PeerLatency) []dedup.PeerLatency {
	out := make([]dedup.PeerLatency, len(in))
	for i, p := range in {
		out[i] = dedup.PeerLatency{Name: p.Name, Ms: p.Ms}
	}
	return out
}
