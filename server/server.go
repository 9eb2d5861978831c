// Package server owns the listener, the bootstrap sequence against the
// tracker, and the goroutines it spawns: the announcer, the client-message
// bridge, and one inbound connection handler per accepted socket (§4.7).
package server

import (
	"fmt"
	"log"
	"net"
	"time"

	"meshchat/backlog"
	"meshchat/command"
	"meshchat/dedup"
	"meshchat/frame"
	"meshchat/latency"
	"meshchat/monitor"
	"meshchat/peer"
	"meshchat/stats"
)

// ExtensionHandler processes a received Extension command's payload after
// it has already been re-broadcast (§4.3: "Receivers with a registered
// handler for extension_id may additionally process payload").
type ExtensionHandler func(source string, payload *frame.Frame)

// Location is this peer's statically configured announce location,
// resolving §9's Open Question on hard-coded city/lat/lng.
type Location struct {
	City string
	Lat  float64
	Lng  float64
}

// Server holds every piece of state the spec's ownership summary (§3)
// assigns to the server process: the listener, the sequence generator, the
// connection counter, the peer registry, the adjacency map, the processed-
// commands set, and the client-facing channel pair. Spawned handlers and
// workers share these by reference ("cloned handle" in the spec's
// vocabulary translates to a shared pointer in Go).
type Server struct {
	Name        string
	BindIP      string
	BindPort    string
	MaxIncoming int
	Location    Location

	// AnnounceInterval overrides the announcer's fixed 5s period (§9).
	// Zero means use the spec's default.
	AnnounceInterval time.Duration

	Peers     *peer.Map
	Adjacency *dedup.AdjacencyMap
	Processed *dedup.Set
	Seq       *stats.SequenceGenerator
	Conns     *stats.ConnectionCounter
	Latency   *latency.Store
	Backlog   *backlog.Ring

	// Monitor, when non-nil, receives a copy of every locally-delivered
	// Say/Whisper event and adjacency update for the debug feed
	// (SPEC_FULL.md §B). It is additive observability, never required for
	// correctness.
	Monitor *monitor.Monitor

	ToUI   chan ServerMessage
	FromUI chan ClientMessage

	extensions map[uint64]ExtensionHandler

	listener net.Listener
	dial     func(network, address string) (net.Conn, error)
}

// peerLatencyProbeInterval is how often a worker pings the peer it holds
// a connection to, feeding latency.Store for the Announce peers field
// (§9). It is independent of the announce period itself.
const peerLatencyProbeInterval = 10 * time.Second

// New constructs a Server ready to Start. backlogCapacity bounds the
// in-memory recent-message ring (§C of SPEC_FULL.md); pass 0 to disable it.
func New(name, bindIP, bindPort string, maxIncoming int, loc Location, backlogCapacity int) *Server {
	toUI, fromUI := newClientChannels()
	s := &Server{
		Name:        name,
		BindIP:      bindIP,
		BindPort:    bindPort,
		MaxIncoming: maxIncoming,
		Location:    loc,
		Peers:       peer.NewMap(),
		Adjacency:   dedup.NewAdjacencyMap(),
		Processed:   dedup.NewProcessedSet(),
		Seq:         stats.NewSequenceGenerator(),
		Conns:       stats.NewConnectionCounter(),
		Latency:     latency.NewStore(),
		ToUI:        toUI,
		FromUI:      fromUI,
		extensions:  make(map[uint64]ExtensionHandler),
		dial:        net.Dial,
	}
	if backlogCapacity > 0 {
		s.Backlog = backlog.NewRing(backlogCapacity)
	}
	return s
}

// RegisterExtension installs a handler for extensionID. Call before Start.
func (s *Server) RegisterExtension(extensionID uint64, h ExtensionHandler) {
	s.extensions[extensionID] = h
}

// Start runs the bootstrap sequence of §4.7: register with the tracker,
// connect to the returned peers, spawn the client bridge and announcer,
// then enter the accept loop. It blocks until the listener fails or is
// closed.
func (s *Server) Start(trackerIP, trackerPort string) error {
	if s.Monitor != nil && s.Backlog != nil {
		s.Monitor = s.Monitor.WithBacklog(func() []monitor.Event {
			return backlogToMonitorEvents(s.Name, s.Backlog.Snapshot())
		})
	}

	if err := s.bootstrapFromTracker(trackerIP, trackerPort); err != nil {
		return fmt.Errorf("server: tracker registration failed: %w", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.BindIP, s.BindPort))
	if err != nil {
		return fmt.Errorf("server: listen on %s:%s: %w", s.BindIP, s.BindPort, err)
	}
	s.listener = ln
	log.Printf("server: %s listening on %s", s.Name, ln.Addr())

	go s.runClientBridge()
	interval := s.AnnounceInterval
	if interval <= 0 {
		interval = announceInterval
	}
	go s.runAnnouncerEvery(interval)

	return s.acceptLoop()
}

// Close stops the accept loop by closing the listener.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// bootstrapFromTracker implements step 1-2 of §4.7: dial the tracker, send
// one Register frame, and connect to every returned peer except self.
func (s *Server) bootstrapFromTracker(trackerIP, trackerPort string) error {
	conn, err := s.dial("tcp", net.JoinHostPort(trackerIP, trackerPort))
	if err != nil {
		return fmt.Errorf("dial tracker: %w", err)
	}
	defer conn.Close()

	reg := command.Register{
		Envelope: command.Envelope{Source: s.Name, Sequence: s.Seq.Next()},
		IP:       s.BindIP,
		Port:     s.BindPort,
	}
	f, err := command.Encode(reg)
	if err != nil {
		return fmt.Errorf("encode register: %w", err)
	}
	if err := frame.WriteFrame(conn, f); err != nil {
		return fmt.Errorf("write register: %w", err)
	}

	resp, err := frame.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("read tracker response: %w", err)
	}
	if resp.Kind != frame.KindArray {
		return fmt.Errorf("tracker response: expected array, got %s", resp.Kind)
	}

	for _, entry := range resp.Array {
		cur, err := frame.NewCursor(entry)
		if err != nil {
			return fmt.Errorf("tracker entry: %w", err)
		}
		name, err := cur.NextText()
		if err != nil {
			return fmt.Errorf("tracker entry name: %w", err)
		}
		ip, err := cur.NextText()
		if err != nil {
			return fmt.Errorf("tracker entry ip: %w", err)
		}
		port, err := cur.NextText()
		if err != nil {
			return fmt.Errorf("tracker entry port: %w", err)
		}
		if name == s.Name {
			continue
		}
		s.connectToPeer(peer.Target{Name: name, IP: ip, Port: port})
	}
	return nil
}

// connectToPeer registers a peer map entry and spawns its worker (§4.5,
// §9's "arena-style registry"). Safe to call for a name already connected;
// the spec's caller (Announce apply) is expected to check Contains first.
func (s *Server) connectToPeer(target peer.Target) {
	recv := make(chan peer.Control, clientChannelCapacity)
	s.Peers.Insert(target.Name, recv)
	w := peer.NewWorker(target, recv, func() {
		s.Peers.Remove(target.Name)
		s.Latency.Forget(target.Name)
	})
	if s.dial != nil {
		w = w.WithDialer(s.dial)
	}
	w = w.WithLatencyProbe(s.Name, peerLatencyProbeInterval, func(ms uint32) {
		s.Latency.Record(target.Name, ms)
	})
	go w.Run()
}

// acceptLoop implements §4.7 step 5: spawn a §4.6 handler per accepted
// socket.
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.handleInbound(conn)
	}
}
