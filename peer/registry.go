// Package peer implements the overlay's outbound fan-out: the name-keyed
// peer map (registry) and the one-goroutine-per-outbound-connection worker
// that drains it (spec §4.4, §4.5).
package peer

import (
	"sync"

	"meshchat/frame"
)

// ControlKind tags a Control message sent down a peer worker's channel.
type ControlKind int

const (
	// FrameMsg carries a frame to encode and write.
	FrameMsg ControlKind = iota
	// ShutdownMsg asks the worker to exit without closing the channel
	// itself (the registry, which owns the send side, does that).
	ShutdownMsg
)

// Control is one message enqueued to a peer worker.
type Control struct {
	Kind  ControlKind
	Frame *frame.Frame
}

// Map is the name-keyed registry of outbound peer workers described in
// §4.4. The registry owns the send side of every channel it holds; workers
// own only the receive side, matching §3's ownership note. Concurrent
// readers and writers are permitted: iteration snapshots the current key
// set so insertions during a broadcast need not be visited.
type Map struct {
	mu    sync.RWMutex
	peers map[string]chan Control
}

// NewMap constructs an empty peer map.
func NewMap() *Map {
	return &Map{peers: make(map[string]chan Control)}
}

// Insert registers name's outbound send channel. Lifetime: inserted when an
// outbound connection to name is being established, removed when that
// connection's worker loop terminates (§3).
func (m *Map) Insert(name string, ch chan Control) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[name] = ch
}

// Remove deletes name's entry and closes its channel, signaling the
// worker's receive loop to exit. Safe to call more than once for the same
// name.
func (m *Map) Remove(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.peers[name]
	if !ok {
		return
	}
	delete(m.peers, name)
	close(ch)
}

// Contains reports whether name currently has a live worker entry. The
// peer map contains an entry for name iff a worker task for name is
// currently alive (invariant 4, §8).
func (m *Map) Contains(name string) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.peers[name]
	return ok
}

// Names returns a point-in-time snapshot of registered peer names.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.peers))
	for name := range m.peers {
		names = append(names, name)
	}
	return names
}

// PeerLatency pairs a peer name with a round-trip latency in milliseconds.
type PeerLatency struct {
	Name string
	Ms   uint32
}

// PeerNamesWithLatency implements §4.4's peer_names() → [(name,
// latency_ms)], using latencyOf to resolve each name's last-known latency
// (0 where unknown, per the spec's default).
func (m *Map) PeerNamesWithLatency(latencyOf func(name string) uint32) []PeerLatency {
	names := m.Names()
	out := make([]PeerLatency, len(names))
	for i, name := range names {
		var ms uint32
		if latencyOf != nil {
			ms = latencyOf(name)
		}
		out[i] = PeerLatency{Name: name, Ms: ms}
	}
	return out
}

// SendToPeer enqueues frame to exactly target, unless target equals
// exceptSource (mirroring Broadcast's exclusion so callers can pass the
// command's source uniformly). A missing target is a silent drop (§4.4).
func (m *Map) SendToPeer(exceptSource, target string, f *frame.Frame) {
	if m == nil || target == "" || target == exceptSource {
		return
	}
	m.mu.RLock()
	ch, ok := m.peers[target]
	m.mu.RUnlock()
	if !ok {
		return
	}
	enqueue(ch, Control{Kind: FrameMsg, Frame: f})
}

// Broadcast delivers frame to every peer whose name is not exceptSource.
// Deliveries are non-blocking enqueues; a peer whose channel is already
// full or closed is treated as gone.
func (m *Map) Broadcast(exceptSource string, f *frame.Frame) {
	if m == nil {
		return
	}
	m.mu.RLock()
	targets := make(map[string]chan Control, len(m.peers))
	for name, ch := range m.peers {
		if name == exceptSource {
			continue
		}
		targets[name] = ch
	}
	m.mu.RUnlock()
	for name, ch := range targets {
		if !enqueue(ch, Control{Kind: FrameMsg, Frame: f}) {
			m.Remove(name)
		}
	}
}

// enqueue performs a non-blocking send, recovering from a send on an
// already-closed channel (the registry may have removed the peer
// concurrently) and reporting that as a failed delivery.
func enqueue(ch chan Control, msg Control) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
