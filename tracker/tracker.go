// Package tracker implements the overlay's bootstrap directory (§4.9): a
// standalone service that accepts Register frames and replies with a
// bounded random sample of the peers it has seen so far. It does not
// forward, dedup, or propagate; it is purely a directory.
package tracker

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"meshchat/command"
	"meshchat/frame"
)

// Entry is one registered peer's advertised address.
type Entry struct {
	Name string
	IP   string
	Port string
}

// Registry is the tracker's concurrency-safe table of registered peers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Upsert records or refreshes name's advertised address.
func (r *Registry) Upsert(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Name] = e
}

// Sample returns up to n entries, chosen uniformly at random from the
// current registry (§4.9: "entries may be randomized or ordered; the only
// requirement is the peer list lets a new joiner bootstrap some non-empty
// subset").
func (r *Registry) Sample(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// Len reports how many peers are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Tracker is the standalone bootstrap service. SampleSize bounds the reply
// (§4.9's "N is a configured bound").
type Tracker struct {
	Registry   *Registry
	SampleSize int

	listener net.Listener
}

// NewTracker constructs a tracker with a fresh registry.
func NewTracker(sampleSize int) *Tracker {
	return &Tracker{Registry: NewRegistry(), SampleSize: sampleSize}
}

// Start binds host:port and serves connections until the listener is
// closed. It blocks the calling goroutine.
func (t *Tracker) Start(host, port string) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("tracker: listen on %s:%s: %w", host, port, err)
	}
	t.listener = ln
	log.Printf("tracker: listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("tracker: accept: %w", err)
		}
		go t.handle(conn)
	}
}

// Close stops the accept loop.
func (t *Tracker) Close() error {
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// handle reads exactly one Register frame, upserts the registry, and
// replies with a bounded sample, per §4.9's "one Register in, one
// Array-of-Arrays response out per connection".
func (t *Tracker) handle(conn net.Conn) {
	cid := uuid.NewString()
	defer conn.Close()

	f, err := frame.ReadFrame(conn)
	if err != nil {
		log.Printf("tracker: connection %s: read register: %v", cid, err)
		return
	}
	cmd, err := command.Decode(f)
	if err != nil {
		log.Printf("tracker: connection %s: decode register: %v", cid, err)
		return
	}
	reg, ok := cmd.(command.Register)
	if !ok {
		log.Printf("tracker: connection %s: expected Register, got %T", cid, cmd)
		return
	}

	t.Registry.Upsert(Entry{Name: reg.Source, IP: reg.IP, Port: reg.Port})
	log.Printf("tracker: connection %s: registered %s at %s:%s (%s peers known)", cid, reg.Source, reg.IP, reg.Port, humanize.Comma(int64(t.Registry.Len())))

	sample := t.Registry.Sample(t.SampleSize)
	rows := make([]*frame.Frame, len(sample))
	for i, e := range sample {
		rows[i] = frame.NewArray(frame.Text(e.Name), frame.Text(e.IP), frame.Text(e.Port))
	}
	if err := frame.WriteFrame(conn, frame.NewArray(rows...)); err != nil {
		log.Printf("tracker: connection %s: write response: %v", cid, err)
	}
}
