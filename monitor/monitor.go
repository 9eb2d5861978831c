// Package monitor is additive observability tooling (SPEC_FULL.md §B): a
// debug websocket endpoint that streams locally-delivered Say/Whisper
// events and adjacency snapshots to a connecting browser. It carries no
// propagation semantics and is not part of the peer-to-peer wire protocol.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one line pushed to every connected monitor client.
type Event struct {
	Kind      string    `json:"kind"` // "say", "whisper", "adjacency"
	Source    string    `json:"source,omitempty"`
	Target    string    `json:"target,omitempty"`
	Text      string    `json:"text,omitempty"`
	Adjacency []string  `json:"adjacency,omitempty"`
	At        time.Time `json:"at"`
}

// Monitor fans out Events to every connected websocket client.
type Monitor struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event

	// backlogFn, when set, supplies a short replay of recently-delivered
	// events sent to each client immediately after it connects, so a UI
	// that attaches after startup (or reconnects) doesn't only see events
	// from the moment it attached.
	backlogFn func() []Event
}

// WithBacklog arms a one-time replay of fn's events for every newly
// connected client, sent before any live Publish traffic.
func (m *Monitor) WithBacklog(fn func() []Event) *Monitor {
	m.backlogFn = fn
	return m
}

// New constructs a Monitor. Origin checking is disabled (CheckOrigin always
// true) since this is a local debug tool, not part of the wire protocol's
// trust boundary.
func New() *Monitor {
	return &Monitor{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]chan Event),
	}
}

// ServeHTTP upgrades the connection and streams Events to it until the
// client disconnects.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan Event, 64)
	m.mu.Lock()
	m.clients[conn] = ch
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.clients, conn)
		m.mu.Unlock()
	}()

	if m.backlogFn != nil {
		for _, ev := range m.backlogFn() {
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}

	for ev := range ch {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// Publish fans ev out to every connected client, dropping it for any
// client whose buffer is full rather than blocking the publisher.
func (m *Monitor) Publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, ch := range m.clients {
		select {
		case ch <- ev:
		default:
			log.Printf("monitor: dropping event for slow client %s", conn.RemoteAddr())
		}
	}
}

// AdjacencySnapshot renders the current adjacency map's known peer names
// into an Event suitable for Publish.
func AdjacencySnapshot(names []string) Event {
	return Event{Kind: "adjacency", Adjacency: names, At: time.Now()}
}

// SayEvent renders a locally-delivered Say command into a monitor Event.
func SayEvent(source, text string) Event {
	return Event{Kind: "say", Source: source, Text: text, At: time.Now()}
}

// WhisperEvent renders a locally-delivered Whisper command into a monitor
// Event.
func WhisperEvent(source, target, text string) Event {
	return Event{Kind: "whisper", Source: source, Target: target, Text: text, At: time.Now()}
}

// ListenAndServe starts an HTTP server exposing the monitor at /feed.
func (m *Monitor) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/feed", m)
	log.Printf("monitor: debug feed listening on %s/feed", addr)
	return http.ListenAndServe(addr, mux)
}
