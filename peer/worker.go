package peer

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"meshchat/command"
	"meshchat/frame"
)

// Target names one outbound connection to establish.
type Target struct {
	Name string
	IP   string
	Port string
}

func (t Target) addr() string {
	return net.JoinHostPort(t.IP, t.Port)
}

// Worker owns one outbound TCP connection and drains its control channel
// (§4.5). It has no retry logic: a connect failure is logged and the
// worker exits immediately, exactly as the spec requires ("Connect
// failures are logged and the worker exits immediately").
type Worker struct {
	target  Target
	recv    <-chan Control
	onExit  func()
	dial    func(network, address string) (net.Conn, error)
	dialCID string

	writeMu sync.Mutex

	// selfName, pingInterval, and onLatency configure the optional
	// round-trip latency probe (§9's Announce peers field: "records
	// measured Ping round-trip times"). Left zero-valued, the worker
	// behaves exactly as before: it never originates traffic of its own.
	selfName     string
	pingInterval time.Duration
	onLatency    func(ms uint32)
	pingSentAt   atomic.Int64
}

// WithLatencyProbe arms a periodic Ping/Pong round-trip measurement on this
// worker's connection: every interval it sends a Ping stamped with
// selfName, and once the reply arrives it reports the elapsed time to
// onLatency. selfName is this process's own name (the Ping's source),
// distinct from target.Name (the remote peer being probed).
func (w *Worker) WithLatencyProbe(selfName string, interval time.Duration, onLatency func(ms uint32)) *Worker {
	w.selfName = selfName
	w.pingInterval = interval
	w.onLatency = onLatency
	return w
}

// NewWorker builds a worker for target, reading control messages from
// recv. onExit is invoked exactly once when the worker's loop ends, for
// any reason, so the caller can remove the registry entry (design note §9:
// "realize this as an arena-style registry ... entries are removed on
// worker exit").
func NewWorker(target Target, recv <-chan Control, onExit func()) *Worker {
	return &Worker{
		target:  target,
		recv:    recv,
		onExit:  onExit,
		dial:    net.Dial,
		dialCID: uuid.NewString(),
	}
}

// Run establishes the connection and loops until the control channel
// closes, a Shutdown message arrives, or a write fails. It blocks the
// calling goroutine; callers run it with `go worker.Run()`.
func (w *Worker) Run() {
	defer func() {
		if w.onExit != nil {
			w.onExit()
		}
	}()

	conn, err := w.dial("tcp", w.target.addr())
	if err != nil {
		log.Printf("peer worker %s (%s): connect to %s failed: %v", w.target.Name, w.dialCID, w.target.addr(), err)
		return
	}
	defer conn.Close()
	log.Printf("peer worker %s (%s): connected to %s", w.target.Name, w.dialCID, w.target.addr())

	// The latency probe is the only production code path that reads this
	// connection: a bare worker is write-only, mirroring the spec's
	// fire-and-forget fan-out. When armed, it also gives us a cheap way to
	// notice the remote side has gone away (a read error ends readLoop,
	// which ends this worker).
	var readDone chan struct{}
	if w.onLatency != nil {
		readDone = make(chan struct{})
		stop := make(chan struct{})
		defer close(stop)
		go w.readLoop(conn, readDone)
		go w.pingLoop(conn, stop)
	}

	for {
		select {
		case msg, ok := <-w.recv:
			if !ok {
				// recv closed: the registry removed this entry.
				return
			}
			switch msg.Kind {
			case ShutdownMsg:
				return
			case FrameMsg:
				if err := w.write(conn, msg.Frame); err != nil {
					log.Printf("peer worker %s (%s): write failed: %v", w.target.Name, w.dialCID, err)
					return
				}
			}
		case <-readDone:
			return
		}
	}
}

// write serializes writes to conn against the ping loop's own writes.
func (w *Worker) write(conn net.Conn, f *frame.Frame) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return frame.WriteFrame(conn, f)
}

// pingLoop sends one Ping per pingInterval until stop closes, stamping
// pingSentAt immediately before each write so readLoop can compute the
// round trip once the reply arrives.
func (w *Worker) pingLoop(conn net.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			seq++
			ping := command.Ping{Envelope: command.Envelope{Source: w.selfName, Sequence: seq}}
			f, err := command.Encode(ping)
			if err != nil {
				log.Printf("peer worker %s (%s): encode ping: %v", w.target.Name, w.dialCID, err)
				continue
			}
			w.pingSentAt.Store(time.Now().UnixNano())
			if err := w.write(conn, f); err != nil {
				return
			}
		}
	}
}

// readLoop drains conn for Pong replies (plain Number frames, per §4.6's
// inline Ping handling) and reports round-trip time to onLatency. It
// returns, closing done, on any read error — including a clean remote
// close — which also ends the worker's main loop.
func (w *Worker) readLoop(conn net.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		f, err := frame.ReadFrame(conn)
		if err != nil {
			return
		}
		if f.Kind != frame.KindNumber {
			continue
		}
		sentAt := w.pingSentAt.Swap(0)
		if sentAt == 0 {
			continue
		}
		ms := time.Since(time.Unix(0, sentAt)).Milliseconds()
		if ms < 0 {
			ms = 0
		}
		w.onLatency(uint32(ms))
	}
}

// DialTimeout wraps net.DialTimeout for callers that want a bounded
// connect attempt instead of the default (unbounded) net.Dial.
func DialTimeout(timeout time.Duration) func(network, address string) (net.Conn, error) {
	return func(network, address string) (net.Conn, error) {
		return net.DialTimeout(network, address, timeout)
	}
}

// WithDialer overrides the worker's dial function; used by tests and by
// callers that want a connect timeout via DialTimeout.
func (w *Worker) WithDialer(dial func(network, address string) (net.Conn, error)) *Worker {
	w.dial = dial
	return w
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.Name, t.addr())
}
