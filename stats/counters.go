// Package stats holds the server's two atomic counters: the sequence
// generator that stamps locally originated commands, and the inbound
// connection counter the announcer reads to compute advertised
// available-incoming capacity (§3).
//
// Both are grounded on the teacher's Tracker, which kept per-key counts in
// sync.Map-backed *atomic.Uint64 cells rather than behind a mutex; here
// there is no per-key dimension, so each counter is a single atomic.Uint64
// field, but the non-blocking, lock-free shape carries over directly.
package stats

import "sync/atomic"

// SequenceGenerator is a per-server monotonically increasing counter used
// to stamp every locally originated command (§3: "incremented only for
// locally originated commands").
type SequenceGenerator struct {
	counter atomic.Uint64
}

// NewSequenceGenerator constructs a generator starting at 0; Next's first
// call returns 0.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Next returns the next sequence number, post-incrementing the counter
// (§3: "next() returns and post-increments"; §8's scenario S6 stamps the
// first Register frame with sequence_number 0).
func (g *SequenceGenerator) Next() uint64 {
	return g.counter.Add(1) - 1
}

// ConnectionCounter tracks currently open inbound connections (§3:
// "incremented on accept, decremented on handler exit"). The announcer
// reads it to compute available_incoming.
type ConnectionCounter struct {
	count atomic.Int64
}

// NewConnectionCounter constructs a counter at zero.
func NewConnectionCounter() *ConnectionCounter {
	return &ConnectionCounter{}
}

// Inc records a newly accepted inbound connection.
func (c *ConnectionCounter) Inc() {
	c.count.Add(1)
}

// Dec records an inbound handler's exit.
func (c *ConnectionCounter) Dec() {
	c.count.Add(-1)
}

// Load returns the current count of open inbound connections.
func (c *ConnectionCounter) Load() int64 {
	return c.count.Load()
}

// AvailableIncoming computes max(0, maxIncoming - currentInboundCount), the
// quantity advertised in an Announce's available_incoming field (§4.8,
// invariant 3 in §8).
func (c *ConnectionCounter) AvailableIncoming(maxIncoming int) uint64 {
	avail := int64(maxIncoming) - c.Load()
	if avail < 0 {
		return 0
	}
	return uint64(avail)
}
