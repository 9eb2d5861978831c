package dedup

import (
	"log"
	"time"

	"github.com/agnivade/levenshtein"
)

// PeerLatency is one entry in an adjacency record's neighbor list: a
// neighbor name paired with the last-known round-trip latency in
// milliseconds (0 when unmeasured).
type PeerLatency struct {
	Name string
	Ms   uint32
}

// Adjacency is the record upserted for a peer on receipt of its Announce
// (spec §3: "Adjacency record"). It is the overlay's view of what that peer
// last claimed about itself and its neighbors.
type Adjacency struct {
	City  string
	Lat   float64
	Lng   float64
	Peers []PeerLatency
}

const adjacencyTTL = 30 * time.Second

// AdjacencyMap is the 30s-TTL map keyed by peer name described in §3.
type AdjacencyMap struct {
	inner *Map[Adjacency]
}

// NewAdjacencyMap constructs an empty adjacency map with the spec's fixed
// 30 second expiry.
func NewAdjacencyMap() *AdjacencyMap {
	return &AdjacencyMap{inner: NewMap[Adjacency](adjacencyTTL)}
}

// Upsert stores or refreshes the adjacency record for name. Peer name
// collisions are not detected by the core (§3), but a near-collision - an
// announcing name within edit-distance 1 of a different existing entry -
// is logged as a best-effort diagnostic so an operator can notice a likely
// typo'd or duplicated peer name.
func (a *AdjacencyMap) Upsert(name string, rec Adjacency) {
	if a == nil {
		return
	}
	for _, existing := range a.Names() {
		if existing == name {
			continue
		}
		if levenshtein.ComputeDistance(existing, name) <= 1 {
			log.Printf("adjacency: peer name %q is within edit-distance 1 of existing peer %q; possible collision", name, existing)
		}
	}
	a.inner.Set(name, rec)
}

// Lookup returns the adjacency record for name if it hasn't expired.
func (a *AdjacencyMap) Lookup(name string) (Adjacency, bool) {
	if a == nil {
		return Adjacency{}, false
	}
	return a.inner.Get(name)
}

// Names returns every peer name currently present (a point-in-time
// snapshot; entries may expire immediately after being returned).
func (a *AdjacencyMap) Names() []string {
	if a == nil {
		return nil
	}
	a.inner.mu.Lock()
	defer a.inner.mu.Unlock()
	names := make([]string, 0, len(a.inner.items))
	for k := range a.inner.items {
		names = append(names, k)
	}
	return names
}

// Sweep removes expired adjacency records.
func (a *AdjacencyMap) Sweep() {
	if a == nil {
		return
	}
	a.inner.Sweep()
}

// StartSweeper launches a background expiry sweep.
func (a *AdjacencyMap) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	if a == nil {
		return
	}
	a.inner.StartSweeper(interval, stop)
}

// ProcessedWindow is the fixed dedup window for (source, sequence_number)
// pairs, per §3's "Processed-commands set".
const ProcessedWindow = 30 * time.Second

// NewProcessedSet constructs the processed-commands set with the spec's
// fixed 30 second window.
func NewProcessedSet() *Set {
	return NewSet(ProcessedWindow)
}

// Key builds the "{source}-{sequence_number}" dedup key used by the
// processed-commands set.
func Key(source string, sequence uint64) string {
	return source + "-" + uintToString(sequence)
}

func uintToString(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
