package dedup

import (
	"testing"
	"time"
)

func TestAdjacencyUpsertAndLookup(t *testing.T) {
	a := NewAdjacencyMap()
	a.Upsert("B", Adjacency{City: "Sofia", Lat: 42.7, Lng: 23.3, Peers: []PeerLatency{{Name: "C", Ms: 12}}})
	rec, ok := a.Lookup("B")
	if !ok {
		t.Fatalf("expected B to be present")
	}
	if rec.City != "Sofia" || len(rec.Peers) != 1 || rec.Peers[0].Name != "C" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestAdjacencyExpires(t *testing.T) {
	a := &AdjacencyMap{inner: NewMap[Adjacency](5 * time.Millisecond)}
	a.Upsert("B", Adjacency{City: "Sofia"})
	time.Sleep(15 * time.Millisecond)
	if _, ok := a.Lookup("B"); ok {
		t.Fatalf("expected B to have expired")
	}
}
