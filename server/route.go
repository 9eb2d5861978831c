package server

// findPath computes a hop-by-hop path from this server to destination by
// breadth-first search over the union of the live outbound peer map and
// the gossiped adjacency map (§9 names "a shortest-path routing strategy
// (BFS over the union of adjacency records)" as an explicit, undemonstrated
// extension point for Deliver; Whisper's wire format requires a concrete
// path to route hop-by-hop at all, so a UI-originated Whisper uses this BFS
// to build one). Returns nil if destination is unreachable from the
// currently known topology.
func (s *Server) findPath(destination string) []string {
	if destination == s.Name {
		return nil
	}

	type node struct {
		name string
		via  []string
	}

	visited := map[string]bool{s.Name: true}
	queue := []node{{name: s.Name, via: nil}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range s.neighborsOf(cur.name) {
			if visited[next] {
				continue
			}
			path := append(append([]string{}, cur.via...), next)
			if next == destination {
				return path
			}
			visited[next] = true
			queue = append(queue, node{name: next, via: path})
		}
	}
	return nil
}

// neighborsOf returns name's known outbound neighbors: this server's own
// live peer map when name is self, otherwise the neighbor list from name's
// last Announce, if any is still within the adjacency TTL.
func (s *Server) neighborsOf(name string) []string {
	if name == s.Name {
		return s.Peers.Names()
	}
	rec, ok := s.Adjacency.Lookup(name)
	if !ok {
		return nil
	}
	names := make([]string, len(rec.Peers))
	for i, p := range rec.Peers {
		names[i] = p.Name
	}
	return names
}
