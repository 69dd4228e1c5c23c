package graph

import "sort"

// SearchForAncestor walks outgoing edges depth-first from start and returns the
// first node reached through an edge of the given kind. Direct edges of start
// are checked before descending.
func (g *Graph) SearchForAncestor(start NodeIdx, kind EdgeKind) (NodeIdx, bool) {
	return g.searchForAncestor(start, kind, make(map[NodeIdx]bool))
}

func (g *Graph) searchForAncestor(start NodeIdx, kind EdgeKind, visited map[NodeIdx]bool) (NodeIdx, bool) {
	if visited[start] {
		return 0, false
	}
	visited[start] = true

	edges := g.Outgoing(start)
	for _, e := range edges {
		if e.Kind == kind {
			return e.To, true
		}
	}
	for _, e := range edges {
		if found, ok := g.searchForAncestor(e.To, kind, visited); ok {
			return found, true
		}
	}
	return 0, false
}

// SearchChildren collects every node connected to start, transitively along
// incoming edges, whose edge into the traversal has the given kind. Traversal
// descends through edges of any kind. The result is sorted.
func (g *Graph) SearchChildren(start NodeIdx, kind EdgeKind) []NodeIdx {
	set := make(map[NodeIdx]bool)
	g.walkIncoming(start, make(map[NodeIdx]bool), func(e Edge) {
		if e.Kind == kind {
			set[e.From] = true
		}
	})
	return sortedKeys(set)
}

// NodesWithChildren groups the result of SearchChildren by target: each node
// with at least one direct incoming edge of the given kind maps to the sorted
// sources of those edges. It returns nil when nothing matches.
func (g *Graph) NodesWithChildren(start NodeIdx, kind EdgeKind) map[NodeIdx][]NodeIdx {
	groups := make(map[NodeIdx]map[NodeIdx]bool)
	g.walkIncoming(start, make(map[NodeIdx]bool), func(e Edge) {
		if e.Kind != kind {
			return
		}
		if groups[e.To] == nil {
			groups[e.To] = make(map[NodeIdx]bool)
		}
		groups[e.To][e.From] = true
	})
	if len(groups) == 0 {
		return nil
	}
	res := make(map[NodeIdx][]NodeIdx, len(groups))
	for to, from := range groups {
		res[to] = sortedKeys(from)
	}
	return res
}

func (g *Graph) walkIncoming(start NodeIdx, visited map[NodeIdx]bool, visit func(Edge)) {
	if visited[start] {
		return
	}
	visited[start] = true
	for _, e := range g.Incoming(start) {
		visit(e)
		g.walkIncoming(e.From, visited, visit)
	}
}

func sortedKeys(m map[NodeIdx]bool) []NodeIdx {
	out := make([]NodeIdx, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
