package graph

// EdgeKindCounts tallies edges by kind.
func (g *Graph) EdgeKindCounts() map[EdgeKind]int {
	counts := make(map[EdgeKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.edges {
		counts[e.Kind]++
	}
	return counts
}

// NodeKindCounts tallies nodes by payload kind.
func (g *Graph) NodeKindCounts() map[NodeKind]int {
	counts := make(map[NodeKind]int)
	if g == nil {
		return counts
	}
	for _, n := range g.nodes {
		counts[n.NodeKind()]++
	}
	return counts
}
