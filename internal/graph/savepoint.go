package graph

// Mutable is a payload that is changed in place after insertion. Clone must
// return a copy that shares no mutable state with the receiver.
type Mutable interface {
	Payload
	Clone() Payload
}

type savepoint struct {
	nodes int
	edges int
	saved map[NodeIdx]Payload
}

// Savepoint is a handle on an open savepoint.
type Savepoint int

// Savepoint opens a savepoint. Until it is released, RollbackTo can undo
// every node, edge and builtin added since, and restore the payloads
// recorded with Touch. Savepoints nest.
func (g *Graph) Savepoint() Savepoint {
	g.savepoints = append(g.savepoints, savepoint{
		nodes: len(g.nodes),
		edges: len(g.edges),
		saved: make(map[NodeIdx]Payload),
	})
	return Savepoint(len(g.savepoints) - 1)
}

// Touch records the payload at idx before it is changed in place. Callers
// that mutate a Mutable payload must call it first.
func (g *Graph) Touch(idx NodeIdx) {
	if !g.Contains(idx) {
		return
	}
	m, ok := g.nodes[idx].(Mutable)
	if !ok {
		return
	}
	for i := range g.savepoints {
		sp := &g.savepoints[i]
		if int(idx) >= sp.nodes {
			continue
		}
		if _, done := sp.saved[idx]; !done {
			sp.saved[idx] = m.Clone()
		}
	}
}

// Release closes sp and every savepoint opened after it, keeping their
// changes.
func (g *Graph) Release(sp Savepoint) {
	if int(sp) < len(g.savepoints) {
		g.savepoints = g.savepoints[:sp]
	}
}

// RollbackTo restores the graph to its state when sp was opened and closes
// sp along with every savepoint opened after it.
func (g *Graph) RollbackTo(sp Savepoint) {
	if int(sp) >= len(g.savepoints) {
		return
	}
	for i := len(g.savepoints) - 1; i >= int(sp); i-- {
		s := g.savepoints[i]
		for idx, p := range s.saved {
			g.nodes[idx] = p
		}
	}
	s := g.savepoints[sp]
	g.savepoints = g.savepoints[:sp]

	// Edges are appended in order, so the newest edge of a node is always
	// last in its adjacency lists.
	for i := len(g.edges) - 1; i >= s.edges; i-- {
		e := g.edges[i]
		g.out[e.From] = g.out[e.From][:len(g.out[e.From])-1]
		g.in[e.To] = g.in[e.To][:len(g.in[e.To])-1]
	}
	g.edges = g.edges[:s.edges]

	for key, idx := range g.builtins {
		if int(idx) >= s.nodes {
			delete(g.builtins, key)
		}
	}
	clear(g.nodes[s.nodes:])
	g.nodes = g.nodes[:s.nodes]
	g.out = g.out[:s.nodes]
	g.in = g.in[:s.nodes]
}
