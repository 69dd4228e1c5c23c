package graph

import (
	"errors"
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/errs"
)

// ErrNodeNotFound is returned when an index does not name a node.
var ErrNodeNotFound = fmt.Errorf("%w: node not found", errs.ErrShapeViolation)

// NodeIdx addresses a node. Indices are handed out in insertion order and
// stay valid for the lifetime of the graph.
type NodeIdx int

// Payload is the data stored in a node.
type Payload interface {
	NodeKind() NodeKind
}

// Edge represents a directed, typed relationship between two nodes.
type Edge struct {
	From NodeIdx  `json:"from"`
	To   NodeIdx  `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph is an append-only arena of nodes and edges. Nothing is removed
// except by rolling back an open savepoint.
type Graph struct {
	nodes []Payload
	edges []Edge

	// Per-node edge indices into edges, in insertion order.
	out [][]int
	in  [][]int

	// builtin type key -> node
	builtins map[string]NodeIdx

	savepoints []savepoint
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		builtins: make(map[string]NodeIdx),
	}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(p Payload) NodeIdx {
	g.nodes = append(g.nodes, p)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return NodeIdx(len(g.nodes) - 1)
}

// AddEdge links from -> to. Both endpoints must exist.
func (g *Graph) AddEdge(from, to NodeIdx, kind EdgeKind) error {
	if !g.Contains(from) {
		return fmt.Errorf("edge %s source %d: %w", kind, from, ErrNodeNotFound)
	}
	if !g.Contains(to) {
		return fmt.Errorf("edge %s target %d: %w", kind, to, ErrNodeNotFound)
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: kind})
	i := len(g.edges) - 1
	g.out[from] = append(g.out[from], i)
	g.in[to] = append(g.in[to], i)
	return nil
}

// Contains reports whether idx names a node.
func (g *Graph) Contains(idx NodeIdx) bool {
	return idx >= 0 && int(idx) < len(g.nodes)
}

// Node returns the payload at idx.
func (g *Graph) Node(idx NodeIdx) (Payload, error) {
	if !g.Contains(idx) {
		return nil, fmt.Errorf("node %d: %w", idx, ErrNodeNotFound)
	}
	return g.nodes[idx], nil
}

// NodeAs fetches the payload at idx and asserts its concrete type.
func NodeAs[T Payload](g *Graph, idx NodeIdx) (T, error) {
	var zero T
	p, err := g.Node(idx)
	if err != nil {
		return zero, err
	}
	t, ok := p.(T)
	if !ok {
		return zero, errs.Shape("node %d is a %s, not a %T", idx, p.NodeKind(), zero)
	}
	return t, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Edges returns every edge in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Outgoing returns the edges leaving idx in insertion order.
func (g *Graph) Outgoing(idx NodeIdx) []Edge {
	if !g.Contains(idx) {
		return nil
	}
	return g.collect(g.out[idx])
}

// Incoming returns the edges entering idx in insertion order.
func (g *Graph) Incoming(idx NodeIdx) []Edge {
	if !g.Contains(idx) {
		return nil
	}
	return g.collect(g.in[idx])
}

func (g *Graph) collect(ids []int) []Edge {
	res := make([]Edge, 0, len(ids))
	for _, i := range ids {
		res = append(res, g.edges[i])
	}
	return res
}

// Builtin looks up a registered builtin type node.
func (g *Graph) Builtin(key string) (NodeIdx, bool) {
	idx, ok := g.builtins[key]
	return idx, ok
}

// InsertBuiltin registers idx under key. Re-registering a key is an error.
func (g *Graph) InsertBuiltin(key string, idx NodeIdx) error {
	if !g.Contains(idx) {
		return fmt.Errorf("builtin %q: %w", key, ErrNodeNotFound)
	}
	if prev, ok := g.builtins[key]; ok && prev != idx {
		return errs.Shape("builtin %q already registered at %d", key, prev)
	}
	g.builtins[key] = idx
	return nil
}

// IsNotFound reports whether err came from a missing node.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
