package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabnock01/pyrometer/internal/errs"
)

type label string

func (label) NodeKind() NodeKind { return "label" }

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(label("a"))
	b := g.AddNode(label("b"))

	require.NoError(t, g.AddEdge(a, b, EdgeVariable))

	t.Run("Missing endpoint leaves the graph untouched", func(t *testing.T) {
		err := g.AddEdge(a, 42, EdgeVariable)
		assert.True(t, IsNotFound(err))
		assert.True(t, errors.Is(err, errs.ErrShapeViolation))
		assert.Len(t, g.Edges(), 1)
		assert.Len(t, g.Outgoing(a), 1)
	})

	t.Run("Directions", func(t *testing.T) {
		assert.Equal(t, []Edge{{From: a, To: b, Kind: EdgeVariable}}, g.Outgoing(a))
		assert.Equal(t, []Edge{{From: a, To: b, Kind: EdgeVariable}}, g.Incoming(b))
		assert.Empty(t, g.Incoming(a))
	})

	t.Run("Typed lookup", func(t *testing.T) {
		l, err := NodeAs[label](g, b)
		require.NoError(t, err)
		assert.Equal(t, label("b"), l)

		_, err = g.Node(-1)
		assert.True(t, IsNotFound(err))
	})

	assert.Equal(t, 1, g.EdgeKindCounts()[EdgeVariable])
	assert.Equal(t, 2, g.NodeKindCounts()["label"])
}

func TestGraph_Builtins(t *testing.T) {
	g := NewGraph()
	n := g.AddNode(label("uint256"))
	require.NoError(t, g.InsertBuiltin("uint256", n))
	require.NoError(t, g.InsertBuiltin("uint256", n))

	idx, ok := g.Builtin("uint256")
	assert.True(t, ok)
	assert.Equal(t, n, idx)

	other := g.AddNode(label("dup"))
	assert.Error(t, g.InsertBuiltin("uint256", other))

	_, ok = g.Builtin("bool")
	assert.False(t, ok)
}

// fn <-Context- root <-Subcontext- fork1, fork2; vars hang off contexts.
func buildTree(t *testing.T) (*Graph, map[string]NodeIdx) {
	t.Helper()
	g := NewGraph()
	n := map[string]NodeIdx{}
	for _, name := range []string{"fn", "root", "fork1", "fork2", "arr", "access1", "access2", "i", "x"} {
		n[name] = g.AddNode(label(name))
	}
	edges := []Edge{
		{n["root"], n["fn"], EdgeContext},
		{n["fork1"], n["root"], EdgeSubcontext},
		{n["fork2"], n["root"], EdgeSubcontext},
		{n["arr"], n["root"], EdgeVariable},
		{n["x"], n["fork1"], EdgeVariable},
		{n["access1"], n["arr"], EdgeIndexAccess},
		{n["access1"], n["fork1"], EdgeVariable},
		{n["access2"], n["arr"], EdgeIndexAccess},
		{n["access2"], n["fork2"], EdgeVariable},
		{n["i"], n["access2"], EdgeIndex},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e.From, e.To, e.Kind))
	}
	return g, n
}

func TestGraph_SearchForAncestor(t *testing.T) {
	g, n := buildTree(t)

	t.Run("Direct edge", func(t *testing.T) {
		got, ok := g.SearchForAncestor(n["x"], EdgeVariable)
		require.True(t, ok)
		assert.Equal(t, n["fork1"], got)
	})

	t.Run("Transitive", func(t *testing.T) {
		got, ok := g.SearchForAncestor(n["x"], EdgeContext)
		require.True(t, ok)
		assert.Equal(t, n["fn"], got)
	})

	t.Run("None", func(t *testing.T) {
		_, ok := g.SearchForAncestor(n["fn"], EdgeContext)
		assert.False(t, ok)
	})
}

func TestGraph_SearchChildren(t *testing.T) {
	g, n := buildTree(t)

	assert.Equal(t, []NodeIdx{n["fork1"], n["fork2"]}, g.SearchChildren(n["fn"], EdgeSubcontext))
	assert.Equal(t, []NodeIdx{n["arr"], n["access1"], n["access2"], n["x"]}, g.SearchChildren(n["root"], EdgeVariable))
	assert.Empty(t, g.SearchChildren(n["x"], EdgeVariable))
}

func TestGraph_NodesWithChildren(t *testing.T) {
	g, n := buildTree(t)

	got := g.NodesWithChildren(n["root"], EdgeIndexAccess)
	assert.Equal(t, map[NodeIdx][]NodeIdx{
		n["arr"]: {n["access1"], n["access2"]},
	}, got)

	assert.Nil(t, g.NodesWithChildren(n["fork1"], EdgeIndex))
	assert.Equal(t, map[NodeIdx][]NodeIdx{n["access2"]: {n["i"]}}, g.NodesWithChildren(n["fork2"], EdgeIndex))
}

type counter struct{ n []int }

func (*counter) NodeKind() NodeKind { return "counter" }

func (c *counter) Clone() Payload { return &counter{n: append([]int(nil), c.n...)} }

func TestGraph_Savepoint(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(label("a"))
	c := g.AddNode(&counter{})
	require.NoError(t, g.AddEdge(a, c, EdgeVariable))

	t.Run("Rollback undoes additions and in-place changes", func(t *testing.T) {
		sp := g.Savepoint()
		n := g.AddNode(label("n"))
		require.NoError(t, g.AddEdge(n, a, EdgePrev))
		require.NoError(t, g.AddEdge(c, a, EdgeVariable))
		require.NoError(t, g.InsertBuiltin("n", n))
		g.Touch(c)
		cur, err := NodeAs[*counter](g, c)
		require.NoError(t, err)
		cur.n = append(cur.n, 1)

		g.RollbackTo(sp)
		assert.Equal(t, 2, g.Len())
		assert.Len(t, g.Edges(), 1)
		assert.Empty(t, g.Incoming(a))
		assert.Len(t, g.Outgoing(a), 1)
		assert.Empty(t, g.Outgoing(c))
		_, ok := g.Builtin("n")
		assert.False(t, ok)
		restored, err := NodeAs[*counter](g, c)
		require.NoError(t, err)
		assert.Empty(t, restored.n)
	})

	t.Run("Release keeps changes", func(t *testing.T) {
		sp := g.Savepoint()
		g.AddNode(label("kept"))
		g.Release(sp)
		assert.Equal(t, 3, g.Len())
	})

	t.Run("Nested savepoints", func(t *testing.T) {
		before := g.Len()
		outer := g.Savepoint()
		g.Touch(c)
		cur, _ := NodeAs[*counter](g, c)
		cur.n = append(cur.n, 1)

		inner := g.Savepoint()
		g.Touch(c)
		cur.n = append(cur.n, 2)
		g.AddNode(label("inner"))
		g.Release(inner)

		g.RollbackTo(outer)
		assert.Equal(t, before, g.Len())
		restored, _ := NodeAs[*counter](g, c)
		assert.Empty(t, restored.n)
	})
}
