package ctxgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/values"
)

func edgeKinds(g *graph.Graph, from graph.NodeIdx) []graph.EdgeKind {
	var out []graph.EdgeKind
	for _, e := range g.Outgoing(from) {
		out = append(out, e.Kind)
	}
	return out
}

func TestAdvanceVarInCtx_EdgePolicies(t *testing.T) {
	g, root := newRoot(t)
	x0, err := Add(g, root, uintVar(t, g, "x", 0, 10))
	require.NoError(t, err)

	t.Run("Same context links to the predecessor", func(t *testing.T) {
		x1, err := AdvanceVarInCtx(g, x0, ast.Loc{Start: 1}, root, nil)
		require.NoError(t, err)
		assert.Equal(t, []graph.Edge{{From: x1.Idx(), To: x0.Idx(), Kind: graph.EdgePrev}}, g.Outgoing(x1.Idx()))
		assert.Equal(t, x1, x0.LatestVersion(g))

		owner, ok := x1.MaybeCtx(g)
		require.True(t, ok)
		assert.Equal(t, root, owner)
	})

	t.Run("Crossing into a fork joins the fork", func(t *testing.T) {
		f := fork(t, g, root)
		latest, ok, err := f.LatestVarByName(g, "x")
		require.NoError(t, err)
		require.True(t, ok)

		xf, err := AdvanceVarInCtx(g, latest, ast.Loc{Start: 2}, f, nil)
		require.NoError(t, err)
		assert.Equal(t, []graph.EdgeKind{graph.EdgeVariable}, edgeKinds(g, xf.Idx()))

		owner, _ := xf.MaybeCtx(g)
		assert.Equal(t, f, owner)
		assert.NotEqual(t, xf, latest.LatestVersion(g), "the pre-fork chain does not see the fork's version")
	})

	t.Run("Failed edit leaves the graph untouched", func(t *testing.T) {
		before := g.Len()
		boom := errors.New("boom")
		_, err := AdvanceVarInCtx(g, x0, ast.Loc{}, root, func(*ContextVar) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, before, g.Len())
	})
}

func TestVarByName_SiblingIsolation(t *testing.T) {
	g, root := newRoot(t)
	x0, err := Add(g, root, uintVar(t, g, "x", 0, 100))
	require.NoError(t, err)
	a, b := fork(t, g, root), fork(t, g, root)

	xa, err := AdvanceVarInCtx(g, x0, ast.Loc{Start: 1}, a, nil)
	require.NoError(t, err)
	xb, err := AdvanceVarInCtx(g, x0, ast.Loc{Start: 2}, b, nil)
	require.NoError(t, err)
	assert.NotEqual(t, xa, xb)

	got, ok, err := a.LatestVarByName(g, "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xa, got)

	got, _, _ = b.LatestVarByName(g, "x")
	assert.Equal(t, xb, got)

	got, _, _ = root.LatestVarByName(g, "x")
	assert.Equal(t, x0, got)

	_, ok, err = a.VarByName(g, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ElementsMatch(t, []VarNode{x0, xa, xb}, root.Vars(g))
	assert.Equal(t, []VarNode{xa}, a.LocalVars(g))
}

func TestContextVar_IsSymbolic(t *testing.T) {
	g := graph.NewGraph()
	assert.True(t, uintVar(t, g, "x", 0, 1).IsSymbolic())
	assert.True(t, uintVar(t, g, "x", 4, 4).IsSymbolic(), "a pinned input still depends on the input")

	local := uintVar(t, g, "y", 4, 4)
	local.Symbolic = false
	assert.False(t, local.IsSymbolic())

	lit := NewFromConcrete(g, ast.Loc{}, values.NewUint64(256, 7))
	assert.False(t, lit.IsSymbolic())
	assert.True(t, lit.IsTmp)
	r, ok := lit.Range()
	require.True(t, ok)
	assert.Equal(t, "[7, 7]", r.String())

	_, err := lit.WithRange(r)
	assert.Error(t, err)

	addrTy, err := nodes.BuiltinNode(g, nodes.Builtin{Ty: ast.Type{Kind: ast.TypeAddress}})
	require.NoError(t, err)
	vt, err := nodes.VarTypeFromIdx(g, addrTy)
	require.NoError(t, err)
	addr := ContextVar{Name: "a", Symbolic: true, Ty: vt}
	assert.True(t, addr.IsSymbolic())
	assert.False(t, addr.Rangeable())
}

func TestNewFromFuncParam(t *testing.T) {
	g := graph.NewGraph()
	ty, err := nodes.BuiltinNode(g, nodes.Builtin{Ty: ast.Type{Kind: ast.TypeUint, Bits: 8}})
	require.NoError(t, err)

	v, ok, err := NewFromFuncParam(g, nodes.FunctionParam{Name: "a", Ty: ty})
	require.NoError(t, err)
	require.True(t, ok)
	r, _ := v.Range()
	assert.Equal(t, "[0, 255]", r.String())
	assert.True(t, v.IsSymbolic())

	_, ok, err = NewFromFuncReturn(g, nodes.FunctionReturn{Ty: ty})
	require.NoError(t, err)
	assert.False(t, ok)
}
