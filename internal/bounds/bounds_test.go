package bounds

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/interp"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

var pos int

func at() ast.Loc {
	pos += 10
	return ast.Loc{Start: pos, End: pos + 3}
}

func ident(name string) *ast.Variable { return &ast.Variable{Ident: ast.Identifier{At: at(), Name: name}} }
func num(n string) *ast.NumberLiteral { return &ast.NumberLiteral{At: at(), Int: n} }

func index(arr, i ast.Expression) *ast.ArraySubscript {
	return &ast.ArraySubscript{At: at(), Array: arr, Index: i}
}

func stmt(e ast.Expression) ast.Statement { return &ast.ExpressionStmt{At: e.Loc(), Expr: e} }

// analyze runs body as f(uint256[] arr, uint256 i).
func analyze(t *testing.T, body ...ast.Statement) (*graph.Graph, ctxgraph.ContextNode) {
	t.Helper()
	g := graph.NewGraph()
	fn := g.AddNode(nodes.Function{Name: "f", Body: &ast.Block{At: at(), Statements: body}})
	for i, p := range []nodes.Builtin{
		{Ty: ast.Type{Kind: ast.TypeUint, Bits: 256}, Array: 1},
		{Ty: ast.Type{Kind: ast.TypeUint, Bits: 256}},
	} {
		ty, err := nodes.BuiltinNode(g, p)
		require.NoError(t, err)
		param := g.AddNode(nodes.FunctionParam{Order: i, Name: []string{"arr", "i"}[i], Ty: ty, At: at()})
		require.NoError(t, g.AddEdge(param, fn, graph.EdgeFunctionParam))
	}
	root, err := interp.New(g, nil).AnalyzeFunction(fn)
	require.NoError(t, err)
	return g, root
}

func TestMinSizeToPreventAccessRevert(t *testing.T) {
	lit := num("5")
	guard := &ast.FunctionCall{At: at(), Func: ident("require"), Args: []ast.Expression{
		&ast.BinaryOp{At: at(), Op: ast.OpLess, Lhs: ident("i"), Rhs: num("10")},
	}}
	byLit := index(ident("arr"), lit)
	byVar := index(ident("arr"), ident("i"))
	inner := index(ident("arr"), num("0"))
	outer := index(ident("arr"), inner)
	g, root := analyze(t,
		stmt(byLit),
		stmt(guard),
		stmt(byVar),
		stmt(outer),
	)

	got, err := MinSizeToPreventAccessRevert(g, root)
	require.NoError(t, err)
	require.Len(t, got, 4)

	arr, ok, err := root.LatestVarByName(g, "arr")
	require.NoError(t, err)
	require.True(t, ok)
	for _, a := range got {
		assert.Equal(t, arr, a.ArrDef)
		assert.Equal(t, MinSize, a.Kind)
		assert.Equal(t, Gt, a.Analysis.Rel)
	}

	var msgs []string
	for _, a := range got {
		m, err := a.Message(g)
		require.NoError(t, err)
		msgs = append(msgs, m)
	}
	want := []string{
		"Minimum array length: length must be > 5",
		`Minimum array length: length must be > "i", where "i" has the bounds 0 to 9`,
		"Minimum array length: length must be > 0",
		"Minimum array length: length must be > arr[arr[0]]",
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	// the access span, not where the index was last constrained
	assert.Equal(t, byLit.At, got[0].AccessLoc)
	assert.Equal(t, byVar.At, got[1].AccessLoc)
	assert.NotEqual(t, guard.At, got[1].AccessLoc)
	assert.Equal(t, inner.At, got[2].AccessLoc)
	assert.Equal(t, outer.At, got[3].AccessLoc)

	i, _, _ := root.LatestVarByName(g, "i")
	assert.Equal(t, DynamicTarget{Var: i.Idx()}, got[1].Analysis.Target)

	labels := got[0].Labels()
	require.Len(t, labels, 2)
	assert.Equal(t, "Array accessed here", labels[0].Message)
	assert.Equal(t, got[0].ArrLoc, labels[0].At)
	assert.Equal(t, "Length enforced by this", labels[1].Message)
	assert.Equal(t, "uint256[] arr", got[0].ArrayName(g))
}

func TestMinSize_AccessesInForks(t *testing.T) {
	cond := &ast.BinaryOp{At: at(), Op: ast.OpMore, Lhs: ident("i"), Rhs: num("3")}
	g, root := analyze(t,
		&ast.If{At: at(), Cond: cond, Then: stmt(index(ident("arr"), ident("i"))), Else: stmt(index(ident("arr"), num("1")))},
	)
	got, err := MinSizeToPreventAccessRevert(g, root)
	require.NoError(t, err)
	require.Len(t, got, 2)

	m, err := got[0].Message(g)
	require.NoError(t, err)
	assert.Contains(t, m, "has the bounds 4 to")
	m, err = got[1].Message(g)
	require.NoError(t, err)
	assert.Equal(t, "Minimum array length: length must be > 1", m)
}

func TestMinSize_Failures(t *testing.T) {
	t.Run("Non-numeric index", func(t *testing.T) {
		g, root := analyze(t, stmt(index(ident("arr"), &ast.BoolLiteral{At: at(), Value: true})))
		_, err := MinSizeToPreventAccessRevert(g, root)
		assert.ErrorIs(t, err, errs.ErrUnsupported)
	})

	t.Run("No accesses", func(t *testing.T) {
		g, root := analyze(t)
		got, err := MinSizeToPreventAccessRevert(g, root)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Max size", func(t *testing.T) {
		g, root := analyze(t)
		_, err := MaxSizeToPreventAccessRevert(g, root)
		assert.ErrorIs(t, err, ErrMaxSizeUnimplemented)
	})
}

func TestRelative_String(t *testing.T) {
	for rel, want := range map[Relative]string{Eq: "==", Lt: "<", Lte: "<=", Gt: ">", Gte: ">="} {
		assert.Equal(t, want, rel.String())
	}
}
