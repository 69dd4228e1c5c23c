package ranges

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/values"
)

func u(lo, hi uint64) Range {
	return Range{Min: Value{values.NewUint64(256, lo)}, Max: Value{values.NewUint64(256, hi)}}
}

func i8(lo, hi int64) Range {
	return Range{Min: Value{values.NewInt(8, big.NewInt(lo))}, Max: Value{values.NewInt(8, big.NewInt(hi))}}
}

func bounds(t *testing.T, r Range) (string, string) {
	t.Helper()
	lo, hi, ok := r.Concrete()
	require.True(t, ok, "range %s is not concrete", r)
	return lo.Dec(), hi.Dec()
}

func TestApply_Unsigned(t *testing.T) {
	tests := []struct {
		name   string
		a      Range
		op     Op
		b      Range
		lo, hi string
	}{
		{"add", u(1, 10), OpAdd, u(2, 3), "3", "13"},
		{"sub clamps at zero", u(0, 10), OpSub, u(5, 5), "0", "5"},
		{"sub", u(10, 20), OpSub, u(1, 2), "8", "19"},
		{"mul", u(2, 3), OpMul, u(4, 5), "8", "15"},
		{"div", u(10, 100), OpDiv, u(0, 5), "2", "100"},
		{"mod", u(0, 100), OpMod, u(10, 10), "0", "9"},
		{"shl", u(1, 2), OpShl, u(1, 3), "2", "16"},
		{"shr", u(16, 32), OpShr, u(1, 2), "4", "16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := bounds(t, Apply(tt.a, tt.op, tt.b))
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}

	t.Run("add saturates", func(t *testing.T) {
		_, hi := bounds(t, Apply(Full(values.KindUint, 256), OpAdd, u(1, 1)))
		assert.Equal(t, values.Max(values.KindUint, 256).Dec(), hi)
	})
}

func TestApply_Signed(t *testing.T) {
	lo, hi := bounds(t, Apply(i8(-5, 5), OpMul, i8(-2, 3)))
	assert.Equal(t, "-15", lo)
	assert.Equal(t, "15", hi)

	lo, hi = bounds(t, Apply(i8(100, 120), OpAdd, i8(10, 10)))
	assert.Equal(t, "110", lo)
	assert.Equal(t, "127", hi)
}

func TestApply_Compare(t *testing.T) {
	assert.Equal(t, Point(values.NewBool(true)), Apply(u(11, 20), OpGt, u(10, 10)))
	assert.Equal(t, Point(values.NewBool(false)), Apply(u(0, 10), OpGt, u(10, 10)))
	assert.Equal(t, boolRange, Apply(u(0, 20), OpGt, u(10, 10)))
	assert.Equal(t, Point(values.NewBool(true)), Apply(u(3, 3), OpEq, u(3, 3)))
	assert.Equal(t, Point(values.NewBool(true)), Apply(u(0, 2), OpNeq, u(3, 3)))
}

func TestApply_Logic(t *testing.T) {
	yes, no := Point(values.NewBool(true)), Point(values.NewBool(false))
	assert.Equal(t, yes, Apply(yes, OpAnd, yes))
	assert.Equal(t, no, Apply(boolRange, OpAnd, no))
	assert.Equal(t, boolRange, Apply(boolRange, OpAnd, yes))
	assert.Equal(t, yes, Apply(boolRange, OpOr, yes))
	assert.Equal(t, no, Apply(no, OpOr, no))
}

func TestApply_Symbolic(t *testing.T) {
	dyn := Range{Min: Dynamic{Idx: graph.NodeIdx(4), Side: SideMin}, Max: Dynamic{Idx: graph.NodeIdx(4), Side: SideMax}}
	got := Apply(dyn, OpSub, u(1, 2))

	assert.Equal(t, Expr{Lhs: dyn.Min, Op: OpSub, Rhs: Value{values.NewUint64(256, 2)}}, got.Min)
	assert.Equal(t, "(max(4) - 1)", got.Max.String())
	_, _, ok := got.Concrete()
	assert.False(t, ok)
}

func TestNarrow(t *testing.T) {
	ten := u(10, 10)
	tests := []struct {
		name     string
		r        Range
		op       Op
		other    Range
		feasible bool
		lo, hi   string
	}{
		{"gt", u(0, 100), OpGt, ten, true, "11", "100"},
		{"gte", u(0, 100), OpGte, ten, true, "10", "100"},
		{"lt", u(0, 100), OpLt, ten, true, "0", "9"},
		{"lte", u(0, 100), OpLte, ten, true, "0", "10"},
		{"eq", u(0, 100), OpEq, ten, true, "10", "10"},
		{"neq at lower edge", u(10, 100), OpNeq, ten, true, "11", "100"},
		{"neq interior", u(0, 100), OpNeq, ten, true, "0", "100"},
		{"gt infeasible", u(0, 10), OpGt, ten, false, "0", "10"},
		{"lt infeasible", u(0, 5), OpLt, u(0, 0), false, "0", "5"},
		{"neq infeasible", ten, OpNeq, ten, false, "10", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Narrow(tt.r, tt.op, tt.other)
			assert.Equal(t, tt.feasible, ok)
			lo, hi := bounds(t, got)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}

	t.Run("Non-concrete is unchanged", func(t *testing.T) {
		dyn := Range{Min: Dynamic{Idx: 1}, Max: Dynamic{Idx: 1, Side: SideMax}}
		got, ok := Narrow(dyn, OpGt, ten)
		assert.True(t, ok)
		assert.Equal(t, dyn, got)
	})

	t.Run("Bool", func(t *testing.T) {
		got, ok := Narrow(boolRange, OpNeq, Point(values.NewBool(true)))
		assert.True(t, ok)
		assert.Equal(t, Point(values.NewBool(false)), got)
	})
}

func TestOp_NegateFlip(t *testing.T) {
	assert.Equal(t, OpGte, OpLt.Negate())
	assert.Equal(t, OpNeq, OpEq.Negate())
	assert.Equal(t, OpGt, OpLt.Flip())
	assert.Equal(t, OpEq, OpEq.Flip())
}
