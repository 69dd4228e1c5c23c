package interp

import (
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/ranges"
	"github.com/Sabnock01/pyrometer/internal/values"
)

type opSpec struct {
	op     ranges.Op
	assign bool
}

var binOps = map[ast.BinOp]opSpec{
	ast.OpAdd:       {ranges.OpAdd, false},
	ast.OpSub:       {ranges.OpSub, false},
	ast.OpMul:       {ranges.OpMul, false},
	ast.OpDiv:       {ranges.OpDiv, false},
	ast.OpMod:       {ranges.OpMod, false},
	ast.OpShl:       {ranges.OpShl, false},
	ast.OpShr:       {ranges.OpShr, false},
	ast.OpAssignAdd: {ranges.OpAdd, true},
	ast.OpAssignSub: {ranges.OpSub, true},
	ast.OpAssignMul: {ranges.OpMul, true},
	ast.OpAssignDiv: {ranges.OpDiv, true},
	ast.OpAssignMod: {ranges.OpMod, true},
	ast.OpAssignShl: {ranges.OpShl, true},
	ast.OpAssignShr: {ranges.OpShr, true},
	ast.OpEqual:     {ranges.OpEq, false},
	ast.OpNotEqual:  {ranges.OpNeq, false},
	ast.OpLess:      {ranges.OpLt, false},
	ast.OpMore:      {ranges.OpGt, false},
	ast.OpLessEqual: {ranges.OpLte, false},
	ast.OpMoreEqual: {ranges.OpGte, false},
	ast.OpAnd:       {ranges.OpAnd, false},
	ast.OpOr:        {ranges.OpOr, false},
}

// wrapping ops lose their bounds in unchecked code.
var wrapping = map[ranges.Op]bool{ranges.OpAdd: true, ranges.OpSub: true, ranges.OpMul: true, ranges.OpShl: true}

func (a *Analyzer) binaryOp(e *ast.BinaryOp, ctx ctxgraph.ContextNode) (ExprRet, error) {
	spec, ok := binOps[e.Op]
	if !ok {
		return nil, errs.Unsupported("operator "+e.Op.String(), e.At)
	}
	lhs, err := a.ParseExpr(e.Lhs, ctx)
	if err != nil {
		return nil, err
	}
	rhs, err := a.ParseExpr(e.Rhs, ctx)
	if err != nil {
		return nil, err
	}
	return matchSides(lhs, rhs, func(l, r Single) (ExprRet, error) {
		return a.opExpr(e.At, l, r, spec)
	})
}

// opExpr applies one operator to a pair of values. Literal operands fold to
// a literal; anything else yields a temporary recording its origin, or a
// new version of the lhs for the assigning forms.
func (a *Analyzer) opExpr(at ast.Loc, lhs, rhs Single, spec opSpec) (ExprRet, error) {
	ctx, ok, err := a.joinCtx(lhs.Ctx, rhs.Ctx)
	if err != nil || !ok {
		return Killed{}, err
	}
	lv, lcv, err := a.varOf(lhs, "operand", at)
	if err != nil {
		return nil, err
	}
	_, rcv, err := a.varOf(rhs, "operand", at)
	if err != nil {
		return nil, err
	}
	if !lcv.Rangeable() || !rcv.Rangeable() {
		return nil, errs.Unsupported(fmt.Sprintf("%s between %s and %s", spec.op, lcv.Ty, rcv.Ty), at)
	}

	res := ranges.Apply(operandRange(lhs, lcv, at), spec.op, operandRange(rhs, rcv, at))

	if spec.assign {
		if _, lit := lcv.Ty.(nodes.ConcreteType); lit {
			return nil, errs.Unsupported("assignment to a literal", at)
		}
		if a.unchecked && wrapping[spec.op] {
			res = a.fullRange(lcv)
		}
		nv, err := a.advance(lv, at, ctx, assigned(withRange(res), lcv.IsSymbolic() || rcv.IsSymbolic()))
		if err != nil {
			return nil, err
		}
		return Single{Ctx: ctx, Idx: nv.Idx()}, nil
	}

	_, llit := lcv.Ty.(nodes.ConcreteType)
	_, rlit := rcv.Ty.(nodes.ConcreteType)
	if llit && rlit {
		if lo, hi, ok := res.Concrete(); ok && lo.Equal(hi) {
			return a.literal(ctx, at, lo)
		}
	}

	ty, err := a.resultType(lcv, rcv, spec.op)
	if err != nil {
		return nil, err
	}
	if a.unchecked && wrapping[spec.op] {
		res, _ = ty.Builtin.DefaultRange()
	}
	rIdx := rhs.Idx
	return a.tmp(ctx, at, fmt.Sprintf("%s %s %s", lcv.DisplayName, spec.op, rcv.DisplayName),
		&ctxgraph.TmpConstruction{Lhs: lhs.Idx, Op: spec.op, Rhs: &rIdx}, ty.WithRange(res), lcv.IsSymbolic() || rcv.IsSymbolic())
}

// operandRange is the range of v, or lazy bounds on v itself when it has
// none yet.
func operandRange(s Single, v ctxgraph.ContextVar, at ast.Loc) ranges.Range {
	if r, ok := v.Range(); ok {
		return r
	}
	return ranges.Range{
		Min: ranges.Dynamic{Idx: s.Idx, Side: ranges.SideMin, At: at},
		Max: ranges.Dynamic{Idx: s.Idx, Side: ranges.SideMax, At: at},
	}
}

func (a *Analyzer) fullRange(v ctxgraph.ContextVar) ranges.Range {
	if bt, ok := v.Ty.(nodes.BuiltInType); ok {
		if r, ok := bt.Builtin.DefaultRange(); ok {
			return r
		}
	}
	r, _ := v.Range()
	return r
}

// resultType is bool for comparisons and logic, otherwise the type of the
// first non-literal operand, or uint256 between literals.
func (a *Analyzer) resultType(l, r ctxgraph.ContextVar, op ranges.Op) (nodes.BuiltInType, error) {
	if op.IsComparison() || op.IsLogical() {
		return a.builtinType(nodes.Builtin{Ty: ast.Type{Kind: ast.TypeBool}})
	}
	for _, v := range []ctxgraph.ContextVar{l, r} {
		if bt, ok := v.Ty.(nodes.BuiltInType); ok {
			bt.Bounds = nil
			return bt, nil
		}
	}
	for _, v := range []ctxgraph.ContextVar{l, r} {
		if ct, ok := v.Ty.(nodes.ConcreteType); ok && ct.Value.Kind == values.KindInt {
			return a.builtinType(nodes.Builtin{Ty: ast.Type{Kind: ast.TypeInt, Bits: ct.Value.Bits}})
		}
	}
	return a.builtinType(nodes.Builtin{Ty: ast.Type{Kind: ast.TypeUint, Bits: 256}})
}

func (a *Analyzer) tmp(ctx ctxgraph.ContextNode, at ast.Loc, display string, of *ctxgraph.TmpConstruction, ty nodes.BuiltInType, symbolic bool) (ExprRet, error) {
	n, err := ctx.NewTmp(a.g)
	if err != nil {
		return nil, err
	}
	v, err := ctxgraph.Add(a.g, ctx, ctxgraph.ContextVar{
		At:          &at,
		Name:        fmt.Sprintf("tmp%d(%s)", n, display),
		DisplayName: "(" + display + ")",
		IsTmp:       true,
		TmpOf:       of,
		Symbolic:    symbolic,
		Ty:          ty,
	})
	if err != nil {
		return nil, err
	}
	return Single{Ctx: ctx, Idx: v.Idx()}, nil
}

func (a *Analyzer) not(e *ast.Not, ctx ctxgraph.ContextNode) (ExprRet, error) {
	inner, err := a.ParseExpr(e.Expr, ctx)
	if err != nil {
		return nil, err
	}
	return mapSingles(inner, func(s Single) (ExprRet, error) {
		_, cv, err := a.varOf(s, "negated value", e.At)
		if err != nil {
			return nil, err
		}
		if ct, ok := cv.Ty.(nodes.ConcreteType); ok {
			if ct.Value.Kind != values.KindBool {
				return nil, errs.Unsupported("negation of "+ct.Value.Kind.String(), e.At)
			}
			return a.literal(s.Ctx, e.At, values.NewBool(!ct.Value.Bool))
		}
		bt, ok := cv.Ty.(nodes.BuiltInType)
		if !ok || bt.Builtin.Array > 0 || bt.Builtin.Ty.Kind != ast.TypeBool {
			return nil, errs.Unsupported("negation of "+cv.Ty.String(), e.At)
		}
		r, _ := bt.Builtin.DefaultRange()
		if cur, ok := cv.Range(); ok {
			if lo, hi, ok := cur.Concrete(); ok && lo.Equal(hi) {
				r = ranges.Point(values.NewBool(!lo.Bool))
			}
		}
		bt.Bounds = nil
		return a.tmp(s.Ctx, e.At, "!"+cv.DisplayName, &ctxgraph.TmpConstruction{Lhs: s.Idx, Op: ranges.OpNot}, bt.WithRange(r), cv.IsSymbolic())
	})
}

// ternary forks ctx like an if statement and evaluates one arm per world.
func (a *Analyzer) ternary(e *ast.ConditionalOperator, ctx ctxgraph.ContextNode) (ExprRet, error) {
	t, f, err := a.fork(ctx, e.At)
	if err != nil {
		return nil, err
	}
	if err := a.assume(t, e.Cond, true, e.Cond.Loc()); err != nil {
		return nil, err
	}
	r1, err := a.ParseExpr(e.True, t)
	if err != nil {
		return nil, err
	}
	if err := a.assume(f, e.Cond, false, e.Cond.Loc()); err != nil {
		return nil, err
	}
	r2, err := a.ParseExpr(e.False, f)
	if err != nil {
		return nil, err
	}
	return Fork{World1: r1, World2: r2}, nil
}
