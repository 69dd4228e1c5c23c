package interp

import (
	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/ranges"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// assume restricts ctx to the worlds where cond evaluates to positive.
// Operand ranges are narrowed, the narrowed symbolic operands become path
// conditions, and a world where cond cannot hold is killed at loc.
func (a *Analyzer) assume(ctx ctxgraph.ContextNode, cond ast.Expression, positive bool, loc ast.Loc) error {
	return a.forEachLive(ctx, func(c ctxgraph.ContextNode) error {
		return a.assumeIn(c, cond, positive, loc)
	})
}

func (a *Analyzer) assumeIn(ctx ctxgraph.ContextNode, cond ast.Expression, positive bool, loc ast.Loc) error {
	switch c := cond.(type) {
	case *ast.Not:
		return a.assume(ctx, c.Expr, !positive, loc)
	case *ast.BinaryOp:
		spec, ok := binOps[c.Op]
		switch {
		case ok && spec.op.IsComparison():
			op := spec.op
			if !positive {
				op = op.Negate()
			}
			return a.assumeCmp(ctx, c, op, loc)
		case c.Op == ast.OpAnd && positive, c.Op == ast.OpOr && !positive:
			if err := a.assume(ctx, c.Lhs, positive, loc); err != nil {
				return err
			}
			return a.assume(ctx, c.Rhs, positive, loc)
		}
	}

	ret, err := a.ParseExpr(cond, ctx)
	if err != nil {
		return err
	}
	want := ranges.Point(values.NewBool(positive))
	for _, s := range Singles(ret) {
		if err := a.assumeValue(s, want, loc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) assumeCmp(ctx ctxgraph.ContextNode, c *ast.BinaryOp, op ranges.Op, loc ast.Loc) error {
	lhs, err := a.ParseExpr(c.Lhs, ctx)
	if err != nil {
		return err
	}
	rhs, err := a.ParseExpr(c.Rhs, ctx)
	if err != nil {
		return err
	}
	_, err = matchSides(lhs, rhs, func(l, r Single) (ExprRet, error) {
		return a.narrowPair(l, r, op, loc)
	})
	return err
}

// narrowPair assumes `l op r` in the world both operands meet in.
func (a *Analyzer) narrowPair(l, r Single, op ranges.Op, loc ast.Loc) (ExprRet, error) {
	ctx, ok, err := a.joinCtx(l.Ctx, r.Ctx)
	if err != nil || !ok {
		return Killed{}, err
	}
	if ended, err := a.ended(ctx); err != nil || ended {
		return Killed{}, err
	}
	lv, lcv, err := a.varOf(l, "compared value", loc)
	if err != nil {
		return nil, err
	}
	rv, rcv, err := a.varOf(r, "compared value", loc)
	if err != nil {
		return nil, err
	}
	if !lcv.Rangeable() || !rcv.Rangeable() {
		return nil, errs.Unsupported("comparison between "+lcv.Ty.String()+" and "+rcv.Ty.String(), loc)
	}

	lr, rr := operandRange(l, lcv, loc), operandRange(r, rcv, loc)
	if holds, known := isConst(ranges.Apply(lr, op, rr)); known && !holds {
		return Killed{}, a.kill(ctx, loc)
	}
	nl, ok1 := ranges.Narrow(lr, op, rr)
	nr, ok2 := ranges.Narrow(rr, op.Flip(), nl)
	if !ok1 || !ok2 {
		return Killed{}, a.kill(ctx, loc)
	}

	out, err := a.constrain(ctx, lv, lcv, lr, nl, loc)
	if err != nil {
		return nil, err
	}
	if _, err := a.constrain(ctx, rv, rcv, rr, nr, loc); err != nil {
		return nil, err
	}
	return Single{Ctx: ctx, Idx: out.Idx()}, nil
}

// assumeValue assumes a boolean value equals want.
func (a *Analyzer) assumeValue(s Single, want ranges.Range, loc ast.Loc) error {
	if ended, err := a.ended(s.Ctx); err != nil || ended {
		return err
	}
	v, cv, err := a.varOf(s, "condition", loc)
	if err != nil {
		return err
	}
	if !cv.Rangeable() {
		return errs.Unsupported("condition of type "+cv.Ty.String(), loc)
	}
	cur := operandRange(s, cv, loc)
	if holds, known := isConst(ranges.Apply(cur, ranges.OpEq, want)); known && !holds {
		return a.kill(s.Ctx, loc)
	}
	next, ok := ranges.Narrow(cur, ranges.OpEq, want)
	if !ok {
		return a.kill(s.Ctx, loc)
	}
	_, err = a.constrain(s.Ctx, v, cv, cur, next, loc)
	return err
}

// constrain installs a narrowed range on a new version of v and records the
// result as a path condition. Literals are left as they are.
func (a *Analyzer) constrain(ctx ctxgraph.ContextNode, v ctxgraph.VarNode, cv ctxgraph.ContextVar, before, after ranges.Range, loc ast.Loc) (ctxgraph.VarNode, error) {
	if _, lit := cv.Ty.(nodes.ConcreteType); lit {
		return v, nil
	}
	if _, ok := cv.Ty.(nodes.BuiltInType); ok && after != before {
		nv, err := a.advance(v, loc, ctx, withRange(after))
		if err != nil {
			return 0, err
		}
		v = nv
	}
	return v, ctx.AddCtxDep(a.g, v)
}

// isConst reports the value of a bool range when it is a single point.
func isConst(r ranges.Range) (value, known bool) {
	lo, hi, ok := r.Concrete()
	if !ok || !lo.Equal(hi) {
		return false, false
	}
	return lo.Bool, true
}
