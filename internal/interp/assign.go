package interp

import (
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/ranges"
)

func (a *Analyzer) assignExpr(e *ast.Assign, ctx ctxgraph.ContextNode) (ExprRet, error) {
	rhs, err := a.ParseExpr(e.Rhs, ctx)
	if err != nil {
		return nil, err
	}
	lhs, err := a.ParseExpr(e.Lhs, ctx)
	if err != nil {
		return nil, err
	}
	return matchSides(lhs, rhs, func(l, r Single) (ExprRet, error) {
		return a.assign(e.At, l, r)
	})
}

// assign writes rhs into a new version of lhs in the context both meet in.
func (a *Analyzer) assign(at ast.Loc, lhs, rhs Single) (ExprRet, error) {
	ctx, ok, err := a.joinCtx(lhs.Ctx, rhs.Ctx)
	if err != nil || !ok {
		return Killed{}, err
	}
	lv, lcv, err := a.varOf(lhs, "assignment target", at)
	if err != nil {
		return nil, err
	}
	if _, lit := lcv.Ty.(nodes.ConcreteType); lit {
		return nil, errs.Unsupported("assignment to a literal", at)
	}
	_, rcv, err := a.varOf(rhs, "assigned value", at)
	if err != nil {
		return nil, err
	}
	edit, err := a.assignEdit(lcv, rhs.Idx, rcv, at)
	if err != nil {
		return nil, err
	}
	return a.commitAssign(lv, rhs.Idx, ctx, at, assigned(edit, rcv.IsSymbolic()))
}

// assignEdit decides the bounds the new lhs version takes. A ranged rhs is
// copied. Otherwise a ranged lhs gets lazy bounds tied to the rhs node.
func (a *Analyzer) assignEdit(lhs ctxgraph.ContextVar, rhsIdx graph.NodeIdx, rhs ctxgraph.ContextVar, at ast.Loc) (func(*ctxgraph.ContextVar) error, error) {
	if !lhs.Rangeable() {
		return nil, nil
	}
	if r, ok := rhs.Range(); ok {
		return withRange(r), nil
	}
	if _, ok := lhs.Range(); ok {
		return withRange(ranges.Range{
			Min: ranges.Dynamic{Idx: rhsIdx, Side: ranges.SideMin, At: at},
			Max: ranges.Dynamic{Idx: rhsIdx, Side: ranges.SideMax, At: at},
		}), nil
	}
	return nil, errs.Missing("assignment", at, "neither %s nor %s carries a range", lhs.DisplayName, rhs.DisplayName)
}

// assigned wraps a bounds edit so the new version also takes the assigned
// value's dependence on inputs.
func assigned(edit func(*ctxgraph.ContextVar) error, symbolic bool) func(*ctxgraph.ContextVar) error {
	return func(v *ctxgraph.ContextVar) error {
		v.Symbolic = symbolic
		if edit == nil {
			return nil
		}
		return edit(v)
	}
}

func withRange(r ranges.Range) func(*ctxgraph.ContextVar) error {
	return func(v *ctxgraph.ContextVar) error {
		nv, err := v.WithRange(r)
		if err != nil {
			return err
		}
		*v = nv
		return nil
	}
}

func (a *Analyzer) commitAssign(lhs ctxgraph.VarNode, rhs graph.NodeIdx, ctx ctxgraph.ContextNode, at ast.Loc, edit func(*ctxgraph.ContextVar) error) (ExprRet, error) {
	nv, err := a.advance(lhs, at, ctx, edit)
	if err != nil {
		return nil, err
	}
	if err := a.g.AddEdge(rhs, nv.Idx(), graph.EdgeAssign); err != nil {
		return nil, fmt.Errorf("link assignment: %w", err)
	}
	return Single{Ctx: ctx, Idx: nv.Idx()}, nil
}
