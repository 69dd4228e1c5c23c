package interp

import (
	"fmt"
	"log/slog"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

func (a *Analyzer) call(e *ast.FunctionCall, ctx ctxgraph.ContextNode) (ExprRet, error) {
	callee, err := a.ParseExpr(e.Func, ctx)
	if err != nil {
		return nil, err
	}
	fs, err := ExpectSingle(callee)
	if err != nil {
		return nil, err
	}
	p, err := a.g.Node(fs.Idx)
	if err != nil {
		return nil, err
	}

	switch n := p.(type) {
	case nodes.Function:
		if n.Builtin && (n.Name == "require" || n.Name == "assert") {
			return a.require(e, n.Name, ctx)
		}
		return a.internalCall(e, fs.Idx, ctx)
	case nodes.Builtin:
		return a.cast(e, n, fs.Idx, ctx)
	}
	return nil, errs.Unsupported("call of a "+string(p.NodeKind()), e.At)
}

// require kills every world where its first argument is false. It yields
// no value.
func (a *Analyzer) require(e *ast.FunctionCall, name string, ctx ctxgraph.ContextNode) (ExprRet, error) {
	if len(e.Args) == 0 {
		return nil, errs.Missing(name, e.At, "%s needs a condition", name)
	}
	if err := a.assume(ctx, e.Args[0], true, e.At); err != nil {
		return nil, err
	}
	if ended, err := a.ended(ctx); err != nil || ended {
		return Killed{}, err
	}
	return Multi{}, nil
}

// internalCall evaluates the arguments for their effects and records the
// call in a child context. The callee itself stands in for the result.
func (a *Analyzer) internalCall(e *ast.FunctionCall, fn graph.NodeIdx, ctx ctxgraph.ContextNode) (ExprRet, error) {
	for _, arg := range e.Args {
		if _, err := a.ParseExpr(arg, ctx); err != nil {
			return nil, err
		}
	}
	ext, err := ctx.IsFnExt(a.g, fn)
	if err != nil {
		return nil, err
	}
	body, err := ctxgraph.NewSubctx(a.g, ctx, e.At, false, &fn, ext)
	if err != nil {
		return nil, err
	}
	if err := a.g.AddEdge(body.Idx(), fn, graph.EdgeCall); err != nil {
		return nil, err
	}
	a.log.Debug("call", slog.String("ctx", a.path(ctx)), slog.Bool("external", ext))
	return Single{Ctx: ctx, Idx: fn}, nil
}

// cast re-versions its argument with the target type. Bounds are kept as
// they are; values out of the target's range are not clamped.
func (a *Analyzer) cast(e *ast.FunctionCall, target nodes.Builtin, tyIdx graph.NodeIdx, ctx ctxgraph.ContextNode) (ExprRet, error) {
	if len(e.Args) != 1 {
		return nil, errs.Unsupported(fmt.Sprintf("cast to %s with %d arguments", target, len(e.Args)), e.At)
	}
	if !target.Rangeable() {
		return nil, errs.Unsupported("cast to "+target.String(), e.At)
	}
	arg, err := a.ParseExpr(e.Args[0], ctx)
	if err != nil {
		return nil, err
	}
	return mapSingles(arg, func(s Single) (ExprRet, error) {
		v, _, err := a.varOf(s, "cast operand", e.At)
		if err != nil {
			return nil, err
		}
		nv, err := a.advance(v, e.At, s.Ctx, func(cv *ctxgraph.ContextVar) error {
			ty := nodes.BuiltInType{Node: tyIdx, Builtin: target}
			r, ok := cv.Range()
			if !ok {
				r, _ = target.DefaultRange()
			}
			cv.Ty = ty.WithRange(r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return Single{Ctx: s.Ctx, Idx: nv.Idx()}, nil
	})
}
