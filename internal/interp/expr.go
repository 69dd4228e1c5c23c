package interp

import (
	"fmt"
	"strings"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// ParseExpr evaluates e in ctx, or in every live fork of ctx.
func (a *Analyzer) ParseExpr(e ast.Expression, ctx ctxgraph.ContextNode) (ExprRet, error) {
	return a.onLive(ctx, func(c ctxgraph.ContextNode) (ExprRet, error) {
		return a.expr(e, c)
	})
}

func (a *Analyzer) expr(e ast.Expression, ctx ctxgraph.ContextNode) (ExprRet, error) {
	switch e := e.(type) {
	case *ast.Variable:
		return a.variable(e.Ident, ctx)
	case *ast.NumberLiteral:
		c, err := values.ParseNumber(e.Int, e.Exp)
		if err != nil {
			return nil, errs.Unsupported(err.Error(), e.At)
		}
		return a.literal(ctx, e.At, c)
	case *ast.HexNumberLiteral:
		c, err := values.ParseHex(e.Value)
		if err != nil {
			return nil, errs.Unsupported(err.Error(), e.At)
		}
		return a.literal(ctx, e.At, c)
	case *ast.AddressLiteral:
		c, err := values.ParseAddress(e.Value)
		if err != nil {
			return nil, errs.Unsupported(err.Error(), e.At)
		}
		return a.literal(ctx, e.At, c)
	case *ast.StringLiteral:
		var sb strings.Builder
		for _, p := range e.Parts {
			sb.WriteString(p.Value)
		}
		return a.literal(ctx, e.Loc(), values.NewString(sb.String()))
	case *ast.BoolLiteral:
		return a.literal(ctx, e.At, values.NewBool(e.Value))
	case *ast.BinaryOp:
		return a.binaryOp(e, ctx)
	case *ast.Assign:
		return a.assignExpr(e, ctx)
	case *ast.ConditionalOperator:
		return a.ternary(e, ctx)
	case *ast.List:
		return a.list(e, ctx)
	case *ast.ArraySubscript:
		if e.Index == nil {
			return a.arrayType(e, ctx)
		}
		return a.index(e, ctx)
	case *ast.TypeExpr:
		idx, err := nodes.BuiltinNode(a.g, nodes.Builtin{Ty: e.Ty})
		if err != nil {
			return nil, err
		}
		return Single{Ctx: ctx, Idx: idx}, nil
	case *ast.MemberAccess:
		return a.memberAccess(e, ctx)
	case *ast.Not:
		return a.not(e, ctx)
	case *ast.FunctionCall:
		return a.call(e, ctx)
	case *ast.Unary:
		return nil, errs.Unsupported("unary operator "+e.Op, e.At)
	}
	return nil, errs.Unsupported(fmt.Sprintf("expression %T", e), e.Loc())
}

// variable resolves an identifier: a variable visible from ctx, a function
// of the same contract, a builtin function, or an elementary type name.
func (a *Analyzer) variable(id ast.Identifier, ctx ctxgraph.ContextNode) (ExprRet, error) {
	v, ok, err := ctx.LatestVarByName(a.g, id.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		return Single{Ctx: ctx, Idx: v.Idx()}, nil
	}

	fn, err := ctx.AssociatedFn(a.g)
	if err != nil {
		return nil, err
	}
	if f, ok := nodes.FunctionByName(a.g, fn, id.Name); ok {
		return Single{Ctx: ctx, Idx: f}, nil
	}
	switch id.Name {
	case "require", "assert":
		f, err := nodes.BuiltinFunction(a.g, id.Name)
		if err != nil {
			return nil, err
		}
		return Single{Ctx: ctx, Idx: f}, nil
	}
	if ty, ok := ast.ParseType(id.Name); ok {
		idx, err := nodes.BuiltinNode(a.g, nodes.Builtin{Ty: ty})
		if err != nil {
			return nil, err
		}
		return Single{Ctx: ctx, Idx: idx}, nil
	}
	return nil, errs.Missing("identifier", id.At, "%q is not defined in %s", id.Name, a.path(ctx))
}

func (a *Analyzer) literal(ctx ctxgraph.ContextNode, at ast.Loc, c values.Concrete) (ExprRet, error) {
	v, err := ctxgraph.Add(a.g, ctx, ctxgraph.NewFromConcrete(a.g, at, c))
	if err != nil {
		return nil, err
	}
	return Single{Ctx: ctx, Idx: v.Idx()}, nil
}

func (a *Analyzer) list(e *ast.List, ctx ctxgraph.ContextNode) (ExprRet, error) {
	out := make(Multi, 0, len(e.Items))
	for _, item := range e.Items {
		if item == nil {
			continue
		}
		r, err := a.ParseExpr(item, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// arrayType resolves `T[]` to the registered array builtin.
func (a *Analyzer) arrayType(e *ast.ArraySubscript, ctx ctxgraph.ContextNode) (ExprRet, error) {
	inner, err := a.ParseExpr(e.Array, ctx)
	if err != nil {
		return nil, err
	}
	return mapSingles(inner, func(s Single) (ExprRet, error) {
		b, err := graph.NodeAs[nodes.Builtin](a.g, s.Idx)
		if err != nil {
			return nil, errs.Unsupported("array of a non-elementary type", e.At)
		}
		b.Array++
		idx, err := nodes.BuiltinNode(a.g, b)
		if err != nil {
			return nil, err
		}
		return Single{Ctx: s.Ctx, Idx: idx}, nil
	})
}

// index records `arr[i]` as a temporary element variable. The access links
// to the array and the index links to the access; bound analysis reads both.
func (a *Analyzer) index(e *ast.ArraySubscript, ctx ctxgraph.ContextNode) (ExprRet, error) {
	arr, err := a.ParseExpr(e.Array, ctx)
	if err != nil {
		return nil, err
	}
	idx, err := a.ParseExpr(e.Index, ctx)
	if err != nil {
		return nil, err
	}
	return matchSides(arr, idx, func(arr, idx Single) (ExprRet, error) {
		ctx, ok, err := a.joinCtx(arr.Ctx, idx.Ctx)
		if err != nil || !ok {
			return Killed{}, err
		}
		_, acv, err := a.varOf(arr, "indexed value", e.At)
		if err != nil {
			return nil, err
		}
		bt, ok := acv.Ty.(nodes.BuiltInType)
		if !ok || bt.Builtin.Array == 0 {
			return nil, errs.Unsupported("index into "+acv.Ty.String(), e.At)
		}
		_, icv, err := a.varOf(idx, "index", e.Index.Loc())
		if err != nil {
			return nil, err
		}

		elem, err := a.builtinType(bt.Builtin.Elem())
		if err != nil {
			return nil, err
		}
		elem.Bounds = nil
		at := e.At
		access, err := ctxgraph.Add(a.g, ctx, ctxgraph.ContextVar{
			At:          &at,
			Name:        fmt.Sprintf("%s[%s]", acv.Name, icv.Name),
			DisplayName: fmt.Sprintf("%s[%s]", acv.DisplayName, icv.DisplayName),
			Storage:     acv.Storage,
			IsTmp:       true,
			Symbolic:    true,
			Ty:          elem,
		})
		if err != nil {
			return nil, err
		}
		if err := a.g.AddEdge(access.Idx(), arr.Idx, graph.EdgeIndexAccess); err != nil {
			return nil, err
		}
		if err := a.g.AddEdge(idx.Idx, access.Idx(), graph.EdgeIndex); err != nil {
			return nil, err
		}
		return Single{Ctx: ctx, Idx: access.Idx()}, nil
	})
}

func (a *Analyzer) memberAccess(e *ast.MemberAccess, ctx ctxgraph.ContextNode) (ExprRet, error) {
	if e.Member.Name != "length" {
		return nil, errs.Unsupported("member access ."+e.Member.Name, e.At)
	}
	base, err := a.ParseExpr(e.Expr, ctx)
	if err != nil {
		return nil, err
	}
	return mapSingles(base, func(s Single) (ExprRet, error) {
		_, cv, err := a.varOf(s, "member base", e.At)
		if err != nil {
			return nil, err
		}
		if bt, ok := cv.Ty.(nodes.BuiltInType); !ok || bt.Builtin.Array == 0 {
			return nil, errs.Unsupported("length of "+cv.Ty.String(), e.At)
		}
		ty, err := a.builtinType(nodes.Builtin{Ty: ast.Type{Kind: ast.TypeUint, Bits: 256}})
		if err != nil {
			return nil, err
		}
		at := e.At
		length, err := ctxgraph.Add(a.g, s.Ctx, ctxgraph.ContextVar{
			At:          &at,
			Name:        cv.Name + ".length",
			DisplayName: cv.DisplayName + ".length",
			IsTmp:       true,
			Symbolic:    true,
			Ty:          ty,
		})
		if err != nil {
			return nil, err
		}
		if err := a.g.AddEdge(length.Idx(), s.Idx, graph.EdgeAttrAccess); err != nil {
			return nil, err
		}
		return Single{Ctx: s.Ctx, Idx: length.Idx()}, nil
	})
}
