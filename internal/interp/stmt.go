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

func (a *Analyzer) parseIn(stmt ast.Statement, ctx ctxgraph.ContextNode) error {
	return a.forEachLive(ctx, func(c ctxgraph.ContextNode) error {
		return a.stmt(stmt, c)
	})
}

func (a *Analyzer) stmt(stmt ast.Statement, ctx ctxgraph.ContextNode) error {
	switch s := stmt.(type) {
	case *ast.Block:
		if s.Unchecked && !a.unchecked {
			a.unchecked = true
			defer func() { a.unchecked = false }()
		}
		for _, inner := range s.Statements {
			if err := a.parseIn(inner, ctx); err != nil {
				return err
			}
		}
		return nil
	case *ast.VariableDefinition:
		return a.varDef(s, ctx)
	case *ast.If:
		return a.ifStmt(s, ctx)
	case *ast.ExpressionStmt:
		_, err := a.ParseExpr(s.Expr, ctx)
		return err
	case *ast.Return:
		return a.returnStmt(s, ctx)
	case *ast.Revert:
		return a.kill(ctx, s.At)
	case *ast.While:
		return a.skip("while loop", s.At)
	case *ast.DoWhile:
		return a.skip("do-while loop", s.At)
	case *ast.For:
		return a.skip("for loop", s.At)
	case *ast.Continue:
		return a.skip("continue", s.At)
	case *ast.Break:
		return a.skip("break", s.At)
	case *ast.Assembly:
		return a.skip("inline assembly", s.At)
	case *ast.Emit:
		return a.skip("emit", s.At)
	case *ast.Try:
		return a.skip("try/catch", s.At)
	}
	return errs.Unsupported(fmt.Sprintf("statement %T", stmt), stmt.Loc())
}

func (a *Analyzer) skip(construct string, at ast.Loc) error {
	a.unmodeled = append(a.unmodeled, Unmodeled{Construct: construct, At: at})
	a.log.Debug("skipped statement", slog.String("construct", construct), slog.String("at", at.String()))
	return nil
}

func (a *Analyzer) varDef(s *ast.VariableDefinition, ctx ctxgraph.ContextNode) error {
	if s.Decl.Name == nil {
		return errs.Missing("variable declaration", s.At, "declaration has no name")
	}
	ty, err := a.ParseExpr(s.Decl.Ty, ctx)
	if err != nil {
		return err
	}

	if s.Init == nil {
		_, err := mapSingles(ty, func(t Single) (ExprRet, error) {
			cv, err := a.declared(s, t)
			if err != nil {
				return nil, err
			}
			v, err := ctxgraph.Add(a.g, t.Ctx, cv)
			if err != nil {
				return nil, err
			}
			return Single{Ctx: t.Ctx, Idx: v.Idx()}, nil
		})
		return err
	}

	rhs, err := a.ParseExpr(s.Init, ctx)
	if err != nil {
		return err
	}
	_, err = matchSides(ty, rhs, func(t, r Single) (ExprRet, error) {
		return a.matchVarDef(s, t, r)
	})
	return err
}

func (a *Analyzer) declared(s *ast.VariableDefinition, t Single) (ctxgraph.ContextVar, error) {
	vt, err := nodes.VarTypeFromIdx(a.g, t.Idx)
	if err != nil {
		return ctxgraph.ContextVar{}, err
	}
	at := s.Decl.At
	return ctxgraph.ContextVar{
		At:          &at,
		Name:        s.Decl.Name.Name,
		DisplayName: s.Decl.Name.Name,
		Storage:     s.Decl.Storage,
		Symbolic:    s.Init == nil,
		Ty:          vt,
	}, nil
}

// matchVarDef declares the variable in the world of the initializer, then
// assigns it.
func (a *Analyzer) matchVarDef(s *ast.VariableDefinition, t, r Single) (ExprRet, error) {
	ctx, ok, err := a.joinCtx(t.Ctx, r.Ctx)
	if err != nil || !ok {
		return Killed{}, err
	}
	cv, err := a.declared(s, t)
	if err != nil {
		return nil, err
	}
	_, rv, err := a.varOf(r, "initializer", s.Init.Loc())
	if err != nil {
		return nil, err
	}
	edit, err := a.assignEdit(cv, r.Idx, rv, s.At)
	if err != nil {
		return nil, err
	}
	edit = assigned(edit, rv.IsSymbolic())
	check := cv
	if err := edit(&check); err != nil {
		return nil, err
	}

	lhs, err := ctxgraph.Add(a.g, ctx, cv)
	if err != nil {
		return nil, err
	}
	return a.commitAssign(lhs, r.Idx, ctx, s.At, edit)
}

func (a *Analyzer) ifStmt(s *ast.If, ctx ctxgraph.ContextNode) error {
	t, f, err := a.fork(ctx, s.At)
	if err != nil {
		return err
	}
	if err := a.assume(t, s.Cond, true, s.Cond.Loc()); err != nil {
		return err
	}
	if err := a.parseIn(s.Then, t); err != nil {
		return err
	}
	if err := a.assume(f, s.Cond, false, s.Cond.Loc()); err != nil {
		return err
	}
	if s.Else == nil {
		return nil
	}
	return a.parseIn(s.Else, f)
}

func (a *Analyzer) returnStmt(s *ast.Return, ctx ctxgraph.ContextNode) error {
	if s.Expr == nil {
		return ctx.AddBareReturn(a.g, s.At)
	}
	ret, err := a.ParseExpr(s.Expr, ctx)
	if err != nil {
		return err
	}

	singles := Singles(ret)
	for _, r := range singles {
		if _, _, err := a.varOf(r, "returned value", s.Expr.Loc()); err != nil {
			return err
		}
	}
	for _, r := range singles {
		if err := a.g.AddEdge(r.Idx, r.Ctx.Idx(), graph.EdgeReturn); err != nil {
			return err
		}
		if err := r.Ctx.AddReturnNode(a.g, s.At, ctxgraph.VarNode(r.Idx)); err != nil {
			return err
		}
	}
	return nil
}
