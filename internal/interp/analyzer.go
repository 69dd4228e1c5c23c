// Package interp walks a function body and builds its context graph.
//
// Every statement and expression is applied through one broadcast law: an
// ended context is left alone, a context that already split is replayed
// across its live forks, and anything else is mutated directly. Results are
// ExprRet trees that keep track of which world each value belongs to.
package interp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

// Unmodeled is a statement the analyzer skipped.
type Unmodeled struct {
	Construct string  `json:"construct"`
	At        ast.Loc `json:"at"`
}

// Analyzer builds contexts into one graph. It is not safe for concurrent
// use; analyze independent graphs in parallel instead.
type Analyzer struct {
	g         *graph.Graph
	log       *slog.Logger
	unchecked bool
	unmodeled []Unmodeled
}

// New returns an analyzer writing into g. A nil logger falls back to the
// default logger.
func New(g *graph.Graph, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{
		g:   g,
		log: log.With(slog.String("component", "interp")),
	}
}

func (a *Analyzer) Graph() *graph.Graph { return a.g }

// Unmodeled lists the skipped statements seen so far.
func (a *Analyzer) Unmodeled() []Unmodeled {
	return append([]Unmodeled(nil), a.unmodeled...)
}

// AnalyzeFunction interprets the body of fn and returns its root context.
// On failure the graph is left as it was before the call.
func (a *Analyzer) AnalyzeFunction(fn graph.NodeIdx) (ctxgraph.ContextNode, error) {
	f, err := graph.NodeAs[nodes.Function](a.g, fn)
	if err != nil {
		return 0, err
	}
	if f.Body == nil {
		return 0, errs.Missing("function body", f.At, "%s has no body", f.Name)
	}
	var root ctxgraph.ContextNode
	err = a.atomically(func() error {
		root, err = a.enterFunction(fn, f.Body, f.Body.Unchecked)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("analyze %s: %w", f.Name, err)
	}
	return root, nil
}

// ParseStatement applies stmt under parent, which is either a function
// (the statement is its body) or an open context. A failing statement
// leaves the graph untouched.
func (a *Analyzer) ParseStatement(stmt ast.Statement, unchecked bool, parent graph.NodeIdx) error {
	p, err := a.g.Node(parent)
	if err != nil {
		return err
	}
	switch p.(type) {
	case nodes.Function:
		return a.atomically(func() error {
			_, err := a.enterFunction(parent, stmt, unchecked)
			return err
		})
	case *ctxgraph.Context:
		prev := a.unchecked
		a.unchecked = unchecked
		defer func() { a.unchecked = prev }()
		return a.atomically(func() error {
			return a.parseIn(stmt, ctxgraph.ContextNode(parent))
		})
	}
	return errs.Shape("statement parent %d is a %s", parent, p.NodeKind())
}

// atomically runs f under a graph savepoint and rolls back everything f
// added, including skipped-statement records, when it fails.
func (a *Analyzer) atomically(f func() error) error {
	sp := a.g.Savepoint()
	seen := len(a.unmodeled)
	if err := f(); err != nil {
		a.g.RollbackTo(sp)
		a.unmodeled = a.unmodeled[:seen]
		return err
	}
	a.g.Release(sp)
	return nil
}

func (a *Analyzer) enterFunction(fn graph.NodeIdx, body ast.Statement, unchecked bool) (ctxgraph.ContextNode, error) {
	block, ok := body.(*ast.Block)
	if !ok {
		return 0, errs.Unsupported("non-block function body", body.Loc())
	}
	ctx, err := ctxgraph.New(a.g, fn, block.At)
	if err != nil {
		return 0, err
	}
	if err := a.bindDeclarations(fn, ctx); err != nil {
		return 0, err
	}

	prev := a.unchecked
	a.unchecked = unchecked
	defer func() { a.unchecked = prev }()
	if err := a.parseIn(block, ctx); err != nil {
		return 0, err
	}
	return ctx, nil
}

// bindDeclarations pulls named parameters and return slots into ctx.
func (a *Analyzer) bindDeclarations(fn graph.NodeIdx, ctx ctxgraph.ContextNode) error {
	params, err := nodes.Params(a.g, fn)
	if err != nil {
		return err
	}
	for _, p := range params {
		v, ok, err := ctxgraph.NewFromFuncParam(a.g, p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := ctxgraph.Add(a.g, ctx, v); err != nil {
			return err
		}
	}

	rets, err := nodes.Returns(a.g, fn)
	if err != nil {
		return err
	}
	for _, r := range rets {
		v, ok, err := ctxgraph.NewFromFuncReturn(a.g, r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := ctxgraph.Add(a.g, ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// onLive is the broadcast law. direct only ever sees a context that is
// live and has not split.
func (a *Analyzer) onLive(ctx ctxgraph.ContextNode, direct func(ctxgraph.ContextNode) (ExprRet, error)) (ExprRet, error) {
	c, err := ctx.Underlying(a.g)
	if err != nil {
		return nil, err
	}
	if c.IsEnded() {
		return Killed{}, nil
	}
	if len(c.Forks) == 0 {
		return direct(ctx)
	}

	live, err := ctx.LiveForks(a.g)
	if err != nil {
		return nil, err
	}
	rets := make([]ExprRet, 0, len(live))
	for _, f := range live {
		r, err := a.onLive(f, direct)
		if err != nil {
			return nil, err
		}
		rets = append(rets, r)
	}
	return combineWorlds(rets), nil
}

func (a *Analyzer) forEachLive(ctx ctxgraph.ContextNode, direct func(ctxgraph.ContextNode) error) error {
	_, err := a.onLive(ctx, func(c ctxgraph.ContextNode) (ExprRet, error) {
		return Killed{}, direct(c)
	})
	return err
}

// fork splits ctx into a true and a false world.
func (a *Analyzer) fork(ctx ctxgraph.ContextNode, at ast.Loc) (ctxgraph.ContextNode, ctxgraph.ContextNode, error) {
	t, err := ctxgraph.NewSubctx(a.g, ctx, at, true, nil, false)
	if err != nil {
		return 0, 0, err
	}
	f, err := ctxgraph.NewSubctx(a.g, ctx, at, true, nil, false)
	if err != nil {
		return 0, 0, err
	}
	a.log.Debug("fork", slog.String("ctx", a.path(ctx)), slog.String("at", at.String()))
	return t, f, nil
}

func (a *Analyzer) kill(ctx ctxgraph.ContextNode, at ast.Loc) error {
	a.log.Debug("kill", slog.String("ctx", a.path(ctx)), slog.String("at", at.String()))
	return ctx.Kill(a.g, at)
}

func (a *Analyzer) advance(v ctxgraph.VarNode, at ast.Loc, ctx ctxgraph.ContextNode, edit func(*ctxgraph.ContextVar) error) (ctxgraph.VarNode, error) {
	nv, err := ctxgraph.AdvanceVarInCtx(a.g, v, at, ctx, edit)
	if err != nil {
		return 0, err
	}
	if a.log.Enabled(context.Background(), slog.LevelDebug) {
		cv, _ := nv.Underlying(a.g)
		a.log.Debug("advance", slog.String("var", cv.DisplayName), slog.String("ctx", a.path(ctx)))
	}
	return nv, nil
}

func (a *Analyzer) ended(ctx ctxgraph.ContextNode) (bool, error) {
	return ctx.IsEnded(a.g)
}

func (a *Analyzer) path(ctx ctxgraph.ContextNode) string {
	p, err := ctx.Path(a.g)
	if err != nil {
		return fmt.Sprintf("<%d>", ctx)
	}
	return p
}

// joinCtx picks the context two operands meet in. Values from sibling
// worlds never meet.
func (a *Analyzer) joinCtx(l, r ctxgraph.ContextNode) (ctxgraph.ContextNode, bool, error) {
	if l == r {
		return l, true, nil
	}
	for _, pair := range [][2]ctxgraph.ContextNode{{l, r}, {r, l}} {
		parents, err := pair[0].ParentList(a.g)
		if err != nil {
			return 0, false, err
		}
		for _, p := range parents {
			if p == pair[1] {
				return pair[0], true, nil
			}
		}
	}
	return 0, false, nil
}

// varOf resolves a result leaf to a variable.
func (a *Analyzer) varOf(s Single, role string, at ast.Loc) (ctxgraph.VarNode, ctxgraph.ContextVar, error) {
	p, err := a.g.Node(s.Idx)
	if err != nil {
		return 0, ctxgraph.ContextVar{}, err
	}
	cv, ok := p.(ctxgraph.ContextVar)
	if !ok {
		return 0, ctxgraph.ContextVar{}, errs.Unsupported(fmt.Sprintf("%s of kind %s", role, p.NodeKind()), at)
	}
	return ctxgraph.VarNode(s.Idx), cv, nil
}

func (a *Analyzer) builtinType(b nodes.Builtin) (nodes.BuiltInType, error) {
	idx, err := nodes.BuiltinNode(a.g, b)
	if err != nil {
		return nodes.BuiltInType{}, err
	}
	vt, err := nodes.VarTypeFromIdx(a.g, idx)
	if err != nil {
		return nodes.BuiltInType{}, err
	}
	return vt.(nodes.BuiltInType), nil
}
