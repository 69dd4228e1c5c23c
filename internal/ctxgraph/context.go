// Package ctxgraph implements the context model: path segments of a
// function's execution, their fork/kill/return state machine, and the
// versioned variables that live in them.
package ctxgraph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

// NoParent marks a root context.
const NoParent graph.NodeIdx = -1

// NoVar is the variable of a bare return.
const NoVar graph.NodeIdx = -1

// ReturnBinding records one returned value. Bare returns carry no variable.
type ReturnBinding struct {
	At   ast.Loc       `json:"at"`
	Var  graph.NodeIdx `json:"var"`
	Bare bool          `json:"bare,omitempty"`
}

// Context is one execution path segment. It is stored by pointer so that
// the state machine can append forks, children, deps and returns in place.
type Context struct {
	ParentFn  graph.NodeIdx `json:"parent_fn"`
	ParentCtx graph.NodeIdx `json:"parent_ctx"`
	// symbolic variable name -> the version whose range gates this path
	CtxDeps   map[string]graph.NodeIdx `json:"ctx_deps,omitempty"`
	Path      string                   `json:"path"`
	Killed    *ast.Loc                 `json:"killed,omitempty"`
	IsFork    bool                     `json:"is_fork,omitempty"`
	FnCall    *graph.NodeIdx           `json:"fn_call,omitempty"`
	ExtFnCall *graph.NodeIdx           `json:"ext_fn_call,omitempty"`
	Forks     []ContextNode            `json:"forks,omitempty"`
	Children  []ContextNode            `json:"children,omitempty"`
	TmpVarCtr int                      `json:"tmp_var_ctr"`
	At        ast.Loc                  `json:"at"`
	Ret       []ReturnBinding          `json:"ret,omitempty"`
}

func (*Context) NodeKind() graph.NodeKind { return graph.KindContext }

// IsEnded reports whether the context was killed or returned.
func (c *Context) IsEnded() bool {
	return c.Killed != nil || len(c.Ret) > 0
}

// ContextNode addresses a Context in the graph.
type ContextNode graph.NodeIdx

func (c ContextNode) Idx() graph.NodeIdx { return graph.NodeIdx(c) }

func (c ContextNode) Underlying(g *graph.Graph) (*Context, error) {
	return graph.NodeAs[*Context](g, c.Idx())
}

// mutable returns the payload of c for an in-place change.
func (c ContextNode) mutable(g *graph.Graph) (*Context, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	g.Touch(c.Idx())
	return ctx, nil
}

// Clone copies the context, including its forks, children, deps and
// returns.
func (c *Context) Clone() graph.Payload {
	cp := *c
	cp.CtxDeps = maps.Clone(c.CtxDeps)
	cp.Forks = slices.Clone(c.Forks)
	cp.Children = slices.Clone(c.Children)
	cp.Ret = slices.Clone(c.Ret)
	if c.Killed != nil {
		k := *c.Killed
		cp.Killed = &k
	}
	return &cp
}

// New creates the root context of a function entry and links it to fn.
func New(g *graph.Graph, fn graph.NodeIdx, at ast.Loc) (ContextNode, error) {
	path, err := rootPath(g, fn)
	if err != nil {
		return 0, err
	}
	idx := g.AddNode(&Context{
		ParentFn:  fn,
		ParentCtx: NoParent,
		CtxDeps:   make(map[string]graph.NodeIdx),
		Path:      path,
		At:        at,
	})
	if err := g.AddEdge(idx, fn, graph.EdgeContext); err != nil {
		return 0, err
	}
	return ContextNode(idx), nil
}

// rootPath names the root context of fn, e.g. "Vault.get". A function
// sharing its name with a sibling in the same contract gets its node index
// ("Vault.get#7"), and a function analyzed again gets the number of earlier
// roots ("Vault.get@1").
func rootPath(g *graph.Graph, fn graph.NodeIdx) (string, error) {
	f, err := graph.NodeAs[nodes.Function](g, fn)
	if err != nil {
		return "", err
	}
	path := f.Name
	if contract, ok := nodes.FunctionContract(g, fn); ok {
		c, err := graph.NodeAs[nodes.Contract](g, contract)
		if err != nil {
			return "", err
		}
		path = c.Name + "." + f.Name
		for _, other := range nodes.ContractFunctions(g, contract) {
			if other == fn {
				continue
			}
			if o, err := graph.NodeAs[nodes.Function](g, other); err == nil && o.Name == f.Name {
				path = fmt.Sprintf("%s#%d", path, fn)
				break
			}
		}
	}
	if n := len(RootContexts(g, fn)); n > 0 {
		path = fmt.Sprintf("%s@%d", path, n)
	}
	return path, nil
}

// NewSubctx derives a context from parent and registers it as a fork
// (isFork) or a child. The subcontext inherits ctx_deps and the temporary
// counter. call marks the subcontext as the body of an invoked function.
func NewSubctx(g *graph.Graph, parent ContextNode, at ast.Loc, isFork bool, call *graph.NodeIdx, external bool) (ContextNode, error) {
	p, err := parent.mutable(g)
	if err != nil {
		return 0, err
	}
	sub := &Context{
		ParentFn:  p.ParentFn,
		ParentCtx: parent.Idx(),
		CtxDeps:   maps.Clone(p.CtxDeps),
		IsFork:    isFork,
		TmpVarCtr: p.TmpVarCtr,
		At:        at,
	}
	if isFork {
		sub.Path = fmt.Sprintf("%s.fork.%d", p.Path, len(p.Forks))
	} else {
		sub.Path = fmt.Sprintf("%s.child.%d", p.Path, len(p.Children))
	}
	if call != nil {
		fn := *call
		if external {
			sub.ExtFnCall = &fn
		} else {
			sub.FnCall = &fn
		}
	}
	if sub.CtxDeps == nil {
		sub.CtxDeps = make(map[string]graph.NodeIdx)
	}

	idx := ContextNode(g.AddNode(sub))
	if err := g.AddEdge(idx.Idx(), parent.Idx(), graph.EdgeSubcontext); err != nil {
		return 0, err
	}
	if isFork {
		p.AddFork(idx)
	} else {
		p.AddChild(idx)
	}
	return idx, nil
}

func (c *Context) AddFork(fork ContextNode)   { c.Forks = append(c.Forks, fork) }
func (c *Context) AddChild(child ContextNode) { c.Children = append(c.Children, child) }

func (c ContextNode) Path(g *graph.Graph) (string, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return "", err
	}
	return ctx.Path, nil
}

func (c ContextNode) IsKilled(g *graph.Graph) (bool, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return false, err
	}
	return ctx.Killed != nil, nil
}

func (c ContextNode) KilledLoc(g *graph.Graph) (*ast.Loc, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	return ctx.Killed, nil
}

func (c ContextNode) IsEnded(g *graph.Graph) (bool, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return false, err
	}
	return ctx.IsEnded(), nil
}

func (c ContextNode) Forks(g *graph.Graph) ([]ContextNode, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	return append([]ContextNode(nil), ctx.Forks...), nil
}

// LiveForks returns the forks that have neither been killed nor returned.
func (c ContextNode) LiveForks(g *graph.Graph) ([]ContextNode, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	var live []ContextNode
	for _, f := range ctx.Forks {
		ended, err := f.IsEnded(g)
		if err != nil {
			return nil, err
		}
		if !ended {
			live = append(live, f)
		}
	}
	return live, nil
}

// Kill marks the context infeasible at loc. A parent is killed at the same
// location once all of its forks have ended, and so on upward. The first
// kill location of a context is kept.
func (c ContextNode) Kill(g *graph.Graph, loc ast.Loc) error {
	ctx, err := c.mutable(g)
	if err != nil {
		return err
	}
	if ctx.Killed == nil {
		ctx.Killed = &loc
	}
	if ctx.ParentCtx == NoParent {
		return nil
	}
	return ContextNode(ctx.ParentCtx).EndIfAllForksEnded(g, loc)
}

// EndIfAllForksEnded kills the context iff every fork has ended.
func (c ContextNode) EndIfAllForksEnded(g *graph.Graph, loc ast.Loc) error {
	ctx, err := c.Underlying(g)
	if err != nil {
		return err
	}
	for _, f := range ctx.Forks {
		ended, err := f.IsEnded(g)
		if err != nil {
			return err
		}
		if !ended {
			return nil
		}
	}
	if ctx.Killed == nil {
		g.Touch(c.Idx())
		ctx.Killed = &loc
	}
	if ctx.ParentCtx == NoParent {
		return nil
	}
	return ContextNode(ctx.ParentCtx).EndIfAllForksEnded(g, loc)
}

// TerminalChildList returns the leaves of the fork tree under c.
func (c ContextNode) TerminalChildList(g *graph.Graph) ([]ContextNode, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	if len(ctx.Forks) == 0 {
		return []ContextNode{c}, nil
	}
	var out []ContextNode
	for _, f := range ctx.Forks {
		leaves, err := f.TerminalChildList(g)
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	return out, nil
}

// ReturningChildList returns the leaves of the children tree under c.
func (c ContextNode) ReturningChildList(g *graph.Graph) ([]ContextNode, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	if len(ctx.Children) == 0 {
		return []ContextNode{c}, nil
	}
	var out []ContextNode
	for _, ch := range ctx.Children {
		leaves, err := ch.ReturningChildList(g)
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	return out, nil
}

// ParentList returns the ancestors of c, nearest first.
func (c ContextNode) ParentList(g *graph.Graph) ([]ContextNode, error) {
	var out []ContextNode
	cur := c
	for {
		ctx, err := cur.Underlying(g)
		if err != nil {
			return nil, err
		}
		if ctx.ParentCtx == NoParent {
			return out, nil
		}
		cur = ContextNode(ctx.ParentCtx)
		out = append(out, cur)
	}
}

// Subcontexts returns every context below c, recursively.
func (c ContextNode) Subcontexts(g *graph.Graph) []ContextNode {
	var out []ContextNode
	for _, idx := range g.SearchChildren(c.Idx(), graph.EdgeSubcontext) {
		out = append(out, ContextNode(idx))
	}
	return out
}

func (c ContextNode) AssociatedFn(g *graph.Graph) (graph.NodeIdx, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return 0, err
	}
	return ctx.ParentFn, nil
}

func (c ContextNode) AssociatedFnName(g *graph.Graph) (string, error) {
	fn, err := c.AssociatedFn(g)
	if err != nil {
		return "", err
	}
	f, err := graph.NodeAs[nodes.Function](g, fn)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

// IsFnExt reports whether fn belongs to a different contract than the
// function c analyzes. Functions without a contract are never external.
func (c ContextNode) IsFnExt(g *graph.Graph, fn graph.NodeIdx) (bool, error) {
	callee, ok := nodes.FunctionContract(g, fn)
	if !ok {
		return false, nil
	}
	own, err := c.AssociatedFn(g)
	if err != nil {
		return false, err
	}
	caller, ok := nodes.FunctionContract(g, own)
	return !ok || caller != callee, nil
}

func (c ContextNode) CtxDeps(g *graph.Graph) (map[string]graph.NodeIdx, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	return maps.Clone(ctx.CtxDeps), nil
}

// AddCtxDep records dep as a path condition. Non-symbolic variables add no
// constraint and are skipped.
func (c ContextNode) AddCtxDep(g *graph.Graph, dep VarNode) error {
	ctx, err := c.mutable(g)
	if err != nil {
		return err
	}
	v, err := dep.Underlying(g)
	if err != nil {
		return err
	}
	if !v.IsSymbolic() {
		return nil
	}
	ctx.CtxDeps[v.Name] = dep.Idx()
	return nil
}

// AddReturnNode binds a returned variable, ending the context.
func (c ContextNode) AddReturnNode(g *graph.Graph, at ast.Loc, v VarNode) error {
	ctx, err := c.mutable(g)
	if err != nil {
		return err
	}
	if _, err := v.Underlying(g); err != nil {
		return err
	}
	ctx.Ret = append(ctx.Ret, ReturnBinding{At: at, Var: v.Idx()})
	return nil
}

// AddBareReturn ends the context on a return without a value.
func (c ContextNode) AddBareReturn(g *graph.Graph, at ast.Loc) error {
	ctx, err := c.mutable(g)
	if err != nil {
		return err
	}
	ctx.Ret = append(ctx.Ret, ReturnBinding{At: at, Var: NoVar, Bare: true})
	return nil
}

func (c ContextNode) ReturnNodes(g *graph.Graph) ([]ReturnBinding, error) {
	ctx, err := c.Underlying(g)
	if err != nil {
		return nil, err
	}
	return append([]ReturnBinding(nil), ctx.Ret...), nil
}

// NewTmp returns the next temporary number of the context.
func (c ContextNode) NewTmp(g *graph.Graph) (int, error) {
	ctx, err := c.mutable(g)
	if err != nil {
		return 0, err
	}
	n := ctx.TmpVarCtr
	ctx.TmpVarCtr++
	return n, nil
}

// RootContexts returns the entry contexts analyzing fn.
func RootContexts(g *graph.Graph, fn graph.NodeIdx) []ContextNode {
	var out []ContextNode
	for _, e := range g.Incoming(fn) {
		if e.Kind == graph.EdgeContext {
			out = append(out, ContextNode(e.From))
		}
	}
	return out
}

// AsContext checks that idx names a context.
func AsContext(g *graph.Graph, idx graph.NodeIdx) (ContextNode, error) {
	p, err := g.Node(idx)
	if err != nil {
		return 0, err
	}
	if _, ok := p.(*Context); !ok {
		return 0, errs.Shape("node %d is a %s, not a context", idx, p.NodeKind())
	}
	return ContextNode(idx), nil
}
