package ctxgraph

import (
	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/ranges"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// TmpConstruction records how a temporary was derived. Rhs is nil for unary
// operations.
type TmpConstruction struct {
	Lhs graph.NodeIdx  `json:"lhs"`
	Op  ranges.Op      `json:"op"`
	Rhs *graph.NodeIdx `json:"rhs,omitempty"`
}

// ContextVar is one immutable version of a variable. It is stored by value;
// updates insert a new version. Symbolic marks values that depend on a
// function input and survives narrowing.
type ContextVar struct {
	At          *ast.Loc            `json:"at,omitempty"`
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Storage     ast.StorageLocation `json:"storage,omitempty"`
	IsTmp       bool                `json:"is_tmp,omitempty"`
	TmpOf       *TmpConstruction    `json:"tmp_of,omitempty"`
	Symbolic    bool                `json:"symbolic,omitempty"`
	Ty          nodes.VarType       `json:"-"`
}

func (ContextVar) NodeKind() graph.NodeKind { return graph.KindContextVar }

func (v ContextVar) Range() (ranges.Range, bool) {
	if v.Ty == nil {
		return ranges.Range{}, false
	}
	return v.Ty.Range()
}

// Rangeable reports whether the variable's type carries a range.
func (v ContextVar) Rangeable() bool {
	switch t := v.Ty.(type) {
	case nodes.BuiltInType:
		return t.Builtin.Rangeable()
	case nodes.ConcreteType:
		return t.Value.IsNumeric()
	}
	return false
}

// WithRange returns a copy bound to r. Only builtin-typed variables can
// carry an arbitrary range.
func (v ContextVar) WithRange(r ranges.Range) (ContextVar, error) {
	t, ok := v.Ty.(nodes.BuiltInType)
	if !ok {
		return v, errs.Shape("variable %q of type %v cannot take a range", v.Name, v.Ty)
	}
	v.Ty = t.WithRange(r)
	return v, nil
}

// IsSymbolic reports whether the variable depends on a function input.
// Literals and values computed only from literals are not symbolic.
func (v ContextVar) IsSymbolic() bool {
	if _, ok := v.Ty.(nodes.ConcreteType); ok {
		return false
	}
	return v.Symbolic
}

// NewFromFuncParam builds the initial binding of a named parameter.
// Unnamed parameters yield ok=false.
func NewFromFuncParam(g *graph.Graph, p nodes.FunctionParam) (ContextVar, bool, error) {
	return newFromDecl(g, p.Name, p.Ty, p.Storage, p.At)
}

// NewFromFuncReturn builds the initial binding of a named return slot.
func NewFromFuncReturn(g *graph.Graph, r nodes.FunctionReturn) (ContextVar, bool, error) {
	return newFromDecl(g, r.Name, r.Ty, r.Storage, r.At)
}

func newFromDecl(g *graph.Graph, name string, ty graph.NodeIdx, storage ast.StorageLocation, at ast.Loc) (ContextVar, bool, error) {
	if name == "" {
		return ContextVar{}, false, nil
	}
	vt, err := nodes.VarTypeFromIdx(g, ty)
	if err != nil {
		return ContextVar{}, false, err
	}
	return ContextVar{
		At:          &at,
		Name:        name,
		DisplayName: name,
		Storage:     storage,
		Symbolic:    true,
		Ty:          vt,
	}, true, nil
}

// NewFromConcrete inserts a literal node and returns a temporary variable
// bound to it.
func NewFromConcrete(g *graph.Graph, at ast.Loc, c values.Concrete) ContextVar {
	node := g.AddNode(nodes.Concrete{Value: c})
	return ContextVar{
		At:          &at,
		Name:        "tmp_" + c.String(),
		DisplayName: c.String(),
		IsTmp:       true,
		Ty:          nodes.ConcreteType{Node: node, Value: c},
	}
}

// VarNode addresses a ContextVar in the graph.
type VarNode graph.NodeIdx

func (v VarNode) Idx() graph.NodeIdx { return graph.NodeIdx(v) }

func (v VarNode) Underlying(g *graph.Graph) (ContextVar, error) {
	return graph.NodeAs[ContextVar](g, v.Idx())
}

// AsVar checks that idx names a context variable.
func AsVar(g *graph.Graph, idx graph.NodeIdx) (VarNode, error) {
	if _, err := graph.NodeAs[ContextVar](g, idx); err != nil {
		return 0, err
	}
	return VarNode(idx), nil
}

// MaybeCtx returns the context owning v, following previous-version links.
func (v VarNode) MaybeCtx(g *graph.Graph) (ContextNode, bool) {
	idx, ok := g.SearchForAncestor(v.Idx(), graph.EdgeVariable)
	return ContextNode(idx), ok
}

// LatestVersion follows the previous-version chain forward to its newest
// node. When several versions descend from one node the newest wins.
func (v VarNode) LatestVersion(g *graph.Graph) VarNode {
	cur := v
	for {
		next := cur
		for _, e := range g.Incoming(cur.Idx()) {
			if e.Kind == graph.EdgePrev && e.From > next.Idx() {
				next = VarNode(e.From)
			}
		}
		if next == cur {
			return cur
		}
		cur = next
	}
}

// Add inserts v as a member of ctx.
func Add(g *graph.Graph, ctx ContextNode, v ContextVar) (VarNode, error) {
	if _, err := ctx.Underlying(g); err != nil {
		return 0, err
	}
	idx := g.AddNode(v)
	if err := g.AddEdge(idx, ctx.Idx(), graph.EdgeVariable); err != nil {
		return 0, err
	}
	return VarNode(idx), nil
}

// AdvanceVarInCtx inserts a new version of v stamped with loc. edit, when
// non-nil, adjusts the copy before insertion; an edit error leaves the graph
// untouched. The new version joins ctx directly when v belongs to another
// context, and otherwise links back to v.
func AdvanceVarInCtx(g *graph.Graph, v VarNode, loc ast.Loc, ctx ContextNode, edit func(*ContextVar) error) (VarNode, error) {
	if _, err := ctx.Underlying(g); err != nil {
		return 0, err
	}
	cur, err := v.Underlying(g)
	if err != nil {
		return 0, err
	}
	next := cur
	next.At = &loc
	if edit != nil {
		if err := edit(&next); err != nil {
			return 0, err
		}
	}

	to, kind := v.Idx(), graph.EdgePrev
	if owner, ok := v.MaybeCtx(g); ok && owner != ctx {
		to, kind = ctx.Idx(), graph.EdgeVariable
	}
	idx := g.AddNode(next)
	if err := g.AddEdge(idx, to, kind); err != nil {
		return 0, err
	}
	return VarNode(idx), nil
}

// LocalVars returns the direct members of c.
func (c ContextNode) LocalVars(g *graph.Graph) []VarNode {
	var out []VarNode
	for _, e := range g.Incoming(c.Idx()) {
		if e.Kind == graph.EdgeVariable {
			out = append(out, VarNode(e.From))
		}
	}
	return out
}

// Vars returns every variable reachable below c, including those of its
// subcontexts.
func (c ContextNode) Vars(g *graph.Graph) []VarNode {
	var out []VarNode
	for _, idx := range g.SearchChildren(c.Idx(), graph.EdgeVariable) {
		if _, err := graph.NodeAs[ContextVar](g, idx); err == nil {
			out = append(out, VarNode(idx))
		}
	}
	return out
}

// VarByName resolves name in c: the newest direct member of c with that
// name, else the same lookup in each ancestor. Sibling forks are never
// consulted.
func (c ContextNode) VarByName(g *graph.Graph, name string) (VarNode, bool, error) {
	cur := c
	for {
		var found VarNode
		ok := false
		for _, v := range cur.LocalVars(g) {
			cv, err := v.Underlying(g)
			if err != nil {
				return 0, false, err
			}
			if cv.Name == name && (!ok || v > found) {
				found, ok = v, true
			}
		}
		if ok {
			return found, true, nil
		}
		ctx, err := cur.Underlying(g)
		if err != nil {
			return 0, false, err
		}
		if ctx.ParentCtx == NoParent {
			return 0, false, nil
		}
		cur = ContextNode(ctx.ParentCtx)
	}
}

// LatestVarByName resolves name in c and returns its newest version.
func (c ContextNode) LatestVarByName(g *graph.Graph, name string) (VarNode, bool, error) {
	v, ok, err := c.VarByName(g, name)
	if err != nil || !ok {
		return v, ok, err
	}
	return v.LatestVersion(g), true, nil
}
