package nodes

import (
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/ranges"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// VarType is the type of a context variable: a builtin with an optional
// range, or a concrete literal.
type VarType interface {
	TypeNode() graph.NodeIdx
	Range() (ranges.Range, bool)
	String() string
	varType()
}

// BuiltInType is a variable of a builtin type. Range is nil for
// non-rangeable types.
type BuiltInType struct {
	Node    graph.NodeIdx
	Builtin Builtin
	Bounds  *ranges.Range
}

// ConcreteType is a variable bound to a literal.
type ConcreteType struct {
	Node  graph.NodeIdx
	Value values.Concrete
}

func (t BuiltInType) TypeNode() graph.NodeIdx  { return t.Node }
func (t ConcreteType) TypeNode() graph.NodeIdx { return t.Node }

func (t BuiltInType) Range() (ranges.Range, bool) {
	if t.Bounds == nil {
		return ranges.Range{}, false
	}
	return *t.Bounds, true
}

// Range of a literal is the point holding it. Non-numeric literals have none.
func (t ConcreteType) Range() (ranges.Range, bool) {
	if !t.Value.IsNumeric() {
		return ranges.Range{}, false
	}
	return ranges.Point(t.Value), true
}

func (t BuiltInType) String() string  { return t.Builtin.String() }
func (t ConcreteType) String() string { return t.Value.Kind.String() }

func (BuiltInType) varType()  {}
func (ConcreteType) varType() {}

// WithRange returns a copy of t carrying r.
func (t BuiltInType) WithRange(r ranges.Range) BuiltInType {
	t.Bounds = &r
	return t
}

// VarTypeFromIdx builds the type for a type or literal node. Rangeable
// builtins start with their full default range.
func VarTypeFromIdx(g *graph.Graph, idx graph.NodeIdx) (VarType, error) {
	p, err := g.Node(idx)
	if err != nil {
		return nil, err
	}
	switch n := p.(type) {
	case Builtin:
		t := BuiltInType{Node: idx, Builtin: n}
		if r, ok := n.DefaultRange(); ok {
			t.Bounds = &r
		}
		return t, nil
	case Concrete:
		return ConcreteType{Node: idx, Value: n.Value}, nil
	}
	return nil, errNotType(idx, p)
}
