// Package ranges models the value bounds attached to ranged variables.
//
// A bound is an Elem: a concrete value, a lazy reference to another node's
// bound, or a symbolic expression over other elements. Arithmetic is only
// evaluated when every input bound is concrete.
package ranges

import (
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// Side selects the lower or upper bound of a range.
type Side int

const (
	SideMin Side = iota
	SideMax
)

func (s Side) String() string {
	if s == SideMin {
		return "min"
	}
	return "max"
}

// Elem is one bound of a range.
type Elem interface {
	fmt.Stringer
	elem()
}

// Value is a concrete bound.
type Value struct {
	V values.Concrete
}

// Dynamic is a bound tied to another node's bound, resolved once that node's
// range is known.
type Dynamic struct {
	Idx  graph.NodeIdx
	Side Side
	At   ast.Loc
}

// Expr is a symbolic bound.
type Expr struct {
	Lhs Elem
	Op  Op
	Rhs Elem
}

func (Value) elem()   {}
func (Dynamic) elem() {}
func (Expr) elem()    {}

func (v Value) String() string   { return v.V.String() }
func (d Dynamic) String() string { return fmt.Sprintf("%s(%d)", d.Side, d.Idx) }
func (e Expr) String() string    { return fmt.Sprintf("(%s %s %s)", e.Lhs, e.Op, e.Rhs) }

// Op is a range operation.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
	OpNot
	OpAnd
	OpOr
)

var opText = [...]string{"+", "-", "*", "/", "%", "<<", ">>", "==", "!=", "<", ">", "<=", ">=", "!", "&&", "||"}

func (o Op) String() string {
	if int(o) < len(opText) {
		return opText[o]
	}
	return "?"
}

// IsComparison reports whether o yields a bool.
func (o Op) IsComparison() bool {
	return o >= OpEq && o <= OpGte
}

// IsLogical reports whether o combines two bools.
func (o Op) IsLogical() bool {
	return o == OpAnd || o == OpOr
}

// Negate returns the comparison that holds exactly when o does not.
func (o Op) Negate() Op {
	switch o {
	case OpEq:
		return OpNeq
	case OpNeq:
		return OpEq
	case OpLt:
		return OpGte
	case OpGte:
		return OpLt
	case OpGt:
		return OpLte
	case OpLte:
		return OpGt
	}
	return o
}

// Flip returns the comparison with its operands swapped: a < b iff b > a.
func (o Op) Flip() Op {
	switch o {
	case OpLt:
		return OpGt
	case OpGt:
		return OpLt
	case OpLte:
		return OpGte
	case OpGte:
		return OpLte
	}
	return o
}
