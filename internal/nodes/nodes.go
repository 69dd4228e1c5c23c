// Package nodes defines the non-context payloads stored in the analysis graph
// and the variable type taxonomy shared by the interpreter and bound analyzer.
package nodes

import (
	"sort"
	"strings"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/ranges"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// Builtin is an elementary type, optionally wrapped in dynamic array
// dimensions.
type Builtin struct {
	Ty    ast.Type `json:"ty"`
	Array int      `json:"array,omitempty"`
}

// String is also the registry key of the builtin.
func (b Builtin) String() string {
	return b.Ty.String() + strings.Repeat("[]", b.Array)
}

func (Builtin) NodeKind() graph.NodeKind { return graph.KindBuiltin }

// Elem returns the element type of an array builtin.
func (b Builtin) Elem() Builtin {
	if b.Array > 0 {
		b.Array--
	}
	return b
}

// Rangeable reports whether values of this type carry a numeric range.
func (b Builtin) Rangeable() bool {
	if b.Array > 0 {
		return false
	}
	switch b.Ty.Kind {
	case ast.TypeUint, ast.TypeInt, ast.TypeBool:
		return true
	}
	return false
}

// DefaultRange is the full range of a rangeable type.
func (b Builtin) DefaultRange() (ranges.Range, bool) {
	if !b.Rangeable() {
		return ranges.Range{}, false
	}
	switch b.Ty.Kind {
	case ast.TypeInt:
		return ranges.Full(values.KindInt, b.Ty.Bits), true
	case ast.TypeBool:
		return ranges.Full(values.KindBool, 0), true
	}
	return ranges.Full(values.KindUint, b.Ty.Bits), true
}

// Concrete is a literal value node.
type Concrete struct {
	Value values.Concrete `json:"value"`
}

func (Concrete) NodeKind() graph.NodeKind { return graph.KindConcrete }

// Contract groups the functions of one source unit.
type Contract struct {
	Name string  `json:"name"`
	At   ast.Loc `json:"at"`
}

func (Contract) NodeKind() graph.NodeKind { return graph.KindContract }

// Function is a function definition. Builtin functions have no body.
type Function struct {
	Name    string     `json:"name"`
	At      ast.Loc    `json:"at"`
	Body    *ast.Block `json:"-"`
	Builtin bool       `json:"builtin,omitempty"`
}

func (Function) NodeKind() graph.NodeKind { return graph.KindFunction }

// FunctionParam is a declared parameter. Ty names a builtin type node.
type FunctionParam struct {
	Order   int                 `json:"order"`
	Name    string              `json:"name,omitempty"`
	Ty      graph.NodeIdx       `json:"ty"`
	Storage ast.StorageLocation `json:"storage,omitempty"`
	At      ast.Loc             `json:"at"`
}

func (FunctionParam) NodeKind() graph.NodeKind { return graph.KindFunctionParam }

// FunctionReturn is a declared return slot, possibly unnamed.
type FunctionReturn struct {
	Order   int                 `json:"order"`
	Name    string              `json:"name,omitempty"`
	Ty      graph.NodeIdx       `json:"ty"`
	Storage ast.StorageLocation `json:"storage,omitempty"`
	At      ast.Loc             `json:"at"`
}

func (FunctionReturn) NodeKind() graph.NodeKind { return graph.KindFunctionReturn }

// BuiltinNode returns the registered node for b, inserting it if needed.
func BuiltinNode(g *graph.Graph, b Builtin) (graph.NodeIdx, error) {
	key := b.String()
	if idx, ok := g.Builtin(key); ok {
		return idx, nil
	}
	idx := g.AddNode(b)
	if err := g.InsertBuiltin(key, idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// BuiltinFunction returns the shared node of a builtin function such as
// require, inserting it if needed.
func BuiltinFunction(g *graph.Graph, name string) (graph.NodeIdx, error) {
	key := "fn:" + name
	if idx, ok := g.Builtin(key); ok {
		return idx, nil
	}
	idx := g.AddNode(Function{Name: name, Builtin: true})
	if err := g.InsertBuiltin(key, idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// FunctionContract returns the contract fn belongs to.
func FunctionContract(g *graph.Graph, fn graph.NodeIdx) (graph.NodeIdx, bool) {
	for _, e := range g.Outgoing(fn) {
		if e.Kind == graph.EdgeFunc {
			return e.To, true
		}
	}
	return 0, false
}

// ContractFunctions lists the functions linked to a contract, in declaration order.
func ContractFunctions(g *graph.Graph, contract graph.NodeIdx) []graph.NodeIdx {
	var out []graph.NodeIdx
	for _, e := range g.Incoming(contract) {
		if e.Kind == graph.EdgeFunc {
			out = append(out, e.From)
		}
	}
	return out
}

// Params returns fn's parameters ordered by position.
func Params(g *graph.Graph, fn graph.NodeIdx) ([]FunctionParam, error) {
	var out []FunctionParam
	for _, e := range g.Incoming(fn) {
		if e.Kind != graph.EdgeFunctionParam {
			continue
		}
		p, err := graph.NodeAs[FunctionParam](g, e.From)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Returns returns fn's return slots ordered by position.
func Returns(g *graph.Graph, fn graph.NodeIdx) ([]FunctionReturn, error) {
	var out []FunctionReturn
	for _, e := range g.Incoming(fn) {
		if e.Kind != graph.EdgeFunctionReturn {
			continue
		}
		r, err := graph.NodeAs[FunctionReturn](g, e.From)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// FunctionByName finds a function of the same contract as fn.
func FunctionByName(g *graph.Graph, fn graph.NodeIdx, name string) (graph.NodeIdx, bool) {
	contract, ok := FunctionContract(g, fn)
	if !ok {
		return 0, false
	}
	for _, idx := range ContractFunctions(g, contract) {
		f, err := graph.NodeAs[Function](g, idx)
		if err == nil && f.Name == name {
			return idx, true
		}
	}
	return 0, false
}

func errNotType(idx graph.NodeIdx, p graph.Payload) error {
	return errs.Shape("node %d is a %s, not a type", idx, p.NodeKind())
}
