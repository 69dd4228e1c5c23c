// Package bounds derives array-length requirements from a finished context
// graph. It only reads the graph.
package bounds

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
	"github.com/Sabnock01/pyrometer/internal/values"
)

// ErrMaxSizeUnimplemented is returned by MaxSizeToPreventAccessRevert.
var ErrMaxSizeUnimplemented = errors.New("maximum array size analysis is not implemented")

// Relative is the relation a length must satisfy.
type Relative int

const (
	Eq Relative = iota
	Lt
	Lte
	Gt
	Gte
)

var relText = [...]string{"==", "<", "<=", ">", ">="}

func (r Relative) String() string {
	if int(r) < len(relText) {
		return relText[r]
	}
	return "?"
}

// Target is the right-hand side of a relation: a ConcreteTarget or a
// DynamicTarget.
type Target interface {
	target()
}

// ConcreteTarget is a literal bound.
type ConcreteTarget struct {
	Value values.Concrete `json:"value"`
}

// DynamicTarget refers to a variable whose range bounds the length.
type DynamicTarget struct {
	Var graph.NodeIdx `json:"var"`
}

func (ConcreteTarget) target() {}
func (DynamicTarget) target()  {}

type Analysis struct {
	Rel    Relative `json:"rel"`
	Target Target   `json:"target"`
}

// AccessKind tells which side of the length an analysis constrains.
type AccessKind int

const (
	MinSize AccessKind = iota
	MaxSize
)

// ArrayAccessAnalysis is one requirement derived from one array access.
type ArrayAccessAnalysis struct {
	ArrDef    ctxgraph.VarNode `json:"arr_def"`
	ArrLoc    ast.Loc          `json:"arr_loc"`
	AccessLoc ast.Loc          `json:"access_loc"`
	Analysis  Analysis         `json:"analysis"`
	Kind      AccessKind       `json:"kind"`
}

// MinSizeToPreventAccessRevert returns, for every index access recorded
// under ctx, the length an array needs so that the access does not revert.
// Results are ordered by array, then by access.
func MinSizeToPreventAccessRevert(g *graph.Graph, ctx ctxgraph.ContextNode) ([]ArrayAccessAnalysis, error) {
	arrays := g.NodesWithChildren(ctx.Idx(), graph.EdgeIndexAccess)
	keys := make([]graph.NodeIdx, 0, len(arrays))
	for arr := range arrays {
		keys = append(keys, arr)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []ArrayAccessAnalysis
	for _, arr := range keys {
		arrVar, err := ctxgraph.AsVar(g, arr)
		if err != nil {
			return nil, err
		}
		def, err := arrVar.Underlying(g)
		if err != nil {
			return nil, err
		}
		if def.At == nil {
			return nil, errs.Missing("array definition", nil, "array %q has no location", def.Name)
		}
		for _, access := range arrays[arr] {
			a, err := minSize(g, access)
			if err != nil {
				return nil, err
			}
			a.ArrDef, a.ArrLoc = arrVar, *def.At
			out = append(out, a)
		}
	}
	return out, nil
}

// MaxSizeToPreventAccessRevert is not implemented.
func MaxSizeToPreventAccessRevert(*graph.Graph, ctxgraph.ContextNode) ([]ArrayAccessAnalysis, error) {
	return nil, ErrMaxSizeUnimplemented
}

func minSize(g *graph.Graph, access graph.NodeIdx) (ArrayAccessAnalysis, error) {
	index, ok := indexOf(g, access)
	if !ok {
		return ArrayAccessAnalysis{}, errs.Shape("index access %d has no index", access)
	}
	iv, err := graph.NodeAs[ctxgraph.ContextVar](g, index)
	if err != nil {
		return ArrayAccessAnalysis{}, err
	}
	av, err := graph.NodeAs[ctxgraph.ContextVar](g, access)
	if err != nil {
		return ArrayAccessAnalysis{}, err
	}
	if av.At == nil {
		return ArrayAccessAnalysis{}, errs.Missing("index access", nil, "access %q has no location", av.Name)
	}

	res := ArrayAccessAnalysis{AccessLoc: *av.At, Kind: MinSize}
	switch ty := iv.Ty.(type) {
	case nodes.ConcreteType:
		if ty.Value.Kind != values.KindUint && ty.Value.Kind != values.KindInt {
			return ArrayAccessAnalysis{}, errs.Unsupported("index of type "+ty.Value.Kind.String(), av.At)
		}
		res.Analysis = Analysis{Rel: Gt, Target: ConcreteTarget{Value: ty.Value}}
	case nodes.BuiltInType:
		if ty.Bounds != nil {
			res.Analysis = Analysis{Rel: Gt, Target: DynamicTarget{Var: index}}
		} else {
			res.Analysis = Analysis{Rel: Gt, Target: DynamicTarget{Var: access}}
		}
	default:
		return ArrayAccessAnalysis{}, errs.Unsupported(fmt.Sprintf("index of type %v", iv.Ty), av.At)
	}
	return res, nil
}

// indexOf returns the value an access was indexed with.
func indexOf(g *graph.Graph, access graph.NodeIdx) (graph.NodeIdx, bool) {
	for _, e := range g.Incoming(access) {
		if e.Kind == graph.EdgeIndex {
			return e.From, true
		}
	}
	return 0, false
}
