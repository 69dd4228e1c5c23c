package bounds

import (
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

// Label annotates a source span of a report.
type Label struct {
	At      ast.Loc `json:"at"`
	Message string  `json:"message"`
}

// TargetString renders the target. A dynamic target names the variable and
// includes its bounds when it has a range.
func (a Analysis) TargetString(g *graph.Graph) (string, error) {
	switch t := a.Target.(type) {
	case ConcreteTarget:
		if !t.Value.IsNumeric() {
			return "", errs.Unsupported("non-numeric bound "+t.Value.String(), nil)
		}
		return t.Value.Dec(), nil
	case DynamicTarget:
		v, err := graph.NodeAs[ctxgraph.ContextVar](g, t.Var)
		if err != nil {
			return "", err
		}
		name := v.DisplayName
		if r, ok := v.Range(); ok {
			return fmt.Sprintf("%q, where %q has the bounds %s to %s", name, name, r.Min, r.Max), nil
		}
		return name, nil
	}
	return "", errs.Shape("unknown bound target %T", a.Target)
}

// Message is the headline of the report.
func (a ArrayAccessAnalysis) Message(g *graph.Graph) (string, error) {
	if a.Kind == MaxSize {
		return "", ErrMaxSizeUnimplemented
	}
	target, err := a.Analysis.TargetString(g)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Minimum array length: length must be %s %s", a.Analysis.Rel, target), nil
}

func (a ArrayAccessAnalysis) Labels() []Label {
	return []Label{
		{At: a.ArrLoc, Message: "Array accessed here"},
		{At: a.AccessLoc, Message: "Length enforced by this"},
	}
}

// ArrayName is the display name of the analyzed array.
func (a ArrayAccessAnalysis) ArrayName(g *graph.Graph) string {
	v, err := a.ArrDef.Underlying(g)
	if err != nil {
		return fmt.Sprintf("<%d>", a.ArrDef)
	}
	if bt, ok := v.Ty.(nodes.BuiltInType); ok {
		return fmt.Sprintf("%s %s", bt.Builtin, v.DisplayName)
	}
	return v.DisplayName
}
