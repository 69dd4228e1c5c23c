package interp

import (
	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
)

// ExprRet is the path-sensitive result of evaluating an expression. It is
// one of Killed, Single, Multi or Fork.
type ExprRet interface {
	exprRet()
}

// Killed means the path died while evaluating.
type Killed struct{}

// Single is one value in one context.
type Single struct {
	Ctx ctxgraph.ContextNode
	Idx graph.NodeIdx
}

// Multi is an ordered tuple of results.
type Multi []ExprRet

// Fork holds two alternative result worlds.
type Fork struct {
	World1 ExprRet
	World2 ExprRet
}

func (Killed) exprRet() {}
func (Single) exprRet() {}
func (Multi) exprRet()  {}
func (Fork) exprRet()   {}

// ExpectSingle unwraps a Single result.
func ExpectSingle(r ExprRet) (Single, error) {
	s, ok := r.(Single)
	if !ok {
		return Single{}, errs.Shape("expected a single result, got %T", r)
	}
	return s, nil
}

// ExpectMulti unwraps a Multi result.
func ExpectMulti(r ExprRet) (Multi, error) {
	m, ok := r.(Multi)
	if !ok {
		return nil, errs.Shape("expected a multi result, got %T", r)
	}
	return m, nil
}

// Singles flattens r into its leaves, left to right across worlds.
func Singles(r ExprRet) []Single {
	switch r := r.(type) {
	case Single:
		return []Single{r}
	case Multi:
		var out []Single
		for _, e := range r {
			out = append(out, Singles(e)...)
		}
		return out
	case Fork:
		return append(Singles(r.World1), Singles(r.World2)...)
	}
	return nil
}

// combineWorlds folds per-fork results into nested forks.
func combineWorlds(rs []ExprRet) ExprRet {
	switch len(rs) {
	case 0:
		return Killed{}
	case 1:
		return rs[0]
	}
	return Fork{World1: rs[0], World2: combineWorlds(rs[1:])}
}

// mapSingles applies f to every leaf of r, preserving its shape.
func mapSingles(r ExprRet, f func(Single) (ExprRet, error)) (ExprRet, error) {
	switch r := r.(type) {
	case Single:
		return f(r)
	case Multi:
		out := make(Multi, 0, len(r))
		for _, e := range r {
			m, err := mapSingles(e, f)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	case Fork:
		w1, err := mapSingles(r.World1, f)
		if err != nil {
			return nil, err
		}
		w2, err := mapSingles(r.World2, f)
		if err != nil {
			return nil, err
		}
		return Fork{World1: w1, World2: w2}, nil
	}
	return Killed{}, nil
}

type pairFunc func(lhs, rhs Single) (ExprRet, error)

// matchSides pairs the leaves of two result trees:
//
//	Single x Single      one application
//	Single x Multi       the single against each element, in order
//	Multi  x Single      each element against the single
//	Multi  x Multi       zipped when lengths match, otherwise the whole lhs
//	                     against each rhs element
//	Fork   x Fork        all four world combinations
//	Fork   x other       the other side distributed into both worlds
//
// A killed side yields Killed.
func matchSides(lhs, rhs ExprRet, f pairFunc) (ExprRet, error) {
	if _, ok := lhs.(Killed); ok {
		return Killed{}, nil
	}
	if _, ok := rhs.(Killed); ok {
		return Killed{}, nil
	}

	switch l := lhs.(type) {
	case Single:
		switch r := rhs.(type) {
		case Single:
			return f(l, r)
		case Multi:
			return eachOf(len(r), func(i int) (ExprRet, error) { return matchSides(l, r[i], f) })
		case Fork:
			return forkOf(func() (ExprRet, error) { return matchSides(l, r.World1, f) },
				func() (ExprRet, error) { return matchSides(l, r.World2, f) })
		}
	case Multi:
		switch r := rhs.(type) {
		case Single:
			return eachOf(len(l), func(i int) (ExprRet, error) { return matchSides(l[i], r, f) })
		case Multi:
			if len(l) == len(r) {
				return eachOf(len(l), func(i int) (ExprRet, error) { return matchSides(l[i], r[i], f) })
			}
			return eachOf(len(r), func(i int) (ExprRet, error) { return matchSides(l, r[i], f) })
		case Fork:
			return forkOf(func() (ExprRet, error) { return matchSides(l, r.World1, f) },
				func() (ExprRet, error) { return matchSides(l, r.World2, f) })
		}
	case Fork:
		if r, ok := rhs.(Fork); ok {
			return forkOf(
				func() (ExprRet, error) {
					return forkOf(func() (ExprRet, error) { return matchSides(l.World1, r.World1, f) },
						func() (ExprRet, error) { return matchSides(l.World1, r.World2, f) })
				},
				func() (ExprRet, error) {
					return forkOf(func() (ExprRet, error) { return matchSides(l.World2, r.World1, f) },
						func() (ExprRet, error) { return matchSides(l.World2, r.World2, f) })
				})
		}
		return forkOf(func() (ExprRet, error) { return matchSides(l.World1, rhs, f) },
			func() (ExprRet, error) { return matchSides(l.World2, rhs, f) })
	}
	return nil, errs.Shape("unmatched result shapes %T and %T", lhs, rhs)
}

func eachOf(n int, f func(i int) (ExprRet, error)) (ExprRet, error) {
	out := make(Multi, 0, n)
	for i := 0; i < n; i++ {
		r, err := f(i)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func forkOf(w1, w2 func() (ExprRet, error)) (ExprRet, error) {
	r1, err := w1()
	if err != nil {
		return nil, err
	}
	r2, err := w2()
	if err != nil {
		return nil, err
	}
	return Fork{World1: r1, World2: r2}, nil
}
