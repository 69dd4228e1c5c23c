package ranges

import (
	"math/big"

	"github.com/Sabnock01/pyrometer/internal/values"
)

// Narrow restricts r under the assumption that `r op other` holds. It
// reports false when no value of r can satisfy the assumption. Non-concrete
// inputs are returned unchanged.
func Narrow(r Range, op Op, other Range) (Range, bool) {
	lo, hi, ok := r.Concrete()
	olo, ohi, ok2 := other.Concrete()
	if !ok || !ok2 {
		return r, true
	}

	switch op {
	case OpGt:
		next, below, above := step(olo, lo, 1)
		if above {
			return r, false
		}
		if !below {
			lo = maxOf(lo, next)
		}
	case OpGte:
		lo = maxOf(lo, olo)
	case OpLt:
		prev, below, above := step(ohi, hi, -1)
		if below {
			return r, false
		}
		if !above {
			hi = minOf(hi, prev)
		}
	case OpLte:
		hi = minOf(hi, ohi)
	case OpEq:
		lo, hi = maxOf(lo, olo), minOf(hi, ohi)
	case OpNeq:
		if olo.Cmp(ohi) != 0 {
			return r, true
		}
		if lo.Cmp(hi) == 0 && lo.Cmp(olo) == 0 {
			return r, false
		}
		if lo.Cmp(olo) == 0 {
			lo, _, _ = step(lo, lo, 1)
		} else if hi.Cmp(olo) == 0 {
			hi, _, _ = step(hi, hi, -1)
		}
	default:
		return r, true
	}

	if lo.Cmp(hi) > 0 {
		return r, false
	}
	return Range{Min: Value{V: lo}, Max: Value{V: hi}}, true
}

// step returns v+delta in the kind and width of like, or reports which side
// of that type the result fell off.
func step(v, like values.Concrete, delta int64) (c values.Concrete, below, above bool) {
	n := new(big.Int).Add(v.Big(), big.NewInt(delta))
	if n.Cmp(values.Min(like.Kind, like.Bits).Big()) < 0 {
		return values.Concrete{}, true, false
	}
	if n.Cmp(values.Max(like.Kind, like.Bits).Big()) > 0 {
		return values.Concrete{}, false, true
	}
	c, err := values.FromBig(like.Kind, like.Bits, n)
	if err != nil {
		return values.Concrete{}, false, true
	}
	return c, false, false
}

func maxOf(a, b values.Concrete) values.Concrete {
	if b.Cmp(a) > 0 {
		return retype(b, a)
	}
	return a
}

func minOf(a, b values.Concrete) values.Concrete {
	if b.Cmp(a) < 0 {
		return retype(b, a)
	}
	return a
}

// retype converts v into like's kind and width. The caller guarantees the
// value lies within like's bounds.
func retype(v, like values.Concrete) values.Concrete {
	if v.Kind == like.Kind && v.Bits == like.Bits {
		return v
	}
	c, err := values.FromBig(like.Kind, like.Bits, v.Big())
	if err != nil {
		return v
	}
	return c
}
