package ranges

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/Sabnock01/pyrometer/internal/values"
)

// Range is an inclusive [Min, Max] pair of bounds.
type Range struct {
	Min Elem
	Max Elem
}

// Point is the range holding exactly v.
func Point(v values.Concrete) Range {
	return Range{Min: Value{V: v}, Max: Value{V: v}}
}

// Full is the range covering every value of a numeric kind.
func Full(kind values.Kind, bits int) Range {
	return Range{Min: Value{V: values.Min(kind, bits)}, Max: Value{V: values.Max(kind, bits)}}
}

// Concrete returns both bounds when they are concrete numeric values.
func (r Range) Concrete() (lo, hi values.Concrete, ok bool) {
	l, ok1 := r.Min.(Value)
	h, ok2 := r.Max.(Value)
	if !ok1 || !ok2 || !l.V.IsNumeric() || !h.V.IsNumeric() {
		return values.Concrete{}, values.Concrete{}, false
	}
	return l.V, h.V, true
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Min, r.Max)
}

var boolRange = Full(values.KindBool, 0)

// Apply computes the range of `a op b`. When a bound is not concrete the
// result is symbolic.
func Apply(a Range, op Op, b Range) Range {
	alo, ahi, ok1 := a.Concrete()
	blo, bhi, ok2 := b.Concrete()
	if !ok1 || !ok2 {
		if op.IsComparison() || op.IsLogical() {
			return boolRange
		}
		return symbolic(a, op, b)
	}
	if op.IsComparison() {
		return compare(alo, ahi, op, blo, bhi)
	}
	if op.IsLogical() {
		return logic(alo, ahi, op, blo, bhi)
	}
	kind, bits := resultType(alo, blo)
	if kind == values.KindUint {
		return applyUnsigned(alo, ahi, op, blo, bhi, bits)
	}
	return applySigned(alo, ahi, op, blo, bhi, bits)
}

func symbolic(a Range, op Op, b Range) Range {
	switch op {
	case OpSub, OpDiv, OpShr:
		return Range{Min: Expr{a.Min, op, b.Max}, Max: Expr{a.Max, op, b.Min}}
	}
	return Range{Min: Expr{a.Min, op, b.Min}, Max: Expr{a.Max, op, b.Max}}
}

func resultType(a, b values.Concrete) (values.Kind, int) {
	bits := max(a.Bits, b.Bits, 8)
	if a.Kind == values.KindInt || b.Kind == values.KindInt {
		return values.KindInt, bits
	}
	return values.KindUint, bits
}

// Unsigned arithmetic is checked: results past the type bounds revert, so the
// surviving range saturates.
func applyUnsigned(alo, ahi values.Concrete, op Op, blo, bhi values.Concrete, bits int) Range {
	typeMax := values.Max(values.KindUint, bits).Word
	sat := func(z *uint256.Int, overflow bool) values.Concrete {
		if overflow || z.Gt(&typeMax) {
			return values.NewUint(bits, &typeMax)
		}
		return values.NewUint(bits, z)
	}
	zero := values.NewUint64(bits, 0)
	var lo, hi uint256.Int

	switch op {
	case OpAdd:
		_, o1 := lo.AddOverflow(&alo.Word, &blo.Word)
		_, o2 := hi.AddOverflow(&ahi.Word, &bhi.Word)
		return Range{Min: Value{sat(&lo, o1)}, Max: Value{sat(&hi, o2)}}
	case OpSub:
		if ahi.Word.Lt(&blo.Word) {
			return Point(zero)
		}
		low := zero
		if !alo.Word.Lt(&bhi.Word) {
			lo.Sub(&alo.Word, &bhi.Word)
			low = values.NewUint(bits, &lo)
		}
		hi.Sub(&ahi.Word, &blo.Word)
		return Range{Min: Value{low}, Max: Value{values.NewUint(bits, &hi)}}
	case OpMul:
		_, o1 := lo.MulOverflow(&alo.Word, &blo.Word)
		_, o2 := hi.MulOverflow(&ahi.Word, &bhi.Word)
		return Range{Min: Value{sat(&lo, o1)}, Max: Value{sat(&hi, o2)}}
	case OpDiv:
		if bhi.Word.IsZero() {
			return Point(zero)
		}
		lo.Div(&alo.Word, &bhi.Word)
		d := blo.Word
		if d.IsZero() {
			d.SetOne()
		}
		hi.Div(&ahi.Word, &d)
		return Range{Min: Value{values.NewUint(bits, &lo)}, Max: Value{values.NewUint(bits, &hi)}}
	case OpMod:
		if bhi.Word.IsZero() {
			return Point(zero)
		}
		hi.SubUint64(&bhi.Word, 1)
		if ahi.Word.Lt(&hi) {
			hi = ahi.Word
		}
		return Range{Min: Value{zero}, Max: Value{values.NewUint(bits, &hi)}}
	case OpShl:
		if !bhi.Word.IsUint64() || bhi.Word.Uint64() >= uint64(bits) {
			return Full(values.KindUint, bits)
		}
		if ahi.Word.BitLen()+int(bhi.Word.Uint64()) > bits {
			return Full(values.KindUint, bits)
		}
		hi.Lsh(&ahi.Word, uint(bhi.Word.Uint64()))
		lo.Lsh(&alo.Word, uint(blo.Word.Uint64()))
		return Range{Min: Value{values.NewUint(bits, &lo)}, Max: Value{values.NewUint(bits, &hi)}}
	case OpShr:
		shift := func(v *uint256.Int, by values.Concrete) *uint256.Int {
			var z uint256.Int
			if !by.Word.IsUint64() || by.Word.Uint64() >= 256 {
				return &z
			}
			return z.Rsh(v, uint(by.Word.Uint64()))
		}
		return Range{Min: Value{values.NewUint(bits, shift(&alo.Word, bhi))}, Max: Value{values.NewUint(bits, shift(&ahi.Word, blo))}}
	}
	return Full(values.KindUint, bits)
}

// Signed arithmetic evaluates the four corners and clamps to the type.
func applySigned(alo, ahi values.Concrete, op Op, blo, bhi values.Concrete, bits int) Range {
	full := Full(values.KindInt, bits)
	as := []*big.Int{alo.Big(), ahi.Big()}
	bs := []*big.Int{blo.Big(), bhi.Big()}

	var f func(x, y *big.Int) *big.Int
	switch op {
	case OpAdd:
		f = func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) }
	case OpSub:
		f = func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) }
	case OpMul:
		f = func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }
	case OpDiv:
		if bs[0].Sign() <= 0 && bs[1].Sign() >= 0 {
			return full
		}
		f = func(x, y *big.Int) *big.Int { return new(big.Int).Quo(x, y) }
	default:
		return full
	}

	var lo, hi *big.Int
	for _, x := range as {
		for _, y := range bs {
			v := f(x, y)
			if lo == nil || v.Cmp(lo) < 0 {
				lo = v
			}
			if hi == nil || v.Cmp(hi) > 0 {
				hi = v
			}
		}
	}
	tmin, tmax := values.Min(values.KindInt, bits).Big(), values.Max(values.KindInt, bits).Big()
	if lo.Cmp(tmin) < 0 {
		lo = tmin
	}
	if hi.Cmp(tmax) > 0 {
		hi = tmax
	}
	if lo.Cmp(hi) > 0 {
		return full
	}
	return Range{Min: Value{values.NewInt(bits, lo)}, Max: Value{values.NewInt(bits, hi)}}
}

func compare(alo, ahi values.Concrete, op Op, blo, bhi values.Concrete) Range {
	always, never := false, false
	switch op {
	case OpLt:
		always, never = ahi.Cmp(blo) < 0, alo.Cmp(bhi) >= 0
	case OpLte:
		always, never = ahi.Cmp(blo) <= 0, alo.Cmp(bhi) > 0
	case OpGt:
		always, never = alo.Cmp(bhi) > 0, ahi.Cmp(blo) <= 0
	case OpGte:
		always, never = alo.Cmp(bhi) >= 0, ahi.Cmp(blo) < 0
	case OpEq, OpNeq:
		points := alo.Cmp(ahi) == 0 && blo.Cmp(bhi) == 0
		eq := points && alo.Cmp(blo) == 0
		disjoint := ahi.Cmp(blo) < 0 || bhi.Cmp(alo) < 0
		always, never = eq, disjoint
		if op == OpNeq {
			always, never = never, always
		}
	}
	switch {
	case always:
		return Point(values.NewBool(true))
	case never:
		return Point(values.NewBool(false))
	}
	return boolRange
}

func logic(alo, ahi values.Concrete, op Op, blo, bhi values.Concrete) Range {
	truthy := func(lo, hi values.Concrete) (always, never bool) {
		return lo.Big().Sign() != 0, hi.Big().Sign() == 0
	}
	aT, aF := truthy(alo, ahi)
	bT, bF := truthy(blo, bhi)
	switch {
	case op == OpAnd && aT && bT, op == OpOr && (aT || bT):
		return Point(values.NewBool(true))
	case op == OpAnd && (aF || bF), op == OpOr && aF && bF:
		return Point(values.NewBool(false))
	}
	return boolRange
}
