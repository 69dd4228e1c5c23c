// Package values holds concrete literal values.
//
// Integers are stored as 256-bit words; signed integers use two's complement
// sign-extended to the full word so that Big recovers the signed value.
package values

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindBool
	KindAddress
	KindString
	KindBytes
)

var kindNames = [...]string{"uint", "int", "bool", "address", "string", "bytes"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Concrete is a literal value.
type Concrete struct {
	Kind Kind
	// Bit width for Uint/Int, byte width for Bytes.
	Bits int
	Word uint256.Int
	Bool bool
	Addr common.Address
	Str  string
}

func NewUint(bits int, v *uint256.Int) Concrete {
	return Concrete{Kind: KindUint, Bits: bits, Word: *v}
}

// NewUint64 is a convenience for small unsigned values.
func NewUint64(bits int, v uint64) Concrete {
	return NewUint(bits, uint256.NewInt(v))
}

// NewInt builds a signed value. v must fit in 256 bits.
func NewInt(bits int, v *big.Int) Concrete {
	var w uint256.Int
	w.SetFromBig(v)
	return Concrete{Kind: KindInt, Bits: bits, Word: w}
}

func NewBool(b bool) Concrete {
	return Concrete{Kind: KindBool, Bool: b}
}

func NewAddress(a common.Address) Concrete {
	return Concrete{Kind: KindAddress, Bits: 160, Addr: a}
}

func NewString(s string) Concrete {
	return Concrete{Kind: KindString, Str: s}
}

// FromBig builds a value of the given kind and width from n. Bool treats any
// non-zero n as true.
func FromBig(kind Kind, bits int, n *big.Int) (Concrete, error) {
	switch kind {
	case KindUint:
		if n.Sign() < 0 {
			return Concrete{}, fmt.Errorf("negative value %s for uint%d", n, bits)
		}
		w, overflow := uint256.FromBig(n)
		if overflow {
			return Concrete{}, fmt.Errorf("value %s overflows uint%d", n, bits)
		}
		return NewUint(bits, w), nil
	case KindInt:
		if n.BitLen() > 255 {
			return Concrete{}, fmt.Errorf("value %s overflows int%d", n, bits)
		}
		return NewInt(bits, n), nil
	case KindBool:
		return NewBool(n.Sign() != 0), nil
	}
	return Concrete{}, fmt.Errorf("%s is not numeric", kind)
}

// ParseNumber parses a decimal literal with an optional decimal exponent.
func ParseNumber(digits, exp string) (Concrete, error) {
	digits = strings.ReplaceAll(digits, "_", "")
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Concrete{}, fmt.Errorf("invalid number literal %q", digits)
	}
	if exp != "" {
		e, ok := new(big.Int).SetString(exp, 10)
		if !ok || e.Sign() < 0 || e.BitLen() > 16 {
			return Concrete{}, fmt.Errorf("invalid exponent %q", exp)
		}
		n.Mul(n, new(big.Int).Exp(big.NewInt(10), e, nil))
	}
	return FromBig(KindUint, 256, n)
}

// ParseHex parses a 0x-prefixed hex number. Leading zeros are allowed.
func ParseHex(s string) (Concrete, error) {
	raw := strings.ReplaceAll(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), "_", "")
	n, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return Concrete{}, fmt.Errorf("invalid hex literal %q", s)
	}
	return FromBig(KindUint, 256, n)
}

// ParseAddress parses a 20-byte hex address.
func ParseAddress(s string) (Concrete, error) {
	if !common.IsHexAddress(s) {
		return Concrete{}, fmt.Errorf("invalid address literal %q", s)
	}
	return NewAddress(common.HexToAddress(s)), nil
}

// IsNumeric reports whether the value takes part in interval arithmetic.
func (c Concrete) IsNumeric() bool {
	return c.Kind == KindUint || c.Kind == KindInt || c.Kind == KindBool
}

// Big returns the numeric value. Bools map to 0 and 1.
func (c Concrete) Big() *big.Int {
	switch c.Kind {
	case KindBool:
		if c.Bool {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case KindInt:
		if c.Word.Sign() < 0 {
			var abs uint256.Int
			abs.Neg(&c.Word)
			return new(big.Int).Neg(abs.ToBig())
		}
	case KindAddress:
		return new(big.Int).SetBytes(c.Addr.Bytes())
	}
	return c.Word.ToBig()
}

// Cmp compares two numeric values. Signedness comes from the values' kinds.
func (c Concrete) Cmp(o Concrete) int {
	if c.Kind == KindUint && o.Kind == KindUint {
		return c.Word.Cmp(&o.Word)
	}
	return c.Big().Cmp(o.Big())
}

// Equal reports structural equality.
func (c Concrete) Equal(o Concrete) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindBool:
		return c.Bool == o.Bool
	case KindAddress:
		return c.Addr == o.Addr
	case KindString:
		return c.Str == o.Str
	}
	return c.Word.Eq(&o.Word)
}

// Max returns the largest value of a numeric kind.
func Max(kind Kind, bits int) Concrete {
	switch kind {
	case KindBool:
		return NewBool(true)
	case KindInt:
		n := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		return NewInt(bits, n.Sub(n, big.NewInt(1)))
	}
	n := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	w, _ := uint256.FromBig(n.Sub(n, big.NewInt(1)))
	return NewUint(bits, w)
}

// Min returns the smallest value of a numeric kind.
func Min(kind Kind, bits int) Concrete {
	switch kind {
	case KindBool:
		return NewBool(false)
	case KindInt:
		n := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		return NewInt(bits, n.Neg(n))
	}
	return NewUint64(bits, 0)
}

// Dec renders numeric values in decimal.
func (c Concrete) Dec() string {
	return c.Big().String()
}

func (c Concrete) String() string {
	switch c.Kind {
	case KindBool:
		if c.Bool {
			return "true"
		}
		return "false"
	case KindAddress:
		return c.Addr.Hex()
	case KindString:
		return fmt.Sprintf("%q", c.Str)
	case KindBytes:
		return c.Word.Hex()
	}
	return c.Dec()
}

type concreteJSON struct {
	Kind  string `json:"kind"`
	Bits  int    `json:"bits,omitempty"`
	Value string `json:"value"`
}

func (c Concrete) MarshalJSON() ([]byte, error) {
	return json.Marshal(concreteJSON{Kind: c.Kind.String(), Bits: c.Bits, Value: c.String()})
}
