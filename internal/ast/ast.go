// Package ast is the statement/expression tree the interpreter walks.
//
// Trees are produced by the frontend package. Every node carries a Loc so
// that analysis results can point back into the source.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Loc is a byte span inside one source file.
type Loc struct {
	File  int `json:"file"`
	Start int `json:"start"`
	End   int `json:"end"`
}

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d-%d", l.File, l.Start, l.End)
}

// Line returns the 1-based line of the span start within src.
func (l Loc) Line(src []byte) int {
	if l.Start > len(src) {
		return 0
	}
	line := 1
	for _, b := range src[:l.Start] {
		if b == '\n' {
			line++
		}
	}
	return line
}

// StorageLocation is the data location annotation of a variable.
type StorageLocation int

const (
	StorageNone StorageLocation = iota
	StorageMemory
	StorageStorage
	StorageCalldata
)

// TypeKind enumerates the elementary types.
type TypeKind int

const (
	TypeUint TypeKind = iota
	TypeInt
	TypeBool
	TypeAddress
	TypeString
	TypeBytes
	TypeDynamicBytes
)

// Type is an elementary type descriptor. Bits is the bit width for integers
// and the byte width for fixed bytes.
type Type struct {
	Kind TypeKind `json:"kind"`
	Bits int      `json:"bits,omitempty"`
}

func (t Type) String() string {
	switch t.Kind {
	case TypeUint:
		return "uint" + strconv.Itoa(t.Bits)
	case TypeInt:
		return "int" + strconv.Itoa(t.Bits)
	case TypeBool:
		return "bool"
	case TypeAddress:
		return "address"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes" + strconv.Itoa(t.Bits)
	case TypeDynamicBytes:
		return "bytes"
	}
	return fmt.Sprintf("type(%d)", t.Kind)
}

// ParseType resolves an elementary type name such as "uint", "int8",
// "bytes32" or "address".
func ParseType(name string) (Type, bool) {
	switch name {
	case "bool":
		return Type{Kind: TypeBool}, true
	case "address":
		return Type{Kind: TypeAddress}, true
	case "string":
		return Type{Kind: TypeString}, true
	case "bytes":
		return Type{Kind: TypeDynamicBytes}, true
	case "uint":
		return Type{Kind: TypeUint, Bits: 256}, true
	case "int":
		return Type{Kind: TypeInt, Bits: 256}, true
	}
	for _, p := range []struct {
		prefix string
		kind   TypeKind
		step   int
		max    int
	}{
		{"uint", TypeUint, 8, 256},
		{"int", TypeInt, 8, 256},
		{"bytes", TypeBytes, 1, 32},
	} {
		rest, ok := strings.CutPrefix(name, p.prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 || n > p.max || n%p.step != 0 {
			return Type{}, false
		}
		return Type{Kind: p.kind, Bits: n}, true
	}
	return Type{}, false
}

// Identifier is a name occurrence.
type Identifier struct {
	At   Loc
	Name string
}
