package ast

// Expression is implemented by every expression node.
type Expression interface {
	Loc() Loc
	expr()
}

// BinOp tags a binary operator, including the compound-assignment forms.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpAssignAdd
	OpAssignSub
	OpAssignMul
	OpAssignDiv
	OpAssignMod
	OpAssignShl
	OpAssignShr
	OpEqual
	OpNotEqual
	OpLess
	OpMore
	OpLessEqual
	OpMoreEqual
	OpAnd
	OpOr
)

var binOpText = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpShl: "<<", OpShr: ">>",
	OpAssignAdd: "+=", OpAssignSub: "-=", OpAssignMul: "*=", OpAssignDiv: "/=",
	OpAssignMod: "%=", OpAssignShl: "<<=", OpAssignShr: ">>=",
	OpEqual: "==", OpNotEqual: "!=", OpLess: "<", OpMore: ">", OpLessEqual: "<=", OpMoreEqual: ">=",
	OpAnd: "&&", OpOr: "||",
}

func (o BinOp) String() string {
	if s, ok := binOpText[o]; ok {
		return s
	}
	return "?"
}

// BinOpFromText maps operator spelling to its tag.
func BinOpFromText(s string) (BinOp, bool) {
	for op, text := range binOpText {
		if text == s {
			return op, true
		}
	}
	return 0, false
}

type Variable struct {
	Ident Identifier
}

// NumberLiteral is a decimal literal Int * 10^Exp. Exp may be empty.
type NumberLiteral struct {
	At  Loc
	Int string
	Exp string
}

type HexNumberLiteral struct {
	At    Loc
	Value string
}

type AddressLiteral struct {
	At    Loc
	Value string
}

type StringPart struct {
	At    Loc
	Value string
}

// StringLiteral is a run of adjacent string parts.
type StringLiteral struct {
	Parts []StringPart
}

type BoolLiteral struct {
	At    Loc
	Value bool
}

type BinaryOp struct {
	At  Loc
	Op  BinOp
	Lhs Expression
	Rhs Expression
}

type Assign struct {
	At  Loc
	Lhs Expression
	Rhs Expression
}

type ConditionalOperator struct {
	At    Loc
	Cond  Expression
	True  Expression
	False Expression
}

// List is a parenthesized tuple. A nil item is an empty slot.
type List struct {
	At    Loc
	Items []Expression
}

// ArraySubscript is `Array[Index]`, or the array type `Array[]` when Index is nil.
type ArraySubscript struct {
	At    Loc
	Array Expression
	Index Expression
}

type TypeExpr struct {
	At Loc
	Ty Type
}

type MemberAccess struct {
	At     Loc
	Expr   Expression
	Member Identifier
}

type Not struct {
	At   Loc
	Expr Expression
}

// Unary covers prefix and postfix operators other than logical negation.
type Unary struct {
	At   Loc
	Op   string
	Expr Expression
}

type FunctionCall struct {
	At   Loc
	Func Expression
	Args []Expression
}

func (e *Variable) Loc() Loc            { return e.Ident.At }
func (e *NumberLiteral) Loc() Loc       { return e.At }
func (e *HexNumberLiteral) Loc() Loc    { return e.At }
func (e *AddressLiteral) Loc() Loc      { return e.At }
func (e *BoolLiteral) Loc() Loc         { return e.At }
func (e *BinaryOp) Loc() Loc            { return e.At }
func (e *Assign) Loc() Loc              { return e.At }
func (e *ConditionalOperator) Loc() Loc { return e.At }
func (e *List) Loc() Loc                { return e.At }
func (e *ArraySubscript) Loc() Loc      { return e.At }
func (e *TypeExpr) Loc() Loc            { return e.At }
func (e *MemberAccess) Loc() Loc        { return e.At }
func (e *Not) Loc() Loc                 { return e.At }
func (e *Unary) Loc() Loc               { return e.At }
func (e *FunctionCall) Loc() Loc        { return e.At }

func (e *StringLiteral) Loc() Loc {
	if len(e.Parts) == 0 {
		return Loc{}
	}
	first, last := e.Parts[0].At, e.Parts[len(e.Parts)-1].At
	return Loc{File: first.File, Start: first.Start, End: last.End}
}

func (*Variable) expr()            {}
func (*NumberLiteral) expr()       {}
func (*HexNumberLiteral) expr()    {}
func (*AddressLiteral) expr()      {}
func (*StringLiteral) expr()       {}
func (*BoolLiteral) expr()         {}
func (*BinaryOp) expr()            {}
func (*Assign) expr()              {}
func (*ConditionalOperator) expr() {}
func (*List) expr()                {}
func (*ArraySubscript) expr()      {}
func (*TypeExpr) expr()            {}
func (*MemberAccess) expr()        {}
func (*Not) expr()                 {}
func (*Unary) expr()               {}
func (*FunctionCall) expr()        {}
