package ast

// Statement is implemented by every statement node.
type Statement interface {
	Loc() Loc
	stmt()
}

type Block struct {
	At         Loc
	Unchecked  bool
	Statements []Statement
}

// VariableDeclaration is the declared part of a variable definition.
// Name may be nil for unnamed declarations.
type VariableDeclaration struct {
	At      Loc
	Ty      Expression
	Storage StorageLocation
	Name    *Identifier
}

// VariableDefinition declares a variable with an optional initializer.
type VariableDefinition struct {
	At   Loc
	Decl VariableDeclaration
	Init Expression
}

type If struct {
	At   Loc
	Cond Expression
	Then Statement
	Else Statement
}

type ExpressionStmt struct {
	At   Loc
	Expr Expression
}

// Return carries an optional value.
type Return struct {
	At   Loc
	Expr Expression
}

type Revert struct {
	At   Loc
	Args []Expression
}

type While struct {
	At   Loc
	Cond Expression
	Body Statement
}

type DoWhile struct {
	At   Loc
	Body Statement
	Cond Expression
}

type For struct {
	At   Loc
	Init Statement
	Cond Expression
	Post Expression
	Body Statement
}

type Continue struct{ At Loc }

type Break struct{ At Loc }

type Assembly struct {
	At      Loc
	Dialect string
}

type Emit struct {
	At    Loc
	Event Expression
}

type Try struct {
	At   Loc
	Expr Expression
}

func (s *Block) Loc() Loc              { return s.At }
func (s *VariableDefinition) Loc() Loc { return s.At }
func (s *If) Loc() Loc                 { return s.At }
func (s *ExpressionStmt) Loc() Loc     { return s.At }
func (s *Return) Loc() Loc             { return s.At }
func (s *Revert) Loc() Loc             { return s.At }
func (s *While) Loc() Loc              { return s.At }
func (s *DoWhile) Loc() Loc            { return s.At }
func (s *For) Loc() Loc                { return s.At }
func (s *Continue) Loc() Loc           { return s.At }
func (s *Break) Loc() Loc              { return s.At }
func (s *Assembly) Loc() Loc           { return s.At }
func (s *Emit) Loc() Loc               { return s.At }
func (s *Try) Loc() Loc                { return s.At }

func (*Block) stmt()              {}
func (*VariableDefinition) stmt() {}
func (*If) stmt()                 {}
func (*ExpressionStmt) stmt()     {}
func (*Return) stmt()             {}
func (*Revert) stmt()             {}
func (*While) stmt()              {}
func (*DoWhile) stmt()            {}
func (*For) stmt()                {}
func (*Continue) stmt()           {}
func (*Break) stmt()              {}
func (*Assembly) stmt()           {}
func (*Emit) stmt()               {}
func (*Try) stmt()                {}
