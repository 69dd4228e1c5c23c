package frontend

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/errs"
)

func (l *lowerer) block(n *sitter.Node) (*ast.Block, error) {
	if n == nil || n.Type() != "compound_statement" {
		return nil, errs.Shape("function body is not a block")
	}
	b := &ast.Block{At: l.loc(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		stmts, err := l.stmt(n.NamedChild(i))
		if err != nil {
			return nil, err
		}
		b.Statements = append(b.Statements, stmts...)
	}
	return b, nil
}

// single lowers a statement in a position that takes exactly one.
func (l *lowerer) single(n *sitter.Node) (ast.Statement, error) {
	if n == nil {
		return nil, nil
	}
	stmts, err := l.stmt(n)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ast.Block{At: l.loc(n), Statements: stmts}, nil
}

func (l *lowerer) stmt(n *sitter.Node) ([]ast.Statement, error) {
	at := l.loc(n)
	one := func(s ast.Statement, err error) ([]ast.Statement, error) {
		if err != nil || s == nil {
			return nil, err
		}
		return []ast.Statement{s}, nil
	}

	switch n.Type() {
	case "comment":
		return nil, nil
	case "compound_statement":
		return one(l.block(n))
	case "declaration":
		return l.declaration(n)
	case "labeled_statement":
		label := n.ChildByFieldName("label")
		if label == nil || l.text(label) != "unchecked" {
			return nil, errs.Unsupported("labeled statement", at)
		}
		body := n.NamedChild(int(n.NamedChildCount()) - 1)
		b, err := l.block(body)
		if err != nil {
			return nil, errs.Unsupported("unchecked statement without a block", at)
		}
		b.Unchecked = true
		return []ast.Statement{b}, nil
	case "expression_statement":
		if n.NamedChildCount() == 0 {
			return nil, nil
		}
		e := n.NamedChild(0)
		if e.Type() == "gnu_asm_expression" {
			return one(&ast.Assembly{At: at, Dialect: "gnu"}, nil)
		}
		if e.Type() == "call_expression" {
			if fn := e.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" {
				switch l.text(fn) {
				case "revert":
					args, err := l.args(e)
					return one(&ast.Revert{At: at, Args: args}, err)
				case "emit":
					args, err := l.args(e)
					if err != nil || len(args) == 0 {
						return nil, errs.Unsupported("emit without an event", at)
					}
					return one(&ast.Emit{At: at, Event: args[0]}, nil)
				}
			}
		}
		x, err := l.expr(e)
		if err != nil {
			return nil, err
		}
		return one(&ast.ExpressionStmt{At: at, Expr: x}, nil)
	case "if_statement":
		cond, err := l.expr(l.condition(n))
		if err != nil {
			return nil, err
		}
		then, err := l.single(n.ChildByFieldName("consequence"))
		if err != nil {
			return nil, err
		}
		alt := n.ChildByFieldName("alternative")
		if alt != nil && alt.Type() == "else_clause" {
			alt = alt.NamedChild(0)
		}
		els, err := l.single(alt)
		if err != nil {
			return nil, err
		}
		return one(&ast.If{At: at, Cond: cond, Then: then, Else: els}, nil)
	case "while_statement":
		cond, err := l.expr(l.condition(n))
		if err != nil {
			return nil, err
		}
		body, err := l.single(n.ChildByFieldName("body"))
		return one(&ast.While{At: at, Cond: cond, Body: body}, err)
	case "do_statement":
		cond, err := l.expr(l.condition(n))
		if err != nil {
			return nil, err
		}
		body, err := l.single(n.ChildByFieldName("body"))
		return one(&ast.DoWhile{At: at, Body: body, Cond: cond}, err)
	case "for_statement":
		return one(l.forStmt(n))
	case "return_statement":
		if n.NamedChildCount() == 0 {
			return one(&ast.Return{At: at}, nil)
		}
		x, err := l.expr(n.NamedChild(0))
		return one(&ast.Return{At: at, Expr: x}, err)
	case "break_statement":
		return one(&ast.Break{At: at}, nil)
	case "continue_statement":
		return one(&ast.Continue{At: at}, nil)
	}
	return nil, errs.Unsupported("statement "+n.Type(), at)
}

func (l *lowerer) condition(n *sitter.Node) *sitter.Node {
	c := n.ChildByFieldName("condition")
	for c != nil && (c.Type() == "parenthesized_expression" || c.Type() == "condition_clause") && c.NamedChildCount() == 1 {
		c = c.NamedChild(0)
	}
	return c
}

func (l *lowerer) forStmt(n *sitter.Node) (ast.Statement, error) {
	f := &ast.For{At: l.loc(n)}
	if init := n.ChildByFieldName("initializer"); init != nil {
		if init.Type() == "declaration" {
			stmts, err := l.declaration(init)
			if err != nil {
				return nil, err
			}
			f.Init = &ast.Block{At: l.loc(init), Statements: stmts}
		} else {
			x, err := l.expr(init)
			if err != nil {
				return nil, err
			}
			f.Init = &ast.ExpressionStmt{At: l.loc(init), Expr: x}
		}
	}
	var err error
	if c := n.ChildByFieldName("condition"); c != nil {
		if f.Cond, err = l.expr(c); err != nil {
			return nil, err
		}
	}
	if u := n.ChildByFieldName("update"); u != nil {
		if f.Post, err = l.expr(u); err != nil {
			return nil, err
		}
	}
	if f.Body, err = l.single(n.ChildByFieldName("body")); err != nil {
		return nil, err
	}
	return f, nil
}

// declaration lowers `T a = x, b[];` into one definition per declarator.
func (l *lowerer) declaration(n *sitter.Node) ([]ast.Statement, error) {
	tyNode := n.ChildByFieldName("type")
	b, void, err := l.typeOf(tyNode)
	if err != nil {
		return nil, err
	}
	if void {
		return nil, errs.Unsupported("void variable", l.loc(n))
	}
	var out []ast.Statement
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		d := n.Child(i)
		var init ast.Expression
		if d.Type() == "init_declarator" {
			if init, err = l.expr(d.ChildByFieldName("value")); err != nil {
				return nil, err
			}
			d = d.ChildByFieldName("declarator")
		}
		name, dims, err := l.declarator(d)
		if err != nil {
			return nil, err
		}
		tyAt := l.loc(tyNode)
		var ty ast.Expression = &ast.TypeExpr{At: tyAt, Ty: b.Ty}
		for j := 0; j < dims; j++ {
			ty = &ast.ArraySubscript{At: tyAt, Array: ty}
		}
		out = append(out, &ast.VariableDefinition{
			At: l.loc(n),
			Decl: ast.VariableDeclaration{
				At:   l.loc(d),
				Ty:   ty,
				Name: &ast.Identifier{At: l.loc(d), Name: name},
			},
			Init: init,
		})
	}
	return out, nil
}

func (l *lowerer) args(call *sitter.Node) ([]ast.Expression, error) {
	list := call.ChildByFieldName("arguments")
	if list == nil {
		return nil, nil
	}
	var out []ast.Expression
	for i := 0; i < int(list.NamedChildCount()); i++ {
		a := list.NamedChild(i)
		if a.Type() == "comment" {
			continue
		}
		x, err := l.expr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (l *lowerer) expr(n *sitter.Node) (ast.Expression, error) {
	if n == nil {
		return nil, errs.Shape("missing expression")
	}
	at := l.loc(n)
	switch n.Type() {
	case "identifier":
		return &ast.Variable{Ident: ast.Identifier{At: at, Name: l.text(n)}}, nil
	case "true", "false":
		return &ast.BoolLiteral{At: at, Value: n.Type() == "true"}, nil
	case "number_literal":
		return l.number(n)
	case "string_literal":
		p, err := l.stringPart(n)
		if err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Parts: []ast.StringPart{p}}, nil
	case "concatenated_string":
		s := &ast.StringLiteral{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			p, err := l.stringPart(n.NamedChild(i))
			if err != nil {
				return nil, err
			}
			s.Parts = append(s.Parts, p)
		}
		return s, nil
	case "parenthesized_expression":
		if n.NamedChildCount() != 1 {
			return nil, errs.Unsupported("parenthesized expression", at)
		}
		return l.expr(n.NamedChild(0))
	case "comma_expression":
		list := &ast.List{At: at}
		for cur := n; ; {
			x, err := l.expr(cur.ChildByFieldName("left"))
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, x)
			right := cur.ChildByFieldName("right")
			if right.Type() != "comma_expression" {
				x, err := l.expr(right)
				if err != nil {
					return nil, err
				}
				list.Items = append(list.Items, x)
				return list, nil
			}
			cur = right
		}
	case "binary_expression":
		lhs, rhs, err := l.sides(n, "left", "right")
		if err != nil {
			return nil, err
		}
		op, ok := ast.BinOpFromText(l.text(n.ChildByFieldName("operator")))
		if !ok {
			return nil, errs.Unsupported("operator "+l.text(n.ChildByFieldName("operator")), at)
		}
		return &ast.BinaryOp{At: at, Op: op, Lhs: lhs, Rhs: rhs}, nil
	case "assignment_expression":
		lhs, rhs, err := l.sides(n, "left", "right")
		if err != nil {
			return nil, err
		}
		text := l.text(n.ChildByFieldName("operator"))
		if text == "=" {
			return &ast.Assign{At: at, Lhs: lhs, Rhs: rhs}, nil
		}
		op, ok := ast.BinOpFromText(text)
		if !ok {
			return nil, errs.Unsupported("operator "+text, at)
		}
		return &ast.BinaryOp{At: at, Op: op, Lhs: lhs, Rhs: rhs}, nil
	case "conditional_expression":
		cond, err := l.expr(n.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		t, f, err := l.sides(n, "consequence", "alternative")
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalOperator{At: at, Cond: cond, True: t, False: f}, nil
	case "subscript_expression":
		arr, idx, err := l.sides(n, "argument", "index")
		if err != nil {
			return nil, err
		}
		return &ast.ArraySubscript{At: at, Array: arr, Index: idx}, nil
	case "field_expression":
		if l.text(n.ChildByFieldName("operator")) != "." {
			return nil, errs.Unsupported("pointer member access", at)
		}
		x, err := l.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		field := n.ChildByFieldName("field")
		return &ast.MemberAccess{At: at, Expr: x, Member: ast.Identifier{At: l.loc(field), Name: l.text(field)}}, nil
	case "unary_expression", "update_expression":
		x, err := l.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		op := l.text(n.ChildByFieldName("operator"))
		if op == "!" {
			return &ast.Not{At: at, Expr: x}, nil
		}
		return &ast.Unary{At: at, Op: op, Expr: x}, nil
	case "call_expression":
		fn, err := l.expr(n.ChildByFieldName("function"))
		if err != nil {
			return nil, err
		}
		args, err := l.args(n)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCall{At: at, Func: fn, Args: args}, nil
	case "cast_expression":
		tyNode := n.ChildByFieldName("type")
		b, _, err := l.typeOf(tyNode)
		if err != nil {
			return nil, err
		}
		x, err := l.expr(n.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCall{At: at, Func: &ast.TypeExpr{At: l.loc(tyNode), Ty: b.Ty}, Args: []ast.Expression{x}}, nil
	}
	return nil, errs.Unsupported("expression "+n.Type(), at)
}

func (l *lowerer) sides(n *sitter.Node, left, right string) (ast.Expression, ast.Expression, error) {
	lhs, err := l.expr(n.ChildByFieldName(left))
	if err != nil {
		return nil, nil, err
	}
	rhs, err := l.expr(n.ChildByFieldName(right))
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

// number splits a literal into its decimal, hex or address form. Hex
// literals of exactly 40 digits are addresses.
func (l *lowerer) number(n *sitter.Node) (ast.Expression, error) {
	at := l.loc(n)
	text := strings.TrimRight(l.text(n), "uUlL")
	if rest, ok := strings.CutPrefix(strings.ToLower(text), "0x"); ok {
		if len(rest) == 40 {
			return &ast.AddressLiteral{At: at, Value: text}, nil
		}
		return &ast.HexNumberLiteral{At: at, Value: text}, nil
	}
	if strings.ContainsAny(text, ".") {
		return nil, errs.Unsupported("fractional literal "+text, at)
	}
	digits, exp, _ := strings.Cut(strings.ToLower(text), "e")
	return &ast.NumberLiteral{At: at, Int: digits, Exp: exp}, nil
}

func (l *lowerer) stringPart(n *sitter.Node) (ast.StringPart, error) {
	raw := l.text(n)
	s, err := strconv.Unquote(raw)
	if err != nil {
		return ast.StringPart{}, errs.Unsupported("string literal "+raw, l.loc(n))
	}
	return ast.StringPart{At: l.loc(n), Value: s}, nil
}
