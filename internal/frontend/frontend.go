// Package frontend lowers C-shaped contract source into the ast package and
// registers its contracts and functions in a graph.
//
// A top-level `struct Name;` (or `struct Name {}`) opens a contract. Every
// function definition that follows belongs to it until the next one.
// Functions defined before any contract are free functions.
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/Sabnock01/pyrometer/internal/ast"
	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"
)

const query = `
	(translation_unit (struct_specifier name: (type_identifier)) @contract)
	(translation_unit (function_definition) @func)
`

// Unit is the result of lowering one source file. A function that cannot
// be lowered is listed in Failures and adds nothing to the graph.
type Unit struct {
	File      int
	Contracts []graph.NodeIdx
	Functions []graph.NodeIdx
	Failures  []FunctionError
}

// FunctionError is a function definition that could not be lowered.
type FunctionError struct {
	Name string
	At   ast.Loc
	Err  error
}

// Frontend parses source files. It is safe for concurrent use; every call
// creates its own parser.
type Frontend struct {
	lang *sitter.Language
	log  *slog.Logger
}

func New(log *slog.Logger) *Frontend {
	if log == nil {
		log = slog.Default()
	}
	return &Frontend{lang: c.GetLanguage(), log: log.With(slog.String("component", "frontend"))}
}

// Lower parses src and adds its declarations to g. file is recorded in
// every location.
func (f *Frontend) Lower(ctx context.Context, g *graph.Graph, file int, src []byte) (*Unit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(f.lang)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		return nil, errs.Unsupported("syntax error near "+excerpt(bad.Content(src)), loc(file, bad))
	}

	q, err := sitter.NewQuery([]byte(query), f.lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer q.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	type item struct {
		kind string
		node *sitter.Node
	}
	var items []item
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, capt := range m.Captures {
			items = append(items, item{kind: q.CaptureNameForId(capt.Index), node: capt.Node})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].node.StartByte() < items[j].node.StartByte() })

	l := &lowerer{g: g, src: src, file: file}
	unit := &Unit{File: file}
	contract, inContract := graph.NodeIdx(0), false
	for _, it := range items {
		switch it.kind {
		case "contract":
			name := it.node.ChildByFieldName("name").Content(src)
			contract, inContract = g.AddNode(nodes.Contract{Name: name, At: l.loc(it.node)}), true
			unit.Contracts = append(unit.Contracts, contract)
		case "func":
			fn, err := l.function(it.node)
			if err != nil {
				name := l.functionName(it.node)
				f.log.Debug("function not lowered", slog.Int("file", file), slog.String("function", name), slog.Any("err", err))
				unit.Failures = append(unit.Failures, FunctionError{Name: name, At: l.loc(it.node), Err: err})
				continue
			}
			if inContract {
				if err := g.AddEdge(fn, contract, graph.EdgeFunc); err != nil {
					return nil, err
				}
			}
			unit.Functions = append(unit.Functions, fn)
		}
	}
	f.log.Debug("lowered",
		slog.Int("file", file),
		slog.Int("contracts", len(unit.Contracts)),
		slog.Int("functions", len(unit.Functions)),
		slog.Int("failures", len(unit.Failures)))
	return unit, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); ch.HasError() || ch.IsMissing() {
			return firstError(ch)
		}
	}
	return n
}

func excerpt(s string) string {
	if len(s) > 32 {
		s = s[:32] + "..."
	}
	return fmt.Sprintf("%q", s)
}

func loc(file int, n *sitter.Node) ast.Loc {
	return ast.Loc{File: file, Start: int(n.StartByte()), End: int(n.EndByte())}
}

type lowerer struct {
	g    *graph.Graph
	src  []byte
	file int
}

func (l *lowerer) loc(n *sitter.Node) ast.Loc { return loc(l.file, n) }

func (l *lowerer) text(n *sitter.Node) string { return n.Content(l.src) }

type param struct {
	name string
	ty   nodes.Builtin
	at   ast.Loc
}

// function registers a function definition with its parameters and
// return slot. Nothing is added to the graph unless the whole definition
// lowers.
func (l *lowerer) function(n *sitter.Node) (graph.NodeIdx, error) {
	decl := n.ChildByFieldName("declarator")
	if decl == nil || decl.Type() != "function_declarator" {
		return 0, errs.Unsupported("function declarator", l.loc(n))
	}
	nameNode := decl.ChildByFieldName("declarator")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return 0, errs.Unsupported("function declarator", l.loc(decl))
	}
	body, err := l.block(n.ChildByFieldName("body"))
	if err != nil {
		return 0, err
	}

	var params []param
	if list := decl.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			p := list.NamedChild(i)
			switch p.Type() {
			case "comment":
				continue
			case "parameter_declaration":
			default:
				return 0, errs.Unsupported("parameter "+p.Type(), l.loc(p))
			}
			b, void, err := l.typeOf(p.ChildByFieldName("type"))
			if err != nil {
				return 0, err
			}
			if void {
				continue
			}
			name, dims, err := l.declarator(p.ChildByFieldName("declarator"))
			if err != nil {
				return 0, err
			}
			b.Array += dims
			params = append(params, param{name: name, ty: b, at: l.loc(p)})
		}
	}

	retNode := n.ChildByFieldName("type")
	rb, void, err := l.typeOf(retNode)
	if err != nil {
		return 0, err
	}

	fn := l.g.AddNode(nodes.Function{Name: l.text(nameNode), At: l.loc(n), Body: body})
	for i, p := range params {
		ty, err := nodes.BuiltinNode(l.g, p.ty)
		if err != nil {
			return 0, err
		}
		idx := l.g.AddNode(nodes.FunctionParam{Order: i, Name: p.name, Ty: ty, At: p.at})
		if err := l.g.AddEdge(idx, fn, graph.EdgeFunctionParam); err != nil {
			return 0, err
		}
	}
	if !void {
		ty, err := nodes.BuiltinNode(l.g, rb)
		if err != nil {
			return 0, err
		}
		ret := l.g.AddNode(nodes.FunctionReturn{Ty: ty, At: l.loc(retNode)})
		if err := l.g.AddEdge(ret, fn, graph.EdgeFunctionReturn); err != nil {
			return 0, err
		}
	}
	return fn, nil
}

// functionName is the declared name of a function definition, even one
// that fails to lower.
func (l *lowerer) functionName(n *sitter.Node) string {
	if decl := n.ChildByFieldName("declarator"); decl != nil && decl.Type() == "function_declarator" {
		if name := decl.ChildByFieldName("declarator"); name != nil && name.Type() == "identifier" {
			return l.text(name)
		}
	}
	return fmt.Sprintf("<function at %d>", n.StartByte())
}

// typeOf resolves a type specifier. void reports the `void` type.
func (l *lowerer) typeOf(n *sitter.Node) (b nodes.Builtin, void bool, err error) {
	if n == nil {
		return nodes.Builtin{}, false, errs.Shape("declaration without a type")
	}
	name := l.text(n)
	if name == "void" {
		return nodes.Builtin{}, true, nil
	}
	switch n.Type() {
	case "primitive_type", "type_identifier":
		if ty, ok := ast.ParseType(name); ok {
			return nodes.Builtin{Ty: ty}, false, nil
		}
	case "type_descriptor":
		return l.typeOf(n.ChildByFieldName("type"))
	}
	return nodes.Builtin{}, false, errs.Unsupported("type "+name, l.loc(n))
}

// declarator unwraps array declarators around a name. A nil node is an
// unnamed declaration.
func (l *lowerer) declarator(n *sitter.Node) (string, int, error) {
	dims := 0
	for n != nil {
		switch n.Type() {
		case "identifier":
			return l.text(n), dims, nil
		case "array_declarator":
			if size := n.ChildByFieldName("size"); size != nil {
				return "", 0, errs.Unsupported("fixed-size array", l.loc(size))
			}
			dims++
			n = n.ChildByFieldName("declarator")
		default:
			return "", 0, errs.Unsupported("declarator "+n.Type(), l.loc(n))
		}
	}
	return "", dims, nil
}
