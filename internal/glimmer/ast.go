// Package glimmer parses and prints the template language cards are written
// in: a Handlebars dialect with HTML elements, component invocations with
// @arguments, block params and element modifiers.
//
// The parser keeps enough structure to rewrite field references and print
// the result back. Whitespace inside text is preserved; whitespace between
// attributes and inside mustaches is normalised by the printer.
package glimmer

import "strings"

// Node is a statement-level node: text, comments, mustaches, blocks and
// elements.
type Node interface{ node() }

// Expr is an expression inside a mustache.
type Expr interface{ expr() }

// Template is a parsed template.
type Template struct {
	Body []Node
}

// Text is literal template content.
type Text struct {
	Value string
}

// Comment is a Handlebars comment. Long comments use the {{!-- --}} form.
type Comment struct {
	Value string
	Long  bool
}

// Call is the shared shape of mustaches, blocks and subexpressions.
type Call struct {
	Path   Expr
	Params []Expr
	Hash   []Pair
}

// Pair is one key=value hash argument.
type Pair struct {
	Key   string
	Value Expr
}

// Mustache is {{path params hash}} or its triple-curly form.
type Mustache struct {
	Call
	Trusting bool
}

// Block is {{#path params hash as |params|}}program{{else}}inverse{{/path}}.
type Block struct {
	Call
	BlockParams []string
	Program     []Node
	Inverse     []Node
	HasInverse  bool
	// Chained marks a block written as {{else path ...}} inside its parent.
	Chained bool
}

// Element is an HTML element or component invocation.
type Element struct {
	Tag         string
	Attrs       []*Attr
	Modifiers   []*Mustache
	BlockParams []string
	Children    []Node
	SelfClosing bool
}

// Attr is an attribute or @argument. Value is nil for valueless attributes,
// otherwise a *Text, *Mustache or *Concat.
type Attr struct {
	Name  string
	Value Node
}

// Concat is a quoted attribute value mixing text and mustaches.
type Concat struct {
	Parts []Node
}

// Fragment groups nodes without adding markup of its own.
type Fragment struct {
	Body []Node
}

// PathExpr is a path such as @model.author.name, this.title or item.
type PathExpr struct {
	Head string
	Tail []string
}

// SubExpr is a (helper params hash) expression.
type SubExpr struct {
	Call
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

// NumberLit keeps the number as written.
type NumberLit struct {
	Raw string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// NullLit is null.
type NullLit struct{}

// UndefinedLit is undefined.
type UndefinedLit struct{}

func (*Text) node()     {}
func (*Comment) node()  {}
func (*Mustache) node() {}
func (*Block) node()    {}
func (*Element) node()  {}
func (*Concat) node()   {}
func (*Fragment) node() {}

func (*PathExpr) expr()     {}
func (*SubExpr) expr()      {}
func (*StringLit) expr()    {}
func (*NumberLit) expr()    {}
func (*BoolLit) expr()      {}
func (*NullLit) expr()      {}
func (*UndefinedLit) expr() {}

// NewPath builds a path expression.
func NewPath(head string, tail ...string) *PathExpr {
	return &PathExpr{Head: head, Tail: append([]string(nil), tail...)}
}

// ParsePath splits a dotted path such as @fields.author.name.
func ParsePath(s string) *PathExpr {
	parts := strings.Split(s, ".")
	return NewPath(parts[0], parts[1:]...)
}

// String returns the dotted form of the path.
func (p *PathExpr) String() string {
	if len(p.Tail) == 0 {
		return p.Head
	}
	return p.Head + "." + strings.Join(p.Tail, ".")
}

// Extend returns a new path with extra tail segments.
func (p *PathExpr) Extend(tail ...string) *PathExpr {
	out := make([]string, 0, len(p.Tail)+len(tail))
	out = append(out, p.Tail...)
	out = append(out, tail...)
	return &PathExpr{Head: p.Head, Tail: out}
}

// IsArg reports whether the path starts with an @argument.
func (p *PathExpr) IsArg() bool {
	return strings.HasPrefix(p.Head, "@")
}

// HeadName returns the dotted name of a call's path, or "" when the call
// starts with a literal or subexpression.
func (c *Call) HeadName() string {
	if p, ok := c.Path.(*PathExpr); ok {
		return p.String()
	}
	return ""
}
