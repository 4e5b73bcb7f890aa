package templates

import (
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/glimmer"
	"github.com/specialistvlad/cardc/internal/scope"
)

type refKind int

const (
	// refField is a field component at path. The root ref has an empty path.
	refField refKind = iota
	// refItem is one item of the containsMany field at path.
	refItem
	// refName is the literal name of a field inside an each-in loop.
	refName
	// refAnyField is the component binding of an each-in loop during
	// analysis, where the concrete field is not known.
	refAnyField
)

// ref is what a local name, or @fields itself, stands for.
type ref struct {
	kind refKind
	path []string
	// entered counts the leading path segments whose value is already the
	// base of data, so containsMany fields among them were iterated.
	entered int
	data    glimmer.Expr
	setter  glimmer.Expr
	name    string
}

type tracker = scope.Tracker[glimmer.Node, *ref]

func newTracker() *tracker {
	return scope.New[glimmer.Node, *ref]()
}

func rootRef() *ref {
	return &ref{
		kind:   refField,
		data:   glimmer.NewPath("@model"),
		setter: glimmer.NewPath("@set", "setters"),
	}
}

func (r *ref) pathString() string {
	return strings.Join(r.path, ".")
}

// extendData is the dotted data path of r followed by tail.
func (r *ref) extendData(tail []string) string {
	parts := make([]string, 0, len(r.path)+len(tail))
	parts = append(parts, r.path...)
	parts = append(parts, tail...)
	return strings.Join(parts, ".")
}

// extend walks tail further into the field tree.
func (r *ref) extend(tail []string) *ref {
	if len(tail) == 0 {
		return r
	}
	if r.kind == refAnyField {
		return r
	}
	path := make([]string, 0, len(r.path)+len(tail))
	path = append(path, r.path...)
	path = append(path, tail...)
	return &ref{
		kind:    refField,
		path:    path,
		entered: r.entered,
		data:    extendExpr(r.data, tail),
		setter:  extendExpr(r.setter, tail),
	}
}

// item returns the binding for one element of the containsMany field r.
func (r *ref) item(itemVar, indexVar string) *ref {
	return &ref{
		kind:    refItem,
		path:    r.path,
		entered: len(r.path),
		data:    glimmer.NewPath(itemVar),
		setter:  getCall(r.setter, glimmer.NewPath(indexVar)),
	}
}

// extendExpr appends tail to a data or setter expression. Paths grow in
// place; anything else is wrapped in a get helper.
func extendExpr(e glimmer.Expr, tail []string) glimmer.Expr {
	if len(tail) == 0 {
		return e
	}
	if p, ok := e.(*glimmer.PathExpr); ok {
		return p.Extend(tail...)
	}
	return getCall(e, &glimmer.StringLit{Value: strings.Join(tail, ".")})
}

func getCall(target, key glimmer.Expr) *glimmer.SubExpr {
	return &glimmer.SubExpr{Call: glimmer.Call{
		Path:   glimmer.NewPath("get"),
		Params: []glimmer.Expr{glimmer.CloneExpr(target), key},
	}}
}

// lookup resolves the head of p. It returns a nil ref for paths that are
// neither @fields nor bound to a field.
func lookup(t *tracker, p *glimmer.PathExpr, ancestors []glimmer.Node) (*ref, []string, error) {
	var r *ref
	switch {
	case p.Head == "@fields":
		if len(p.Tail) == 0 {
			return nil, nil, invalidFieldsUse("@fields may only be iterated with {{#each-in @fields as |name Field|}}")
		}
		r = rootRef()
	case strings.HasPrefix(p.Head, "@") || p.Head == "this":
		return nil, nil, nil
	default:
		var ok bool
		if r, ok = t.Lookup(p.Head, ancestors); !ok {
			return nil, nil, nil
		}
	}
	for _, seg := range p.Tail {
		if seg == "" {
			return nil, nil, invalidFieldsUse("%s has an empty path segment", p)
		}
	}
	return r, p.Tail, nil
}

func isFieldsRoot(e glimmer.Expr) bool {
	p, ok := e.(*glimmer.PathExpr)
	return ok && p.Head == "@fields" && len(p.Tail) == 0
}

func pathOf(e glimmer.Expr) (*glimmer.PathExpr, bool) {
	p, ok := e.(*glimmer.PathExpr)
	return p, ok
}

// fieldElementFormat validates a field reference element and returns its
// @format override, or "" for the default nested format.
func fieldElementFormat(el *glimmer.Element) (card.Format, error) {
	var format card.Format
	for _, attr := range el.Attrs {
		if attr.Name != "@format" {
			return "", invalidFieldsUse("<%s> accepts only an @format argument, got %s", el.Tag, attr.Name)
		}
		text, ok := attr.Value.(*glimmer.Text)
		if !ok {
			return "", invalidFieldsUse("@format of <%s> must be a literal string", el.Tag)
		}
		f, err := card.ParseFormat(text.Value)
		if err != nil {
			return "", invalidFieldsUse("<%s>: %s", el.Tag, err)
		}
		format = f
	}
	if len(el.Children) > 0 || len(el.Modifiers) > 0 || len(el.BlockParams) > 0 {
		return "", invalidFieldsUse("<%s> must be used as a self-closing tag without modifiers", el.Tag)
	}
	return format, nil
}

// componentName is the local name a field's component gets in the
// generated scope, e.g. AuthorField or ItemNameField.
func componentName(r *ref, chain []*card.Field) string {
	var sb strings.Builder
	for i, seg := range r.path {
		if i < r.entered && chain[i].Kind == card.ContainsMany {
			seg = inflect.Singularize(seg)
		}
		sb.WriteString(inflect.Camelize(seg))
	}
	sb.WriteString("Field")
	return sb.String()
}

// itemVar names the block param of a generated containsMany loop.
func itemVar(field string) string {
	singular := inflect.Singularize(field)
	if singular == field {
		return inflect.CamelizeDownFirst(field) + "Item"
	}
	return inflect.CamelizeDownFirst(singular)
}
