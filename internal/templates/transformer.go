package templates

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/glimmer"
	"github.com/specialistvlad/cardc/internal/scope"
)

// ImportFunc registers a component module under a local name and returns
// the name actually used, which may differ from desired on a clash.
type ImportFunc func(desired, moduleRef string) (string, error)

// Options configure Transform.
type Options struct {
	// CardURL is the card the template is compiled for.
	CardURL string
	// Fields is the card's merged field set.
	Fields *card.Fields
	// Format is the format the template is compiled for. Nested fields
	// default to Format.NestedFor(kind).
	Format card.Format
	// Import registers component modules. When nil, names are allocated
	// locally.
	Import ImportFunc
}

// Result is a rewritten template and the scope it needs.
type Result struct {
	Source       string
	Imports      []Import
	UsesOwnScope bool
}

type transformer struct {
	cardURL   string
	fields    *card.Fields
	format    card.Format
	inline    bool
	importFn  ImportFunc
	scope     *tracker
	ancestors []glimmer.Node
	imports   []Import
	local     *Imports
}

// Transform rewrites every field reference in src into a component
// invocation or an inlined template. Transforming its own output again
// yields the same source.
func Transform(src string, opts Options) (*Result, error) {
	tpl, err := glimmer.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	own, extended, err := scopeComment(tpl)
	if err != nil {
		return nil, err
	}

	t := &transformer{
		cardURL:  opts.CardURL,
		fields:   opts.Fields,
		format:   opts.Format,
		inline:   !extended,
		importFn: opts.Import,
		scope:    newTracker(),
		local:    NewImports(),
	}
	for _, imp := range own {
		name, err := t.register(imp.Name, imp.ModuleRef)
		if err != nil {
			return nil, err
		}
		if name != imp.Name {
			return nil, fmt.Errorf("scope name %q is already taken by another module", imp.Name)
		}
	}

	body, err := t.nodes(tpl.Body)
	if err != nil {
		return nil, err
	}
	return &Result{Source: glimmer.Print(body), Imports: t.imports, UsesOwnScope: extended}, nil
}

func (t *transformer) register(desired, moduleRef string) (string, error) {
	var (
		name string
		err  error
	)
	if t.importFn != nil {
		name, err = t.importFn(desired, moduleRef)
		if err != nil {
			return "", err
		}
	} else {
		name = t.local.Add(desired, moduleRef)
	}
	for _, imp := range t.imports {
		if imp.Name == name {
			return name, nil
		}
	}
	t.imports = append(t.imports, Import{Name: name, ModuleRef: moduleRef})
	return name, nil
}

func (t *transformer) nodes(nodes []glimmer.Node) ([]glimmer.Node, error) {
	out := make([]glimmer.Node, 0, len(nodes))
	for _, n := range nodes {
		rewritten, err := t.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten...)
	}
	return out, nil
}

func (t *transformer) node(n glimmer.Node) ([]glimmer.Node, error) {
	switch n := n.(type) {
	case *glimmer.Mustache:
		return t.mustache(n)
	case *glimmer.Block:
		return t.block(n)
	case *glimmer.Element:
		return t.element(n)
	case *glimmer.Fragment:
		t.ancestors = append(t.ancestors, n)
		defer func() { t.ancestors = t.ancestors[:len(t.ancestors)-1] }()
		body, err := t.nodes(n.Body)
		if err != nil {
			return nil, err
		}
		n.Body = body
	}
	return []glimmer.Node{n}, nil
}

// scoped transforms body inside a new scope declaring params, with owner on
// the ancestor path.
func (t *transformer) scoped(owner glimmer.Node, params []string, body []glimmer.Node) ([]glimmer.Node, error) {
	t.ancestors = append(t.ancestors, owner)
	t.scope.Push(params...)
	defer func() {
		t.scope.Pop()
		t.ancestors = t.ancestors[:len(t.ancestors)-1]
	}()
	return t.nodes(body)
}

func (t *transformer) lookup(p *glimmer.PathExpr) (*ref, []string, error) {
	return lookup(t.scope, p, t.ancestors)
}

func (t *transformer) mustache(m *glimmer.Mustache) ([]glimmer.Node, error) {
	if p, ok := pathOf(m.Path); ok && len(m.Params) == 0 && len(m.Hash) == 0 {
		base, tail, err := t.lookup(p)
		if err != nil {
			return nil, err
		}
		if base != nil {
			switch base.kind {
			case refName:
				if len(tail) > 0 {
					return nil, invalidFieldsUse("%s: a field name has no properties", p)
				}
				return []glimmer.Node{&glimmer.Text{Value: base.name}}, nil
			case refItem:
				return []glimmer.Node{m}, nil
			default:
				return t.render(base.extend(tail), "")
			}
		}
	}
	if err := t.call(&m.Call); err != nil {
		return nil, err
	}
	return []glimmer.Node{m}, nil
}

func (t *transformer) element(el *glimmer.Element) ([]glimmer.Node, error) {
	base, tail, err := t.lookup(glimmer.ParsePath(el.Tag))
	if err != nil {
		return nil, err
	}
	if base != nil {
		if base.kind == refName {
			return nil, invalidFieldsUse("<%s> is a field name, not a component", el.Tag)
		}
		format, err := fieldElementFormat(el)
		if err != nil {
			return nil, err
		}
		return t.render(base.extend(tail), format)
	}

	for _, attr := range el.Attrs {
		if attr.Value == nil {
			continue
		}
		v, err := t.attrValue(attr.Value)
		if err != nil {
			return nil, err
		}
		attr.Value = v
	}
	for _, m := range el.Modifiers {
		if err := t.call(&m.Call); err != nil {
			return nil, err
		}
	}
	children, err := t.scoped(el, el.BlockParams, el.Children)
	if err != nil {
		return nil, err
	}
	el.Children = children
	return []glimmer.Node{el}, nil
}

func (t *transformer) attrValue(v glimmer.Node) (glimmer.Node, error) {
	switch v := v.(type) {
	case *glimmer.Mustache:
		if name, ok := t.nameLiteral(v); ok {
			return &glimmer.Text{Value: name}, nil
		}
		return v, t.call(&v.Call)
	case *glimmer.Concat:
		for i, part := range v.Parts {
			m, ok := part.(*glimmer.Mustache)
			if !ok {
				continue
			}
			if name, ok := t.nameLiteral(m); ok {
				v.Parts[i] = &glimmer.Text{Value: name}
				continue
			}
			if err := t.call(&m.Call); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// nameLiteral reports whether m is {{name}} for an each-in name binding.
func (t *transformer) nameLiteral(m *glimmer.Mustache) (string, bool) {
	p, ok := pathOf(m.Path)
	if !ok || len(p.Tail) > 0 || len(m.Params) > 0 || len(m.Hash) > 0 {
		return "", false
	}
	r, ok := t.scope.Lookup(p.Head, t.ancestors)
	if !ok || r.kind != refName {
		return "", false
	}
	return r.name, true
}

func (t *transformer) block(b *glimmer.Block) ([]glimmer.Node, error) {
	switch b.HeadName() {
	case "each-in":
		if len(b.Params) == 1 && isFieldsRoot(b.Params[0]) {
			return t.unroll(b)
		}
	case "each":
		if len(b.Params) > 0 {
			if p, ok := pathOf(b.Params[0]); ok {
				base, tail, err := t.lookup(p)
				if err != nil {
					return nil, err
				}
				if base != nil && base.kind != refName && !(base.kind == refItem && len(tail) == 0) {
					nodes, handled, err := t.iterate(b, base, tail)
					if handled || err != nil {
						return nodes, err
					}
				}
			}
		}
	}

	if err := t.call(&b.Call); err != nil {
		return nil, err
	}
	return t.blockBodies(b, b.BlockParams)
}

func (t *transformer) blockBodies(b *glimmer.Block, params []string) ([]glimmer.Node, error) {
	program, err := t.scoped(b, params, b.Program)
	if err != nil {
		return nil, err
	}
	inverse, err := t.scoped(b, nil, b.Inverse)
	if err != nil {
		return nil, err
	}
	b.Program, b.Inverse = program, inverse
	return []glimmer.Node{b}, nil
}

// unroll replaces {{#each-in @fields as |name Field|}} with one copy of its
// body per merged field, each copy binding name and Field for its subtree.
func (t *transformer) unroll(b *glimmer.Block) ([]glimmer.Node, error) {
	if len(b.BlockParams) != 2 {
		return nil, invalidFieldsUse("{{#each-in @fields}} needs two block params: as |name Field|")
	}
	fields := t.fields.All()
	if len(fields) == 0 {
		return t.scoped(b, nil, b.Inverse)
	}

	frag := &glimmer.Fragment{}
	next := scope.OnNextScope[glimmer.Node]()
	for _, f := range fields {
		clone := &glimmer.Fragment{Body: glimmer.CloneNodes(b.Program)}
		inside := scope.Inside[glimmer.Node](clone)
		t.scope.Assign(b.BlockParams[0], &ref{kind: refName, name: f.Name}, inside, next)
		t.scope.Assign(b.BlockParams[1], rootRef().extend([]string{f.Name}), inside, next)
		frag.Body = append(frag.Body, clone)
	}
	body, err := t.scoped(frag, b.BlockParams, frag.Body)
	if err != nil {
		return nil, err
	}
	frag.Body = body
	return []glimmer.Node{frag}, nil
}

// iterate handles {{#each}} over a field path. It reports false when the
// path turns out to be plain data reached through an item.
func (t *transformer) iterate(b *glimmer.Block, base *ref, tail []string) ([]glimmer.Node, bool, error) {
	target := base.extend(tail)
	chain, err := t.resolve(target)
	if err != nil {
		return nil, true, err
	}
	field := chain[len(chain)-1]
	if field.Kind != card.ContainsMany {
		if base.kind == refItem {
			return nil, false, nil
		}
		return nil, true, invalidFieldsUse("{{#each %s}}: %q is a %s field, only containsMany fields can be iterated", glimmer.PrintExpr(b.Params[0]), field.Name, field.Kind)
	}
	if len(b.BlockParams) == 0 {
		return nil, true, invalidFieldsUse("{{#each %s}} needs a block param for the item", glimmer.PrintExpr(b.Params[0]))
	}

	params := b.BlockParams
	if len(params) < 2 {
		params = append(params, params[0]+"Index")
		if t.format == card.Edit {
			b.BlockParams = params
		}
	}
	b.Params[0] = glimmer.CloneExpr(target.data)
	for i := 1; i < len(b.Params); i++ {
		e, err := t.expr(b.Params[i])
		if err != nil {
			return nil, true, err
		}
		b.Params[i] = e
	}
	for i := range b.Hash {
		e, err := t.expr(b.Hash[i].Value)
		if err != nil {
			return nil, true, err
		}
		b.Hash[i].Value = e
	}

	t.scope.Assign(params[0], target.item(params[0], params[1]), scope.OnNextScope[glimmer.Node]())
	nodes, err := t.blockBodies(b, b.BlockParams)
	return nodes, true, err
}

func (t *transformer) resolve(target *ref) ([]*card.Field, error) {
	chain, err := t.fields.Resolve(target.pathString())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.TrimPrefix(err.Error(), "unknown field "))
	}
	for i := target.entered; i < len(chain)-1; i++ {
		if chain[i].Kind == card.ContainsMany {
			return nil, invalidFieldsUse("%s is a containsMany field; iterate it with {{#each @fields.%s}} to reach %s",
				chain[i].Name, strings.Join(target.path[:i+1], "."), target.pathString())
		}
	}
	return chain, nil
}

// render replaces a field reference. containsMany fields expand into a loop
// rendering one component per item.
func (t *transformer) render(target *ref, format card.Format) ([]glimmer.Node, error) {
	chain, err := t.resolve(target)
	if err != nil {
		return nil, err
	}
	field := chain[len(chain)-1]
	if format == card.Edit && t.format != card.Edit {
		// Only edit components receive @set.
		return nil, invalidFieldsUse("%s: @format=\"edit\" is only allowed in edit templates", target.pathString())
	}
	if format == "" {
		format = t.format.NestedFor(field.Kind)
	}
	if field.Kind == card.ContainsMany && target.kind != refItem {
		return t.expand(target, chain, format)
	}
	return t.invoke(target, chain, format)
}

func (t *transformer) expand(target *ref, chain []*card.Field, format card.Format) ([]glimmer.Node, error) {
	item := itemVar(target.path[len(target.path)-1])
	index := item + "Index"
	inner, err := t.invoke(target.item(item, index), chain, format)
	if err != nil {
		return nil, err
	}
	params := []string{item}
	if t.format == card.Edit {
		params = append(params, index)
	}
	return []glimmer.Node{&glimmer.Block{
		Call: glimmer.Call{
			Path:   glimmer.NewPath("each"),
			Params: []glimmer.Expr{glimmer.CloneExpr(target.data)},
		},
		BlockParams: params,
		Program:     inner,
	}}, nil
}

func (t *transformer) invoke(target *ref, chain []*card.Field, format card.Format) ([]glimmer.Node, error) {
	field := chain[len(chain)-1]
	if field.Card == nil {
		return nil, fmt.Errorf("field %q has no compiled card", target.pathString())
	}
	comp := field.Card.Component(format)
	if comp == nil && t.cardURL != "" && field.Card.URL == t.cardURL {
		return nil, fmt.Errorf("%w: field %q links to %s, whose %s component does not exist while its %s template compiles",
			ErrSelfRender, target.pathString(), field.Card.URL, format, t.format)
	}
	if comp == nil {
		return nil, fmt.Errorf("card %s has no %s component for field %q", field.Card.URL, format, target.pathString())
	}

	if t.inline && comp.InlineTemplate != "" {
		return inlineTemplate(comp.InlineTemplate, target.data, target.setter)
	}

	name, err := t.register(componentName(target, chain), comp.ModuleRef)
	if err != nil {
		return nil, err
	}
	el := &glimmer.Element{
		Tag:         name,
		SelfClosing: true,
		Attrs: []*glimmer.Attr{{
			Name:  "@model",
			Value: valueMustache(target.data),
		}},
	}
	if t.format == card.Edit {
		el.Attrs = append(el.Attrs, &glimmer.Attr{
			Name:  "@set",
			Value: valueMustache(target.setter),
		})
	}
	return []glimmer.Node{el}, nil
}

// valueMustache renders e as an attribute value. Helper calls are written
// without the subexpression parens.
func valueMustache(e glimmer.Expr) *glimmer.Mustache {
	if sub, ok := e.(*glimmer.SubExpr); ok {
		clone := glimmer.CloneExpr(sub).(*glimmer.SubExpr)
		return &glimmer.Mustache{Call: clone.Call}
	}
	return &glimmer.Mustache{Call: glimmer.Call{Path: glimmer.CloneExpr(e)}}
}

// inlineTemplate splices a child's template, rebasing @model onto data and
// @set onto setter.
func inlineTemplate(src string, data, setter glimmer.Expr) ([]glimmer.Node, error) {
	tpl, err := glimmer.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse inline template: %w", err)
	}
	glimmer.RewriteExprs(tpl.Body, func(e glimmer.Expr) glimmer.Expr {
		p, ok := e.(*glimmer.PathExpr)
		if !ok {
			return e
		}
		switch p.Head {
		case "@model":
			return extendExpr(glimmer.CloneExpr(data), p.Tail)
		case "@set":
			tail := p.Tail
			if len(tail) > 0 && tail[0] == "setters" {
				tail = tail[1:]
			}
			return extendExpr(glimmer.CloneExpr(setter), tail)
		}
		return e
	})
	return tpl.Body, nil
}

func (t *transformer) call(c *glimmer.Call) error {
	e, err := t.expr(c.Path)
	if err != nil {
		return err
	}
	c.Path = e
	for i, p := range c.Params {
		if c.Params[i], err = t.expr(p); err != nil {
			return err
		}
	}
	for i := range c.Hash {
		if c.Hash[i].Value, err = t.expr(c.Hash[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func (t *transformer) expr(e glimmer.Expr) (glimmer.Expr, error) {
	switch e := e.(type) {
	case *glimmer.PathExpr:
		base, tail, err := t.lookup(e)
		if err != nil {
			return nil, err
		}
		if base == nil {
			return e, nil
		}
		switch base.kind {
		case refName:
			if len(tail) > 0 {
				return nil, invalidFieldsUse("%s: a field name has no properties", e)
			}
			return &glimmer.StringLit{Value: base.name}, nil
		case refItem:
			return e, nil
		default:
			return nil, invalidFieldsUse("%s is a field component and cannot be used as a value", e)
		}
	case *glimmer.SubExpr:
		return e, t.call(&e.Call)
	}
	return e, nil
}
