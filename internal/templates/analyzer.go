package templates

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/glimmer"
	"github.com/specialistvlad/cardc/internal/scope"
)

// Analysis is what a template reads.
type Analysis struct {
	Usage  card.TemplateUsage
	Source string
	// UsesOwnScope is set when the template extends its component scope
	// with a leading scope comment.
	UsesOwnScope bool
	Scope        []Import
}

type analyzer struct {
	scope *tracker
	usage card.TemplateUsage
}

// Analyze parses src and records its field and model usage.
func Analyze(src string) (*Analysis, error) {
	tpl, err := glimmer.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	imports, own, err := scopeComment(tpl)
	if err != nil {
		return nil, err
	}

	a := &analyzer{scope: newTracker()}
	if err := a.nodes(tpl.Body); err != nil {
		return nil, err
	}
	return &Analysis{
		Usage:        a.usage,
		Source:       src,
		UsesOwnScope: own,
		Scope:        imports,
	}, nil
}

func (a *analyzer) nodes(nodes []glimmer.Node) error {
	for _, n := range nodes {
		if err := a.node(n); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) node(n glimmer.Node) error {
	switch n := n.(type) {
	case *glimmer.Mustache:
		return a.mustache(n)
	case *glimmer.Block:
		return a.block(n)
	case *glimmer.Element:
		return a.element(n)
	case *glimmer.Concat:
		return a.nodes(n.Parts)
	case *glimmer.Fragment:
		return a.nodes(n.Body)
	}
	return nil
}

func (a *analyzer) scoped(params []string, body []glimmer.Node) error {
	a.scope.Push(params...)
	defer a.scope.Pop()
	return a.nodes(body)
}

func (a *analyzer) mustache(m *glimmer.Mustache) error {
	if p, ok := pathOf(m.Path); ok && len(m.Params) == 0 && len(m.Hash) == 0 {
		base, tail, err := lookup(a.scope, p, nil)
		if err != nil {
			return err
		}
		if base != nil {
			switch base.kind {
			case refItem:
				a.usage.AddModel(base.extendData(tail))
			case refField:
				a.usage.AddField(base.extend(tail).pathString(), "")
			}
			return nil
		}
	}
	return a.call(&m.Call)
}

func (a *analyzer) element(el *glimmer.Element) error {
	base, tail, err := lookup(a.scope, glimmer.ParsePath(el.Tag), nil)
	if err != nil {
		return err
	}
	if base != nil {
		if base.kind == refName {
			return invalidFieldsUse("<%s> is a field name, not a component", el.Tag)
		}
		format, err := fieldElementFormat(el)
		if err != nil {
			return err
		}
		if base.kind != refAnyField {
			a.usage.AddField(base.extend(tail).pathString(), format)
		}
		return nil
	}

	for _, attr := range el.Attrs {
		if attr.Value != nil {
			if err := a.node(attr.Value); err != nil {
				return err
			}
		}
	}
	for _, m := range el.Modifiers {
		if err := a.call(&m.Call); err != nil {
			return err
		}
	}
	return a.scoped(el.BlockParams, el.Children)
}

func (a *analyzer) block(b *glimmer.Block) error {
	switch b.HeadName() {
	case "each-in":
		if len(b.Params) == 1 && isFieldsRoot(b.Params[0]) {
			return a.eachField(b)
		}
	case "each":
		if len(b.Params) > 0 {
			if p, ok := pathOf(b.Params[0]); ok {
				base, tail, err := lookup(a.scope, p, nil)
				if err != nil {
					return err
				}
				if base != nil && base.kind != refName && !(base.kind == refItem && len(tail) == 0) {
					return a.eachItem(b, base.extend(tail))
				}
			}
		}
	}

	if err := a.call(&b.Call); err != nil {
		return err
	}
	if err := a.scoped(b.BlockParams, b.Program); err != nil {
		return err
	}
	return a.scoped(nil, b.Inverse)
}

func (a *analyzer) eachField(b *glimmer.Block) error {
	if len(b.BlockParams) != 2 {
		return invalidFieldsUse("{{#each-in @fields}} needs two block params: as |name Field|")
	}
	a.usage.FieldsSelf = true
	next := scope.OnNextScope[glimmer.Node]()
	a.scope.Assign(b.BlockParams[0], &ref{kind: refName}, next)
	a.scope.Assign(b.BlockParams[1], &ref{kind: refAnyField}, next)
	if err := a.scoped(b.BlockParams, b.Program); err != nil {
		return err
	}
	return a.scoped(nil, b.Inverse)
}

func (a *analyzer) eachItem(b *glimmer.Block, target *ref) error {
	if len(b.BlockParams) == 0 {
		return invalidFieldsUse("{{#each %s}} needs a block param for the item", glimmer.PrintExpr(b.Params[0]))
	}
	for _, p := range b.Params[1:] {
		if err := a.expr(p); err != nil {
			return err
		}
	}
	for _, pair := range b.Hash {
		if err := a.expr(pair.Value); err != nil {
			return err
		}
	}
	if target.kind == refAnyField {
		a.scope.Assign(b.BlockParams[0], target, scope.OnNextScope[glimmer.Node]())
	} else {
		a.scope.Assign(b.BlockParams[0], target.item(b.BlockParams[0], ""), scope.OnNextScope[glimmer.Node]())
	}
	if err := a.scoped(b.BlockParams, b.Program); err != nil {
		return err
	}
	return a.scoped(nil, b.Inverse)
}

func (a *analyzer) call(c *glimmer.Call) error {
	if err := a.expr(c.Path); err != nil {
		return err
	}
	for _, p := range c.Params {
		if err := a.expr(p); err != nil {
			return err
		}
	}
	for _, pair := range c.Hash {
		if err := a.expr(pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) expr(e glimmer.Expr) error {
	switch e := e.(type) {
	case *glimmer.PathExpr:
		if e.Head == "@model" {
			if len(e.Tail) == 0 {
				a.usage.ModelSelf = true
			} else {
				a.usage.AddModel(strings.Join(e.Tail, "."))
			}
			return nil
		}
		base, tail, err := lookup(a.scope, e, nil)
		if err != nil {
			return err
		}
		if base == nil {
			return nil
		}
		switch base.kind {
		case refItem:
			a.usage.AddModel(base.extendData(tail))
		case refField, refAnyField:
			return invalidFieldsUse("%s is a field component and cannot be used as a value", e)
		}
	case *glimmer.SubExpr:
		return a.call(&e.Call)
	}
	return nil
}
