package compiler

import (
	"slices"

	"github.com/specialistvlad/cardc/internal/card"
)

// usedFieldPaths flattens a template's usage into the leaf data paths the
// compiled component reads. A rendered field contributes the paths its own
// component reads, prefixed with the field path.
func usedFieldPaths(u card.TemplateUsage, fields *card.Fields, format card.Format) ([]string, error) {
	var out []string
	add := func(p string) {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}

	if u.ModelSelf {
		for _, name := range fields.Names() {
			add(name)
		}
	}
	for _, p := range u.Model {
		add(p)
	}

	usages := u.Fields
	if u.FieldsSelf {
		for _, name := range fields.Names() {
			usages = append(usages, card.FieldUsage{Path: name})
		}
	}
	for _, fu := range usages {
		chain, err := fields.Resolve(fu.Path)
		if err != nil {
			return nil, err
		}
		field := chain[len(chain)-1]
		nested := fu.Format
		if nested == "" {
			nested = format.NestedFor(field.Kind)
		}
		var inner []string
		if field.Card != nil {
			if comp := field.Card.Component(nested); comp != nil {
				inner = comp.UsedFieldPaths
			}
		}
		if len(inner) == 0 {
			add(fu.Path)
			continue
		}
		for _, p := range inner {
			add(fu.Path + "." + p)
		}
	}
	return out, nil
}
