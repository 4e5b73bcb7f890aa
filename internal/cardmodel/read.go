package cardmodel

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/expr"
	"github.com/specialistvlad/cardc/internal/fieldpath"
)

// Get reads the value at a dotted path. Missing values read as nil.
// Synchronous computed fields without a stored value are evaluated.
func (m *Model) Get(path string) (any, error) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, err
	}
	data, err := m.Data()
	if err != nil {
		return nil, err
	}
	if p.IsRoot() {
		return data, nil
	}

	var cur any = data
	for i, seg := range p.Segments {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, nil
		}
		v, present := obj[seg.Name]
		if !present && i == 0 {
			if f, ok := m.card.Fields.Get(seg.Name); ok && f.Expression != "" {
				v, err = m.compute(f, nil)
				if err != nil {
					return nil, err
				}
			}
		}
		if seg.HasIndex() {
			list, ok := v.([]any)
			if !ok || seg.Index >= len(list) {
				return nil, nil
			}
			v = list[seg.Index]
		}
		cur = v
	}
	return cur, nil
}

// compute evaluates a computed field's expression against the data bag,
// computing the other computed fields it refers to first.
func (m *Model) compute(f *card.Field, visiting []string) (any, error) {
	if slices.Contains(visiting, f.Name) {
		return nil, fmt.Errorf("computed field %q depends on itself: %v", f.Name, append(visiting, f.Name))
	}
	visiting = append(visiting, f.Name)

	e, err := m.expression(f)
	if err != nil {
		return nil, err
	}
	data, err := m.Data()
	if err != nil {
		return nil, err
	}
	vars := make(map[string]any, len(data))
	for k, v := range data {
		vars[k] = v
	}
	for _, name := range expr.RootNames(e) {
		dep, ok := m.card.Fields.Get(name)
		if !ok {
			return nil, fmt.Errorf("computed field %q refers to unknown field %q", f.Name, name)
		}
		if _, present := vars[name]; present {
			continue
		}
		if dep.Expression != "" {
			v, err := m.compute(dep, visiting)
			if err != nil {
				return nil, err
			}
			vars[name] = v
			continue
		}
		vars[name] = nil
	}

	v, err := expr.Eval(e, vars)
	if err != nil {
		return nil, fmt.Errorf("computed field %q: %w", f.Name, err)
	}
	return v, nil
}

func (m *Model) expression(f *card.Field) (hcl.Expression, error) {
	if e, ok := m.expressions[f.Name]; ok {
		return e, nil
	}
	e, err := expr.Parse(f.Expression, f.Name)
	if err != nil {
		return nil, fmt.Errorf("computed field %q: %w", f.Name, err)
	}
	if m.expressions == nil {
		m.expressions = make(map[string]hcl.Expression)
	}
	m.expressions[f.Name] = e
	return e, nil
}
