package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cardc/internal/card"
)

// Definition is what the analyzer learns from one schema file.
type Definition struct {
	// CardName is the label of the card block.
	CardName string
	// Fields are the card's own fields in declaration order.
	Fields []Field
	// Parent is set when the card carries an adopts decorator.
	Parent *Reference
	// Serializer is the declared serializer kind, if any.
	Serializer string
	// SerializerRange locates the serializer attribute when present.
	SerializerRange hcl.Range
	// Imports are the file's import blocks in source order.
	Imports []Import
}

// Field is a declared field together with the range that declared it.
type Field struct {
	card.FieldMeta
	Range hcl.Range
}

// Reference is a resolved card reference.
type Reference struct {
	CardURL string
	Range   hcl.Range
}

// Import is a resolved import block.
type Import struct {
	Name   string
	From   string
	Export string
	// URL is From resolved against the card's own URL.
	URL   string
	Range hcl.Range
}

// Metas returns the field metadata without source ranges.
func (d *Definition) Metas() []card.FieldMeta {
	out := make([]card.FieldMeta, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.FieldMeta
	}
	return out
}

// Field returns the declared field with the given name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CardRefs returns every card URL the definition depends on: the parent
// first, then field targets in declaration order, without duplicates and
// without the card's own URL.
func (d *Definition) CardRefs(self string) []string {
	seen := map[string]bool{self: true}
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	if d.Parent != nil {
		add(d.Parent.CardURL)
	}
	for _, f := range d.Fields {
		add(f.CardURL)
	}
	return out
}
