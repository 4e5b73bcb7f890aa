// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines CompiledCard and ComponentInfo, the artifacts produced by
// the compiler.
package card

import "encoding/json"

// ComponentInfo describes the compiled component of one display format.
type ComponentInfo struct {
	ModuleRef string `json:"moduleRef"`
	// UsedFieldPaths lists every dotted data path the format reads, flattened
	// down to leaf dependencies.
	UsedFieldPaths []string `json:"usedFields"`
	// InlineTemplate is set when the component can be spliced directly into a
	// parent template.
	InlineTemplate string `json:"inlineTemplate,omitempty"`
	// SourceCardURL is the card whose template source produced the component.
	SourceCardURL string `json:"sourceCardURL"`
}

// Asset is an opaque file registered with the builder.
type Asset struct {
	Path      string `json:"path"`
	ModuleRef string `json:"moduleRef"`
}

// CompiledCard is the fully resolved artifact of one card.
type CompiledCard struct {
	URL             string
	AdoptsFrom      *CompiledCard
	Fields          *Fields
	SchemaModuleRef string
	SerializerKind  string
	Isolated        *ComponentInfo
	Embedded        *ComponentInfo
	Edit            *ComponentInfo
	Data            map[string]any
	Assets          []Asset
}

// Component returns the component of format f.
func (c *CompiledCard) Component(f Format) *ComponentInfo {
	switch f {
	case Isolated:
		return c.Isolated
	case Embedded:
		return c.Embedded
	case Edit:
		return c.Edit
	}
	return nil
}

// SetComponent stores the component of format f.
func (c *CompiledCard) SetComponent(f Format, info *ComponentInfo) {
	switch f {
	case Isolated:
		c.Isolated = info
	case Embedded:
		c.Embedded = info
	case Edit:
		c.Edit = info
	}
}

type fieldJSON struct {
	Kind       FieldKind `json:"kind"`
	Card       string    `json:"card"`
	Computed   bool      `json:"computed,omitempty"`
	ComputeVia string    `json:"computeVia,omitempty"`
}

type fieldEntryJSON struct {
	Name string `json:"name"`
	fieldJSON
}

type compiledJSON struct {
	URL             string           `json:"url"`
	AdoptsFrom      string           `json:"adoptsFrom,omitempty"`
	Fields          []fieldEntryJSON `json:"fields"`
	SchemaModuleRef string           `json:"schemaModule,omitempty"`
	SerializerKind  string           `json:"serializer,omitempty"`
	Isolated        *ComponentInfo   `json:"isolated,omitempty"`
	Embedded        *ComponentInfo   `json:"embedded,omitempty"`
	Edit            *ComponentInfo   `json:"edit,omitempty"`
	Data            map[string]any   `json:"data,omitempty"`
	Assets          []Asset          `json:"assets,omitempty"`
}

// MarshalJSON encodes the card with every nested card collapsed to its URL,
// which keeps self links and shared parents finite.
func (c *CompiledCard) MarshalJSON() ([]byte, error) {
	out := compiledJSON{
		URL:             c.URL,
		Fields:          []fieldEntryJSON{},
		SchemaModuleRef: c.SchemaModuleRef,
		SerializerKind:  c.SerializerKind,
		Isolated:        c.Isolated,
		Embedded:        c.Embedded,
		Edit:            c.Edit,
		Data:            c.Data,
		Assets:          c.Assets,
	}
	if c.AdoptsFrom != nil {
		out.AdoptsFrom = c.AdoptsFrom.URL
	}
	for _, f := range c.Fields.All() {
		entry := fieldEntryJSON{Name: f.Name, fieldJSON: fieldJSON{
			Kind:       f.Kind,
			Computed:   f.Computed,
			ComputeVia: f.ComputeVia,
		}}
		if f.Card != nil {
			entry.Card = f.Card.URL
		}
		out.Fields = append(out.Fields, entry)
	}
	return json.Marshal(out)
}
