// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines fields, both as declared (FieldMeta) and as resolved
// inside a compiled card (Field).
//
// Why keep declaration order?
//
// Templates can iterate over all fields of a card. The rendered order must be
// stable across compiles so the output is reproducible, and it must put the
// inherited fields first because that is how authors read an adoption chain.
// Fields therefore remembers insertion order next to the name index.
package card

import (
	"fmt"
	"strings"
)

// FieldKind is the declared capability of a field.
type FieldKind string

const (
	// Contains holds a single nested card value.
	Contains FieldKind = "contains"
	// ContainsMany holds an ordered sequence of nested card values.
	ContainsMany FieldKind = "containsMany"
	// LinksTo references another persisted card.
	LinksTo FieldKind = "linksTo"
)

// ParseFieldKind maps a construct name to its kind.
func ParseFieldKind(name string) (FieldKind, bool) {
	switch FieldKind(name) {
	case Contains, ContainsMany, LinksTo:
		return FieldKind(name), true
	}
	return "", false
}

// FieldMeta is produced by the schema analyzer for every declared field.
// ComputeVia implies Computed.
type FieldMeta struct {
	Name       string
	CardURL    string
	Kind       FieldKind
	Computed   bool
	ComputeVia string
	// Expression is the body of a synchronous computed method, if any.
	Expression string
}

// Field is a resolved field of a compiled card.
type Field struct {
	Name       string
	Kind       FieldKind
	Computed   bool
	ComputeVia string
	Expression string
	Card       *CompiledCard
}

// Fields is an insertion-ordered set of fields keyed by name.
type Fields struct {
	order  []string
	byName map[string]*Field
}

// NewFields creates an empty field set.
func NewFields() *Fields {
	return &Fields{byName: make(map[string]*Field)}
}

// Add appends a field. Adding a name twice is an error.
func (fs *Fields) Add(f *Field) error {
	if _, ok := fs.byName[f.Name]; ok {
		return fmt.Errorf("duplicate field %q", f.Name)
	}
	fs.order = append(fs.order, f.Name)
	fs.byName[f.Name] = f
	return nil
}

// Get returns the field with the given name.
func (fs *Fields) Get(name string) (*Field, bool) {
	if fs == nil {
		return nil, false
	}
	f, ok := fs.byName[name]
	return f, ok
}

// Names returns field names in insertion order.
func (fs *Fields) Names() []string {
	if fs == nil {
		return nil
	}
	out := make([]string, len(fs.order))
	copy(out, fs.order)
	return out
}

// All returns the fields in insertion order.
func (fs *Fields) All() []*Field {
	if fs == nil {
		return nil
	}
	out := make([]*Field, 0, len(fs.order))
	for _, name := range fs.order {
		out = append(out, fs.byName[name])
	}
	return out
}

// Len reports the number of fields.
func (fs *Fields) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.order)
}

// Resolve walks a dotted field path through nested cards and returns the
// chain of fields visited, outermost first.
func (fs *Fields) Resolve(path string) ([]*Field, error) {
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}
	var chain []*Field
	current := fs
	for i, segment := range strings.Split(path, ".") {
		f, ok := current.Get(segment)
		if !ok {
			if i == 0 {
				return nil, fmt.Errorf("unknown field %q", segment)
			}
			return nil, fmt.Errorf("unknown field %q in %q", segment, strings.Join(strings.Split(path, ".")[:i], "."))
		}
		chain = append(chain, f)
		if f.Card == nil {
			current = nil
			continue
		}
		current = f.Card.Fields
	}
	return chain, nil
}
