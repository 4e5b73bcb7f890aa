// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the display formats a card is compiled for.
package card

import "fmt"

// Format is a named display mode with its own template and compiled component.
type Format string

const (
	Isolated Format = "isolated"
	Embedded Format = "embedded"
	Edit     Format = "edit"
)

// Formats lists every display format in canonical order.
var Formats = []Format{Isolated, Embedded, Edit}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case Isolated, Embedded, Edit:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q: must be one of isolated, embedded, edit", s)
	}
}

// NestedDefault returns the format used to render fields nested inside a
// template of format f.
func (f Format) NestedDefault() Format {
	if f == Edit {
		return Edit
	}
	return Embedded
}

// NestedFor returns the format used to render a field of the given kind
// inside a template of format f. Linked cards are separate documents, so
// they are always shown embedded.
func (f Format) NestedFor(kind FieldKind) Format {
	if kind == LinksTo {
		return Embedded
	}
	return f.NestedDefault()
}

// String implements fmt.Stringer.
func (f Format) String() string { return string(f) }
