// Package compiler turns a raw card definition into a compiled card.
//
// A compile runs the schema analyzer on the card's own schema, resolves every
// referenced card and the parent through a Builder, merges the field sets,
// registers assets, and compiles one component per format. Generated schema
// and component modules are handed to Builder.Define, which returns the
// opaque module references recorded in the compiled card.
//
// Errors are *Error values carrying the card URL, the file at fault and one
// of the kinds ErrDefinition, ErrComposition, ErrTemplate or ErrCycle. A card
// either compiles fully or not at all.
package compiler
