package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrDefinition covers malformed field and parent declarations and
	// unresolved card references.
	ErrDefinition = errors.New("definition error")
	// ErrComposition covers field collisions, conflicting parents and
	// serializers, and data keys that name no field.
	ErrComposition = errors.New("composition error")
	// ErrTemplate covers invalid templates and unknown field paths in them.
	ErrTemplate = errors.New("template error")
	// ErrCycle reports a card that depends on itself.
	ErrCycle = errors.New("cycle")
)

// Error is a compile failure attributed to one card.
type Error struct {
	CardURL string
	File    string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	loc := e.CardURL
	if e.File != "" {
		loc += " (" + e.File + ")"
	}
	return fmt.Sprintf("%s: %s: %v", loc, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind, so errors.Is(err, ErrComposition) works
// without unwrapping by hand.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (c *compilation) fail(kind error, file string, err error) error {
	return &Error{CardURL: c.raw.URL, File: file, Kind: kind, Err: err}
}

func (c *compilation) failf(kind error, file, format string, args ...any) error {
	return c.fail(kind, file, fmt.Errorf(format, args...))
}
