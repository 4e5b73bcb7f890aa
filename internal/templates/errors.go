package templates

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFieldsUse reports a reference to @fields or a field binding
	// in a position where no field component can be rendered.
	ErrInvalidFieldsUse = errors.New("invalid use of fields API")
	// ErrUnknownField reports a field path that does not resolve against
	// the card's fields.
	ErrUnknownField = errors.New("unknown field")
	// ErrSelfRender reports a field linking back to the card being compiled
	// rendered in a format that card has not compiled yet.
	ErrSelfRender = errors.New("card renders itself before it is compiled")
)

func invalidFieldsUse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFieldsUse, fmt.Sprintf(format, args...))
}
