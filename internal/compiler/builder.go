package compiler

import (
	"context"

	"github.com/specialistvlad/cardc/internal/card"
)

// Module types passed to Builder.Define for generated modules. Assets are
// defined with their MIME type instead.
const (
	TypeSchema    = "schema"
	TypeComponent = "component"
)

// Builder resolves cards and registers modules for the compiler.
type Builder interface {
	// GetRawCard returns the definition stored at url.
	GetRawCard(ctx context.Context, url string) (*card.RawCard, error)
	// GetCompiledCard returns the compiled card at url, compiling it when
	// needed. Implementations memoize and pass ctx through to Compile so
	// cycles are detected.
	GetCompiledCard(ctx context.Context, url string) (*card.CompiledCard, error)
	// Define registers a module for cardURL and returns its stable
	// reference.
	Define(ctx context.Context, cardURL, localPath, contentType, source string) (string, error)
}
