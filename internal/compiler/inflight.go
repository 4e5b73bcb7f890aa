package compiler

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type inFlightKey struct{}

// InFlight returns the chain of card URLs being compiled on this call path,
// outermost first.
func InFlight(ctx context.Context) []string {
	chain, _ := ctx.Value(inFlightKey{}).([]string)
	return chain
}

// WithInFlight records that url is being compiled. It fails with ErrCycle
// when url is already on the chain.
func WithInFlight(ctx context.Context, url string) (context.Context, error) {
	chain := InFlight(ctx)
	if i := slices.Index(chain, url); i >= 0 {
		cycle := append(slices.Clone(chain[i:]), url)
		return ctx, &Error{
			CardURL: url,
			Kind:    ErrCycle,
			Err:     fmt.Errorf("%s depends on itself: %s", url, strings.Join(cycle, " -> ")),
		}
	}
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, inFlightKey{}, append(next, url)), nil
}
