// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package card

import (
	"fmt"
	"net/url"
)

// ResolveURL resolves ref against the card URL base, so "./person" next to
// "https://example.com/cards/post" becomes "https://example.com/cards/person".
// Absolute refs are returned unchanged.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid card URL %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid card reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
