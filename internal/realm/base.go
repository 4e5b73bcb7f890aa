package realm

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/specialistvlad/cardc/internal/card"
)

// BaseURL is the root of the bundled base realm.
const BaseURL = "https://cardstack.com/base/"

//go:embed base
var baseFS embed.FS

// Base loads the bundled base realm.
func Base(ctx context.Context) (*Memory, error) {
	sub, err := fs.Sub(baseFS, "base")
	if err != nil {
		return nil, err
	}
	m := NewMemory(BaseURL)
	if _, err := m.LoadDir(ctx, sub, "."); err != nil {
		return nil, fmt.Errorf("load base realm: %w", err)
	}
	if _, err := m.GetRawCard(ctx, card.BaseCardURL); err != nil {
		return nil, fmt.Errorf("base realm is missing %s", card.BaseCardURL)
	}
	return m, nil
}
