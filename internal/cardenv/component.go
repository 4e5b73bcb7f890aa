package cardenv

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/cardmodel"
	"github.com/specialistvlad/cardc/internal/ctxlog"
)

// Component is everything a host needs to render a model: the compiled
// component module, the host's own inner component and the values of every
// field the component reads.
type Component struct {
	ModuleRef string
	Inner     string
	Format    card.Format
	Model     *cardmodel.Model
	// Values maps each used field path to its current value.
	Values map[string]any
	// Set is the root setter, present in the edit format only.
	Set *cardmodel.Setter
}

// PrepareComponent binds m to the compiled component of its format and
// wraps inner, the host-provided component that renders it.
func (e *Env) PrepareComponent(ctx context.Context, m *cardmodel.Model, inner string) (*Component, error) {
	info := m.Card().Component(m.Format())
	if info == nil {
		return nil, fmt.Errorf("card %s has no %s component", m.Card().URL, m.Format())
	}

	values := make(map[string]any, len(info.UsedFieldPaths))
	for _, path := range info.UsedFieldPaths {
		v, err := m.Get(path)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: field %q: %w", m.Card().URL, path, err)
		}
		values[path] = v
	}

	c := &Component{
		ModuleRef: info.ModuleRef,
		Inner:     inner,
		Format:    m.Format(),
		Model:     m,
		Values:    values,
	}
	if m.Format() == card.Edit {
		set := m.Setters()
		c.Set = &set
	}
	ctxlog.FromContext(ctx).Debug("Prepared component.", "card", m.Card().URL, "format", m.Format(), "module", info.ModuleRef)
	return c, nil
}
