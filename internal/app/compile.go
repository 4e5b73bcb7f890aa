package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/afero"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/compiler"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/dag"
	"github.com/specialistvlad/cardc/internal/schema"
)

// ManifestName is the file CompileAll writes the compiled cards to.
const ManifestName = "cards.json"

// Result summarizes a realm-wide compile.
type Result struct {
	// Order is the order cards were compiled in.
	Order []string
	// Cards holds every card that compiled, in Order.
	Cards []*card.CompiledCard
	// Modules is the number of modules in the registry afterwards.
	Modules int
	// Written is the number of files written to the output directory.
	Written int
}

// Run compiles the whole realm and writes the output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	res, err := a.CompileAll(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Realm compiled.", "realm", a.realm.URL(), "cards", len(res.Cards), "modules", res.Modules, "written", res.Written)
	return nil
}

// CompileAll compiles every card of the realm after the cards it depends on.
// Cycles between cards of the realm fail the whole run before anything is
// compiled. Individual compile failures are collected; the registry is only
// validated and written when every card compiled.
func (a *App) CompileAll(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	g, err := a.dependencyGraph(ctx)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", compiler.ErrCycle, err)
	}
	logger.Debug("Compile order determined.", "cards", len(order))

	res := &Result{Order: order}
	var failures []error
	for _, u := range order {
		compiled, err := a.builder.GetCompiledCard(ctx, u)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		res.Cards = append(res.Cards, compiled)
	}
	if len(failures) > 0 {
		logger.Debug("Cards failed to compile.", "failed", len(failures))
		return res, errors.Join(failures...)
	}

	if err := a.registry.Validate(ctx); err != nil {
		return res, err
	}
	res.Modules = a.registry.Len()

	if a.config.OutDir != "" {
		n, err := a.writeOutput(ctx, res.Cards)
		if err != nil {
			return res, err
		}
		res.Written = n
	}
	return res, nil
}

// dependencyGraph links every card of the realm to the realm cards it adopts
// from or holds as fields. Cards of other realms are compiled on demand and
// stay out of the graph.
func (a *App) dependencyGraph(ctx context.Context) (*dag.Graph, error) {
	g := dag.New()
	urls := a.realm.URLs()
	for _, u := range urls {
		g.AddNode(u)
	}
	for _, u := range urls {
		deps, err := a.dependencies(ctx, u)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if dep == u || !g.Has(dep) {
				continue
			}
			if err := g.AddEdge(dep, u); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// dependencies returns the parent and field card URLs of one card. A schema
// that does not analyze contributes nothing; compiling the card reports it.
func (a *App) dependencies(ctx context.Context, cardURL string) ([]string, error) {
	raw, err := a.realm.GetRawCard(ctx, cardURL)
	if err != nil {
		return nil, err
	}
	var deps []string
	if raw.AdoptsFrom != "" {
		if parent, err := card.ResolveURL(cardURL, raw.AdoptsFrom); err == nil {
			deps = append(deps, parent)
		}
	}
	if raw.Schema == "" {
		return deps, nil
	}
	src, ok := raw.Files.Get(raw.Schema)
	if !ok {
		return deps, nil
	}
	def, diags := schema.Analyze(ctx, cardURL, raw.Schema, []byte(src))
	if diags.HasErrors() {
		return deps, nil
	}
	return append(deps, def.CardRefs(cardURL)...), nil
}

func (a *App) writeOutput(ctx context.Context, cards []*card.CompiledCard) (int, error) {
	logger := ctxlog.FromContext(ctx)
	if err := a.fs.MkdirAll(a.config.OutDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	n, err := a.registry.WriteDir(ctx, a.fs, a.config.OutDir)
	if err != nil {
		return n, err
	}

	manifest, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return n, fmt.Errorf("encode %s: %w", ManifestName, err)
	}
	target := path.Join(a.config.OutDir, ManifestName)
	if err := afero.WriteFile(a.fs, target, manifest, 0o644); err != nil {
		return n, fmt.Errorf("write %s: %w", ManifestName, err)
	}
	logger.Debug("Wrote compiled output.", "path", a.config.OutDir, "modules", n)
	return n + 1, nil
}
