package compiler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"path"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/schema"
	"github.com/specialistvlad/cardc/internal/templates"
	"golang.org/x/sync/errgroup"
)

// Formats are compiled embedded first so isolated and edit templates can
// render self links through the card's own embedded component. The
// embedded template itself cannot render a self link.
var compileOrder = []card.Format{card.Embedded, card.Isolated, card.Edit}

// Compiler compiles raw cards against a Builder.
type Compiler struct {
	builder Builder
}

// New returns a compiler resolving cards through b.
func New(b Builder) *Compiler {
	return &Compiler{builder: b}
}

// compilation is the state of compiling one card.
type compilation struct {
	builder Builder
	raw     *card.RawCard
	logger  *slog.Logger
	def     *schema.Definition
	own     []*card.Field
	parent  *card.CompiledCard
	out     *card.CompiledCard
}

// Compile compiles raw. No compiled card is returned on error.
func (c *Compiler) Compile(ctx context.Context, raw *card.RawCard) (*card.CompiledCard, error) {
	ctx, err := WithInFlight(ctx, raw.URL)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("card", raw.URL)
	logger.Debug("Compiling card.")

	cc := &compilation{
		builder: c.builder,
		raw:     raw,
		logger:  logger,
		out:     &card.CompiledCard{URL: raw.URL},
	}
	if err := cc.run(ctx); err != nil {
		logger.Debug("Card failed to compile.", "error", err)
		return nil, err
	}
	logger.Debug("Compiled card.", "fields", cc.out.Fields.Len())
	return cc.out, nil
}

func (c *compilation) run(ctx context.Context) error {
	if err := c.raw.Validate(); err != nil {
		return c.fail(ErrDefinition, "", err)
	}
	if err := c.analyzeSchema(ctx); err != nil {
		return err
	}
	parentURL, err := c.parentURL()
	if err != nil {
		return err
	}
	if err := c.resolve(ctx, parentURL); err != nil {
		return err
	}
	if err := c.mergeFields(); err != nil {
		return err
	}
	if err := c.serializer(); err != nil {
		return err
	}
	if err := c.defineAssets(ctx); err != nil {
		return err
	}
	if err := c.defineSchema(ctx); err != nil {
		return err
	}
	for _, f := range compileOrder {
		info, err := c.compileFormat(ctx, f)
		if err != nil {
			return err
		}
		c.out.SetComponent(f, info)
	}
	if c.raw.Data != nil {
		if err := validateData(c.raw.Data, c.out.Fields, ""); err != nil {
			return c.fail(ErrComposition, "", err)
		}
		c.out.Data = c.raw.Data
	}
	return nil
}

// analyzeSchema runs the schema analyzer on the card's own schema, if any.
func (c *compilation) analyzeSchema(ctx context.Context) error {
	if c.raw.Schema == "" {
		return nil
	}
	src, _ := c.raw.Files.Get(c.raw.Schema)
	def, diags := schema.Analyze(ctx, c.raw.URL, c.raw.Schema, []byte(src))
	if diags.HasErrors() {
		return c.fail(ErrDefinition, c.raw.Schema, diags)
	}
	c.def = def
	return nil
}

// parentURL reconciles adoptsFrom with the schema's adopts decorator.
func (c *compilation) parentURL() (string, error) {
	fromRaw := ""
	if c.raw.AdoptsFrom != "" {
		u, err := card.ResolveURL(c.raw.URL, c.raw.AdoptsFrom)
		if err != nil {
			return "", c.fail(ErrDefinition, "", err)
		}
		fromRaw = u
	}
	fromSchema := ""
	if c.def != nil && c.def.Parent != nil {
		fromSchema = c.def.Parent.CardURL
	}

	var parent string
	switch {
	case fromRaw != "" && fromSchema != "" && fromRaw != fromSchema:
		return "", c.failf(ErrComposition, c.raw.Schema,
			"adoptsFrom %s conflicts with adopts(%s) in the schema", fromRaw, fromSchema)
	case fromRaw != "":
		parent = fromRaw
	case fromSchema != "":
		parent = fromSchema
	case !c.raw.IsBase():
		parent = card.BaseCardURL
	}
	if parent == c.raw.URL {
		return "", c.failf(ErrCycle, "", "%s adopts from itself", c.raw.URL)
	}
	return parent, nil
}

// resolve compiles the parent and every field target concurrently.
func (c *compilation) resolve(ctx context.Context, parentURL string) error {
	var metas []schema.Field
	if c.def != nil {
		metas = c.def.Fields
	}
	c.own = make([]*card.Field, len(metas))

	g, gctx := errgroup.WithContext(ctx)
	if parentURL != "" {
		g.Go(func() error {
			parent, err := c.builder.GetCompiledCard(gctx, parentURL)
			if err != nil {
				return c.failf(ErrDefinition, "", "parent %s: %w", parentURL, err)
			}
			c.parent = parent
			return nil
		})
	}
	for i, meta := range metas {
		g.Go(func() error {
			f := &card.Field{
				Name:       meta.Name,
				Kind:       meta.Kind,
				Computed:   meta.Computed,
				ComputeVia: meta.ComputeVia,
				Expression: meta.Expression,
			}
			if meta.CardURL == c.raw.URL {
				f.Card = c.out
			} else {
				target, err := c.builder.GetCompiledCard(gctx, meta.CardURL)
				if err != nil {
					return c.failf(ErrDefinition, c.raw.Schema, "field %q: %s: %w", meta.Name, meta.Range, err)
				}
				f.Card = target
			}
			c.own[i] = f
			return nil
		})
	}
	return g.Wait()
}

func (c *compilation) mergeFields() error {
	fields := card.NewFields()
	if c.parent != nil {
		c.out.AdoptsFrom = c.parent
		for _, f := range c.parent.Fields.All() {
			if err := fields.Add(f); err != nil {
				return c.fail(ErrComposition, "", err)
			}
		}
	}
	for _, f := range c.own {
		if err := fields.Add(f); err != nil {
			return c.failf(ErrComposition, c.raw.Schema,
				"field %q collides with a field inherited from %s", f.Name, c.parent.URL)
		}
	}
	for _, f := range fields.All() {
		if f.ComputeVia == "" {
			continue
		}
		if _, clash := fields.Get(f.ComputeVia); clash {
			return c.failf(ErrComposition, c.raw.Schema,
				"field %q computes via %q, which is also a field name", f.Name, f.ComputeVia)
		}
	}
	c.out.Fields = fields
	return nil
}

// serializer inherits the parent's serializer kind. Declaring a different
// one is an error.
func (c *compilation) serializer() error {
	inherited := ""
	if c.parent != nil {
		inherited = c.parent.SerializerKind
	}
	declared := ""
	if c.def != nil {
		declared = c.def.Serializer
	}
	if declared != "" && inherited != "" && declared != inherited {
		return c.failf(ErrComposition, c.raw.Schema,
			"%s: serializer %q conflicts with %q inherited from %s", c.def.SerializerRange, declared, inherited, c.parent.URL)
	}
	c.out.SerializerKind = inherited
	if declared != "" {
		c.out.SerializerKind = declared
	}
	return nil
}

// defineAssets registers every non-source file in declaration order.
func (c *compilation) defineAssets(ctx context.Context) error {
	for _, f := range c.raw.Files {
		if c.raw.IsSourceFile(f.Path) {
			continue
		}
		contentType := mime.TypeByExtension(path.Ext(f.Path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ref, err := c.builder.Define(ctx, c.raw.URL, f.Path, contentType, f.Content)
		if err != nil {
			return c.failf(ErrDefinition, f.Path, "define asset: %w", err)
		}
		c.logger.Debug("Defined asset.", "file", f.Path, "module", ref)
		c.out.Assets = append(c.out.Assets, card.Asset{Path: f.Path, ModuleRef: ref})
	}
	return nil
}

func (c *compilation) defineSchema(ctx context.Context) error {
	if c.def == nil {
		if c.parent != nil {
			c.out.SchemaModuleRef = c.parent.SchemaModuleRef
		}
		return nil
	}
	parentRef := ""
	if c.parent != nil {
		parentRef = c.parent.SchemaModuleRef
	}
	src := emitSchema(c.raw.URL, parentRef, c.out.SerializerKind, c.own)
	ref, err := c.builder.Define(ctx, c.raw.URL, "compiled/schema.hcl", TypeSchema, src)
	if err != nil {
		return c.failf(ErrDefinition, c.raw.Schema, "define schema: %w", err)
	}
	c.out.SchemaModuleRef = ref
	return nil
}

// compileFormat compiles the card's own template for f, or falls back to
// the parent: its component is reused as is when the card adds no fields,
// otherwise the parent's original template is compiled again against the
// merged fields.
func (c *compilation) compileFormat(ctx context.Context, f card.Format) (*card.ComponentInfo, error) {
	if file := c.raw.Template(f); file != "" {
		src, _ := c.raw.Files.Get(file)
		return c.compileTemplate(ctx, f, c.raw.URL, file, src)
	}
	if c.parent == nil {
		return nil, c.failf(ErrDefinition, "", "card has no parent and no %s template", f)
	}
	inherited := c.parent.Component(f)
	if inherited == nil {
		return nil, c.failf(ErrDefinition, "", "parent %s has no %s component", c.parent.URL, f)
	}
	if len(c.own) == 0 {
		c.logger.Debug("Reusing inherited component.", "format", f, "module", inherited.ModuleRef)
		return inherited, nil
	}

	source, err := c.builder.GetRawCard(ctx, inherited.SourceCardURL)
	if err != nil {
		return nil, c.failf(ErrDefinition, "", "load %s template of %s: %w", f, inherited.SourceCardURL, err)
	}
	file := source.Template(f)
	src, ok := source.Files.Get(file)
	if file == "" || !ok {
		return nil, c.failf(ErrDefinition, "", "%s does not define a %s template", inherited.SourceCardURL, f)
	}
	return c.compileTemplate(ctx, f, inherited.SourceCardURL, file, src)
}

func (c *compilation) compileTemplate(ctx context.Context, f card.Format, sourceURL, file, src string) (*card.ComponentInfo, error) {
	analysis, err := templates.Analyze(src)
	if err != nil {
		return nil, c.fail(ErrTemplate, file, err)
	}
	res, err := templates.Transform(src, templates.Options{CardURL: c.raw.URL, Fields: c.out.Fields, Format: f})
	if errors.Is(err, templates.ErrSelfRender) {
		return nil, c.fail(ErrDefinition, file, err)
	}
	if err != nil {
		return nil, c.fail(ErrTemplate, file, err)
	}
	used, err := usedFieldPaths(analysis.Usage, c.out.Fields, f)
	if err != nil {
		return nil, c.fail(ErrTemplate, file, err)
	}

	module := emitComponent(c.raw.URL, sourceURL, f, res)
	ref, err := c.builder.Define(ctx, c.raw.URL, "compiled/"+string(f)+".hcl", TypeComponent, module)
	if err != nil {
		return nil, c.failf(ErrTemplate, file, "define %s component: %w", f, err)
	}
	c.logger.Debug("Compiled template.", "format", f, "file", file, "module", ref, "imports", len(res.Imports))

	info := &card.ComponentInfo{
		ModuleRef:      ref,
		UsedFieldPaths: used,
		SourceCardURL:  sourceURL,
	}
	if len(res.Imports) == 0 && !res.UsesOwnScope {
		info.InlineTemplate = res.Source
	}
	return info, nil
}
