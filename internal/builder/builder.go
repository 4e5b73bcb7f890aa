package builder

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/compiler"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/registry"
)

// DefaultCacheSize is the number of compiled cards kept when no size is set.
const DefaultCacheSize = 1024

// Source provides raw card definitions.
type Source interface {
	GetRawCard(ctx context.Context, url string) (*card.RawCard, error)
}

// Builder resolves and compiles cards and stores their modules.
type Builder struct {
	source   Source
	registry *registry.Registry
	compiler *compiler.Compiler
	cache    *lru.Cache[string, *card.CompiledCard]
}

var _ compiler.Builder = (*Builder)(nil)

// New creates a builder over source that defines modules in reg.
func New(source Source, reg *registry.Registry, cacheSize int) (*Builder, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *card.CompiledCard](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create compiled card cache: %w", err)
	}
	b := &Builder{source: source, registry: reg, cache: cache}
	b.compiler = compiler.New(b)
	return b, nil
}

// Registry returns the module registry the builder defines into.
func (b *Builder) Registry() *registry.Registry {
	return b.registry
}

// GetRawCard implements compiler.Builder.
func (b *Builder) GetRawCard(ctx context.Context, url string) (*card.RawCard, error) {
	raw, err := b.source.GetRawCard(ctx, url)
	if err != nil {
		return nil, err
	}
	if raw.URL != url {
		return nil, fmt.Errorf("source returned card %s for %s", raw.URL, url)
	}
	return raw, nil
}

// GetCompiledCard implements compiler.Builder. Concurrent misses for the
// same URL may compile twice; the first stored result wins.
func (b *Builder) GetCompiledCard(ctx context.Context, url string) (*card.CompiledCard, error) {
	logger := ctxlog.FromContext(ctx)
	if c, ok := b.cache.Get(url); ok {
		logger.Debug("Compiled card cache hit.", "card", url)
		return c, nil
	}

	raw, err := b.GetRawCard(ctx, url)
	if err != nil {
		return nil, err
	}
	compiled, err := b.compiler.Compile(ctx, raw)
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := b.cache.PeekOrAdd(url, compiled); ok {
		return prev, nil
	}
	return compiled, nil
}

// Define implements compiler.Builder.
func (b *Builder) Define(ctx context.Context, cardURL, localPath, contentType, source string) (string, error) {
	return b.registry.Define(ctx, cardURL, localPath, contentType, source)
}

// Cached reports whether url is in the compiled card memo.
func (b *Builder) Cached(url string) bool {
	return b.cache.Contains(url)
}

// Invalidate evicts url and every cached card depending on it and forgets
// their modules. It returns the evicted URLs.
func (b *Builder) Invalidate(ctx context.Context, url string) []string {
	var evicted []string
	for _, key := range b.cache.Keys() {
		c, ok := b.cache.Peek(key)
		if !ok {
			continue
		}
		if key == url || dependsOn(c, url, map[*card.CompiledCard]bool{}) {
			b.cache.Remove(key)
			b.registry.Forget(key)
			evicted = append(evicted, key)
		}
	}
	if !slices.Contains(evicted, url) {
		b.registry.Forget(url)
	}
	ctxlog.FromContext(ctx).Debug("Invalidated cards.", "card", url, "evicted", evicted)
	return evicted
}

func dependsOn(c *card.CompiledCard, url string, seen map[*card.CompiledCard]bool) bool {
	if c == nil || seen[c] {
		return false
	}
	seen[c] = true
	if c.AdoptsFrom != nil && (c.AdoptsFrom.URL == url || dependsOn(c.AdoptsFrom, url, seen)) {
		return true
	}
	for _, f := range c.Fields.All() {
		if f.Card != nil && (f.Card.URL == url || dependsOn(f.Card, url, seen)) {
			return true
		}
	}
	return false
}
