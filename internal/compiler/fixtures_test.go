package compiler

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/testutil"
)

const (
	stringURL = "https://cardstack.com/base/string"
	dateURL   = "https://cardstack.com/base/date"
	personURL = "https://example.com/person"
	postURL   = "https://example.com/post"
)

// fakeBuilder memoizes compiled cards and records defined modules.
type fakeBuilder struct {
	compiler *Compiler

	mu       sync.Mutex
	raw      map[string]*card.RawCard
	compiled map[string]*card.CompiledCard
	modules  map[string]string
	types    map[string]string
	assets   []string
}

func newFakeBuilder(cards ...*card.RawCard) *fakeBuilder {
	b := &fakeBuilder{
		raw:      make(map[string]*card.RawCard),
		compiled: make(map[string]*card.CompiledCard),
		modules:  make(map[string]string),
		types:    make(map[string]string),
	}
	b.compiler = New(b)
	for _, c := range append(baseCards(), cards...) {
		b.raw[c.URL] = c
	}
	return b
}

func (b *fakeBuilder) GetRawCard(_ context.Context, url string) (*card.RawCard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.raw[url]
	if !ok {
		return nil, fmt.Errorf("card %s not found", url)
	}
	return raw, nil
}

func (b *fakeBuilder) GetCompiledCard(ctx context.Context, url string) (*card.CompiledCard, error) {
	b.mu.Lock()
	if c, ok := b.compiled[url]; ok {
		b.mu.Unlock()
		return c, nil
	}
	b.mu.Unlock()

	raw, err := b.GetRawCard(ctx, url)
	if err != nil {
		return nil, err
	}
	c, err := b.compiler.Compile(ctx, raw)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.compiled[url]; ok {
		return existing, nil
	}
	b.compiled[url] = c
	return c, nil
}

func (b *fakeBuilder) Define(_ context.Context, cardURL, localPath, contentType, source string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref := "@compiled/" + cardURL + "/" + localPath
	b.modules[ref] = source
	b.types[ref] = contentType
	if contentType != TypeSchema && contentType != TypeComponent {
		b.assets = append(b.assets, localPath)
	}
	return ref, nil
}


func files(pairs ...string) card.Files {
	var fs card.Files
	for i := 0; i+1 < len(pairs); i += 2 {
		fs = append(fs, card.File{Path: pairs[i], Content: testutil.Unindent(pairs[i+1])})
	}
	return fs
}

func baseCards() []*card.RawCard {
	fieldList := `{{#each-in @fields as |name Field|}}<Field />{{/each-in}}`
	return []*card.RawCard{
		{
			URL:      card.BaseCardURL,
			Isolated: "isolated.hbs",
			Embedded: "embedded.hbs",
			Edit:     "edit.hbs",
			Files: files(
				"isolated.hbs", fieldList,
				"embedded.hbs", fieldList,
				"edit.hbs", `{{#each-in @fields as |name Field|}}<label>{{name}}</label><Field />{{/each-in}}`,
			),
		},
		{
			URL:        stringURL,
			AdoptsFrom: card.BaseCardURL,
			Isolated:   "view.hbs",
			Embedded:   "view.hbs",
			Edit:       "edit.hbs",
			Files: files(
				"view.hbs", `{{@model}}`,
				"edit.hbs", `<input value={{@model}} {{on "input" @set}}>`,
			),
		},
		{
			URL:      dateURL,
			Schema:   "schema.hcl",
			Isolated: "view.hbs",
			Embedded: "view.hbs",
			Edit:     "edit.hbs",
			Files: files(
				"schema.hcl", `card "Date" { serializer = "date" }`,
				"view.hbs", `{{@model}}`,
				"edit.hbs", `<input type="date" value={{@model}} {{on "input" @set}}>`,
			),
		},
	}
}

func personCard() *card.RawCard {
	return &card.RawCard{
		URL:      personURL,
		Schema:   "schema.hcl",
		Isolated: "isolated.hbs",
		Embedded: "embedded.hbs",
		Files: files(
			"schema.hcl", `
				import "string" { from = "https://cardstack.com/base/string" }
				card "Person" {
				  name  = contains(string)
				  email = contains(string)
				}
			`,
			"isolated.hbs", `<div><@fields.name /> <@fields.email /></div>`,
			"embedded.hbs", `<@fields.name /> <@fields.email />`,
		),
	}
}

func postCard() *card.RawCard {
	return &card.RawCard{
		URL:      postURL,
		Schema:   "schema.hcl",
		Isolated: "isolated.hbs",
		Embedded: "embedded.hbs",
		Files: files(
			"schema.hcl", `
				import "string" { from = "https://cardstack.com/base/string" }
				import "person" { from = "./person" }
				card "Post" {
				  title  = contains(string)
				  author = contains(person)
				}
			`,
			"isolated.hbs", `<article><h1><@fields.title /></h1><@fields.author /></article>`,
			"embedded.hbs", `<@fields.title />`,
		),
	}
}
