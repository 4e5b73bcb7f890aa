package templates

import "github.com/specialistvlad/cardc/internal/card"

const (
	stringURL = "https://cardstack.com/base/string"
	personURL = "https://example.com/person"
)

func stringCard() *card.CompiledCard {
	c := &card.CompiledCard{URL: stringURL, Fields: card.NewFields()}
	for _, f := range card.Formats {
		c.SetComponent(f, &card.ComponentInfo{
			ModuleRef:      "@compiled/string/" + string(f),
			InlineTemplate: "{{@model}}",
			SourceCardURL:  stringURL,
		})
	}
	c.Edit.InlineTemplate = `<input value={{@model}} {{on "input" @set}}>`
	return c
}

func personCard() *card.CompiledCard {
	str := stringCard()
	c := &card.CompiledCard{URL: personURL, Fields: card.NewFields()}
	_ = c.Fields.Add(&card.Field{Name: "name", Kind: card.Contains, Card: str})
	_ = c.Fields.Add(&card.Field{Name: "email", Kind: card.Contains, Card: str})
	for _, f := range card.Formats {
		c.SetComponent(f, &card.ComponentInfo{
			ModuleRef:      "@compiled/person/" + string(f),
			UsedFieldPaths: []string{"name", "email"},
			SourceCardURL:  personURL,
		})
	}
	return c
}

// postFields is title, author, tags and contributors.
func postFields() *card.Fields {
	str, person := stringCard(), personCard()
	fs := card.NewFields()
	_ = fs.Add(&card.Field{Name: "title", Kind: card.Contains, Card: str})
	_ = fs.Add(&card.Field{Name: "author", Kind: card.Contains, Card: person})
	_ = fs.Add(&card.Field{Name: "tags", Kind: card.ContainsMany, Card: str})
	_ = fs.Add(&card.Field{Name: "contributors", Kind: card.ContainsMany, Card: person})
	return fs
}

func titleAndAuthor() *card.Fields {
	fs := card.NewFields()
	_ = fs.Add(&card.Field{Name: "title", Kind: card.Contains, Card: stringCard()})
	_ = fs.Add(&card.Field{Name: "author", Kind: card.Contains, Card: personCard()})
	return fs
}
