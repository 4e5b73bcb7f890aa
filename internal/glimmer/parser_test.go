package glimmer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PrintIsStable(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "plain text", src: "hello world"},
		{name: "mustache path", src: "<h1>{{@model.title}}</h1>"},
		{name: "triple curly", src: "{{{@model.body}}}"},
		{name: "helper with params and hash", src: `{{format-date @model.published "YYYY" locale="en"}}`},
		{name: "subexpression", src: `{{concat (upper @model.first) " " @model.last}}`},
		{name: "field element", src: "<div><@fields.title /></div>"},
		{name: "component with args", src: `<AuthorField @model={{@model.author}} @set={{@set.setters.author}} />`},
		{name: "each block", src: "{{#each @fields.items as |item|}}<item />{{/each}}"},
		{name: "each-in with else", src: "{{#each-in @fields as |name Field|}}<label>{{name}}</label><Field />{{else}}empty{{/each-in}}"},
		{name: "else if chain", src: "{{#if @model.a}}A{{else if @model.b}}B{{else}}C{{/if}}"},
		{name: "concat attribute", src: `<div class="card {{@model.kind}}">x</div>`},
		{name: "modifier and splattributes", src: `<button ...attributes {{on "click" this.save}}>Save</button>`},
		{name: "void element", src: `<input type="text" value={{@model}}>`},
		{name: "element block params", src: `<Wrapper as |w|><w.title /></Wrapper>`},
		{name: "comments", src: "{{!-- scope X = \"y\" --}}{{! short }}<!-- html -->"},
		{name: "literals", src: `{{helper true false null undefined 42 -1.5 'it"s'}}`},
		{name: "stray angle bracket", src: "a < b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tpl, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.src, tpl.String())
		})
	}
}

func TestParse_Structure(t *testing.T) {
	tpl, err := Parse(`<section class="x">{{#each @fields.items as |item idx|}}<item @format="edit" />{{/each}}</section>`)
	require.NoError(t, err)
	require.Len(t, tpl.Body, 1)

	section := tpl.Body[0].(*Element)
	assert.Equal(t, "section", section.Tag)
	require.Len(t, section.Attrs, 1)
	assert.Equal(t, "x", section.Attrs[0].Value.(*Text).Value)

	block := section.Children[0].(*Block)
	assert.Equal(t, "each", block.HeadName())
	assert.Equal(t, []string{"item", "idx"}, block.BlockParams)
	param := block.Params[0].(*PathExpr)
	assert.Equal(t, "@fields", param.Head)
	assert.Equal(t, []string{"items"}, param.Tail)

	item := block.Program[0].(*Element)
	assert.True(t, item.SelfClosing)
	assert.Equal(t, "@format", item.Attrs[0].Name)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "unclosed block", src: "{{#if x}}a", wantErr: "unclosed block"},
		{name: "mismatched block", src: "{{#if x}}a{{/each}}", wantErr: "closed by {{/each}}"},
		{name: "mismatched element", src: "<div>a</span>", wantErr: "closed by </span>"},
		{name: "unclosed element", src: "<div>a", wantErr: "unclosed element"},
		{name: "stray close", src: "a{{/if}}", wantErr: "unexpected block close"},
		{name: "stray else", src: "a{{else}}b", wantErr: "outside of a block"},
		{name: "unterminated mustache", src: "{{foo", wantErr: "unterminated mustache"},
		{name: "unterminated string", src: `{{foo "bar}}`, wantErr: "unterminated string"},
		{name: "hash before param", src: "{{foo a=1 b}}", wantErr: "positional params"},
		{name: "invalid path", src: "{{foo..bar}}", wantErr: "invalid path"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("line one\n<div>{{#if x}}")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 2, syntaxErr.Line)
}

func TestCloneNodes_IsDeep(t *testing.T) {
	tpl, err := Parse(`<p class="a {{b}}">{{c.d}}</p>`)
	require.NoError(t, err)

	clone := CloneNodes(tpl.Body)
	clone[0].(*Element).Children[0].(*Mustache).Path.(*PathExpr).Tail[0] = "z"

	assert.Equal(t, `<p class="a {{b}}">{{c.d}}</p>`, tpl.String())
	assert.Equal(t, `<p class="a {{b}}">{{c.z}}</p>`, Print(clone))
	assert.NotSame(t, tpl.Body[0], clone[0])
}

func TestRewriteExprs(t *testing.T) {
	tpl, err := Parse(`<p class="x {{@model.kind}}">{{#if (eq @model.a 1)}}{{@model}}{{/if}}</p>`)
	require.NoError(t, err)

	RewriteExprs(tpl.Body, func(e Expr) Expr {
		if p, ok := e.(*PathExpr); ok && p.Head == "@model" {
			return NewPath("@model", append([]string{"author"}, p.Tail...)...)
		}
		return e
	})

	assert.Equal(t, `<p class="x {{@model.author.kind}}">{{#if (eq @model.author.a 1)}}{{@model.author}}{{/if}}</p>`, tpl.String())
}
