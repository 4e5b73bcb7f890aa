package compiler

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/templates"
	"github.com/zclconf/go-cty/cty"
)

// emitSchema renders the schema module of a card: its parent module, its
// serializer and its own fields. Inherited fields live in the parent module.
func emitSchema(cardURL, parentRef, serializer string, own []*card.Field) string {
	f := hclwrite.NewEmptyFile()
	block := f.Body().AppendNewBlock("schema", []string{cardURL})
	body := block.Body()
	if parentRef != "" {
		body.SetAttributeValue("parent", cty.StringVal(parentRef))
	}
	if serializer != "" {
		body.SetAttributeValue("serializer", cty.StringVal(serializer))
	}
	for _, field := range own {
		body.AppendNewline()
		fb := body.AppendNewBlock("field", []string{field.Name}).Body()
		fb.SetAttributeValue("kind", cty.StringVal(string(field.Kind)))
		fb.SetAttributeValue("card", cty.StringVal(field.Card.URL))
		if field.Computed {
			fb.SetAttributeValue("computed", cty.True)
		}
		if field.ComputeVia != "" {
			fb.SetAttributeValue("compute_via", cty.StringVal(field.ComputeVia))
		}
		if field.Expression != "" {
			fb.SetAttributeValue("expression", cty.StringVal(field.Expression))
		}
	}
	return string(f.Bytes())
}

// emitComponent renders the component module of one format.
func emitComponent(cardURL, sourceURL string, format card.Format, res *templates.Result) string {
	f := hclwrite.NewEmptyFile()
	body := f.Body().AppendNewBlock("component", []string{string(format)}).Body()
	body.SetAttributeValue("card", cty.StringVal(cardURL))
	body.SetAttributeValue("source", cty.StringVal(sourceURL))

	imports := cty.EmptyObjectVal
	if len(res.Imports) > 0 {
		vals := make(map[string]cty.Value, len(res.Imports))
		for _, imp := range res.Imports {
			vals[imp.Name] = cty.StringVal(imp.ModuleRef)
		}
		imports = cty.ObjectVal(vals)
	}
	body.SetAttributeValue("imports", imports)
	body.SetAttributeValue("template", cty.StringVal(res.Source))
	return string(f.Bytes())
}
