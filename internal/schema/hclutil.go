package schema

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// findUniqueBlock searches a slice of blocks for all blocks of a given type.
// It returns a diagnostic error if more than one block of that type is found.
// If no block is found, it returns nil.
func findUniqueBlock(blocks hclsyntax.Blocks, name string) (*hclsyntax.Block, hcl.Diagnostics) {
	var found *hclsyntax.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type == name {
			if found != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"" + name + "\" block",
					Detail:   "Only one \"" + name + "\" block is allowed.",
					Subject:  block.DefRange().Ptr(),
				})
			}
			found = block
		}
	}

	return found, diags
}

// sortedAttributes returns the body's attributes in source order. hclsyntax
// keeps them in a map.
func sortedAttributes(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	return attrs
}

// staticKey extracts an object constructor key written as a bare identifier
// or a quoted string without interpolation.
func staticKey(expr hclsyntax.Expression) (string, bool) {
	keyExpr, ok := expr.(*hclsyntax.ObjectConsKeyExpr)
	if !ok {
		return "", false
	}
	switch kexpr := keyExpr.Wrapped.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(kexpr.Traversal) == 1 {
			return kexpr.Traversal.RootName(), true
		}
	case *hclsyntax.TemplateExpr:
		if len(kexpr.Parts) == 1 {
			if lit, isLit := kexpr.Parts[0].(*hclsyntax.LiteralValueExpr); isLit && lit.Val.Type().Equals(cty.String) {
				return lit.Val.AsString(), true
			}
		}
	}
	return "", false
}

// literalString evaluates expr without any variables and requires a known,
// non-null string.
func literalString(expr hclsyntax.Expression) (string, bool) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.String) {
		return "", false
	}
	return v.AsString(), true
}

// constructUse is one occurrence of a field construct name in the syntax tree.
type constructUse struct {
	Name   string
	Called bool
	Range  hcl.Range
}

// findConstruct walks node and returns the first (in source order) call to,
// or bare reference of, a field construct or adopts.
func findConstruct(node hclsyntax.Node) *constructUse {
	var first *constructUse
	record := func(use *constructUse) {
		if first == nil || use.Range.Start.Byte < first.Range.Start.Byte {
			first = use
		}
	}
	hclsyntax.VisitAll(node, func(n hclsyntax.Node) hcl.Diagnostics {
		switch e := n.(type) {
		case *hclsyntax.FunctionCallExpr:
			if isConstruct(e.Name) {
				record(&constructUse{Name: e.Name, Called: true, Range: e.NameRange})
			}
		case *hclsyntax.ScopeTraversalExpr:
			if name := e.Traversal.RootName(); isConstruct(name) {
				record(&constructUse{Name: name, Range: e.SrcRange})
			}
		}
		return nil
	})
	return first
}

// bareConstruct reports whether expr is a construct name used without
// calling it.
func bareConstruct(expr hclsyntax.Expression) (string, bool) {
	trav, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(trav.Traversal) != 1 {
		return "", false
	}
	name := trav.Traversal.RootName()
	return name, isConstruct(name)
}

func errorDiag(summary, detail string, subject hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  subject.Ptr(),
	}
}
