package templates

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cardc/internal/glimmer"
	"github.com/zclconf/go-cty/cty"
)

// Import is one name in a generated component's scope.
type Import struct {
	Name      string
	ModuleRef string
}

// scopeComment reads a leading {{!-- scope Name = "moduleRef" --}} comment.
// The body after the keyword is parsed as HCL attributes. It reports whether
// the template extends its own component scope.
func scopeComment(tpl *glimmer.Template) ([]Import, bool, error) {
	for _, n := range tpl.Body {
		switch n := n.(type) {
		case *glimmer.Text:
			if strings.TrimSpace(n.Value) == "" {
				continue
			}
			return nil, false, nil
		case *glimmer.Comment:
			body := strings.TrimSpace(n.Value)
			rest, ok := strings.CutPrefix(body, "scope")
			if !ok || (rest != "" && !unicode.IsSpace(rune(rest[0]))) {
				return nil, false, nil
			}
			imports, err := parseScope(rest)
			if err != nil {
				return nil, false, err
			}
			return imports, true, nil
		default:
			return nil, false, nil
		}
	}
	return nil, false, nil
}

func parseScope(src string) ([]Import, error) {
	file, diags := hclsyntax.ParseConfig([]byte(src), "scope", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("scope comment: %w", diags)
	}
	body := file.Body.(*hclsyntax.Body)
	if len(body.Blocks) > 0 {
		return nil, fmt.Errorf("scope comment: only name = \"moduleRef\" attributes are allowed")
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	out := make([]Import, 0, len(attrs))
	for _, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() || v.IsNull() || !v.Type().Equals(cty.String) {
			return nil, fmt.Errorf("scope comment: %s must be a literal string", attr.Name)
		}
		out = append(out, Import{Name: attr.Name, ModuleRef: v.AsString()})
	}
	return out, nil
}
