package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cardc/internal/compiler"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Validate checks that every module reference held by a generated module
// resolves: component imports and schema parents.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, m := range r.Modules() {
		var refs []string
		var err error
		switch m.ContentType {
		case compiler.TypeComponent:
			refs, err = componentImports(m)
		case compiler.TypeSchema:
			refs, err = schemaParent(m)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", m.Ref, err))
			continue
		}
		for _, ref := range refs {
			if _, ok := r.Get(ref); !ok {
				errs = append(errs, fmt.Sprintf("%s: references undefined module %s", m.Ref, ref))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "modules", r.Len())
	return nil
}

// moduleAttr parses a generated module and returns the value of attribute
// name inside its single top-level block of blockType.
func moduleAttr(m *Module, blockType, name string) (cty.Value, error) {
	file, diags := hclparse.NewParser().ParseHCL([]byte(m.Source), m.Ref)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return cty.NilVal, fmt.Errorf("unexpected body type %T", file.Body)
	}
	var block *hclsyntax.Block
	for _, b := range body.Blocks {
		if b.Type != blockType {
			continue
		}
		if block != nil {
			return cty.NilVal, fmt.Errorf("more than one %s block", blockType)
		}
		block = b
	}
	if block == nil {
		return cty.NilVal, fmt.Errorf("no %s block", blockType)
	}
	attr, ok := block.Body.Attributes[name]
	if !ok {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	v, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

func componentImports(m *Module) ([]string, error) {
	v, err := moduleAttr(m, "component", "imports")
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("imports must be an object, got %s", v.Type().FriendlyName())
	}
	var refs []string
	for it := v.ElementIterator(); it.Next(); {
		name, ref := it.Element()
		if ref.IsNull() || !ref.Type().Equals(cty.String) {
			return nil, fmt.Errorf("import %s must be a module reference string", name.AsString())
		}
		refs = append(refs, ref.AsString())
	}
	return refs, nil
}

func schemaParent(m *Module) ([]string, error) {
	v, err := moduleAttr(m, "schema", "parent")
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().Equals(cty.String) {
		return nil, fmt.Errorf("parent must be a module reference string, got %s", v.Type().FriendlyName())
	}
	return []string{v.AsString()}, nil
}
