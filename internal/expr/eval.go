package expr

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var functions = map[string]function.Function{
	"abs":        stdlib.AbsoluteFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"concat":     stdlib.ConcatFunc,
	"format":     stdlib.FormatFunc,
	"join":       stdlib.JoinFunc,
	"length":     stdlib.LengthFunc,
	"lower":      stdlib.LowerFunc,
	"max":        stdlib.MaxFunc,
	"min":        stdlib.MinFunc,
	"replace":    stdlib.ReplaceFunc,
	"split":      stdlib.SplitFunc,
	"substr":     stdlib.SubstrFunc,
	"title":      stdlib.TitleFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"upper":      stdlib.UpperFunc,
	"formatdate": stdlib.FormatDateFunc,
}

// Functions returns the names of the functions available to computed fields.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses src as an HCL expression. name labels diagnostics.
func Parse(src, name string) (hclsyntax.Expression, error) {
	e, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}
	return e, nil
}

// Eval evaluates e with vars in scope and converts the result to plain Go
// values: strings, float64, bool, []any, map[string]any or nil.
func Eval(e hcl.Expression, vars map[string]any) (any, error) {
	for _, name := range CalledFunctions(e) {
		if _, ok := functions[name]; !ok {
			return nil, fmt.Errorf("unknown function %q", name)
		}
	}

	variables := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		if !hclsyntax.ValidIdentifier(name) {
			continue
		}
		cv, err := ToCty(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		variables[name] = cv
	}

	val, diags := e.Value(&hcl.EvalContext{Variables: variables, Functions: functions})
	if diags.HasErrors() {
		return nil, diags
	}
	return FromCty(val)
}

// ToCty converts a JSON-shaped Go value to a cty value.
func ToCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	src, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, err
	}
	t, err := ctyjson.ImpliedType(src)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(src, t)
}

// FromCty converts a known cty value back to JSON-shaped Go values.
func FromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	src, err := ctyjson.Marshal(v, cty.DynamicPseudoType)
	if err != nil {
		return nil, err
	}
	// A dynamic marshal wraps the value as {"value": ..., "type": ...}.
	var wrapped struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(src, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Value, nil
}
