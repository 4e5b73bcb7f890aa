package expr

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an hcl.Traversal,
// suitable for use as a map key.
func TraversalKey(t hcl.Traversal) string {
	// e.g., author.name or tags[0]
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// References returns the unique variable traversals of e, sorted by key.
func References(e hcl.Expression) []hcl.Traversal {
	byKey := make(map[string]hcl.Traversal)
	for _, t := range e.Variables() {
		byKey[TraversalKey(t)] = t
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]hcl.Traversal, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// RootNames returns the unique root variable names of e, sorted.
func RootNames(e hcl.Expression) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range References(e) {
		name := t.RootName()
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CalledFunctions returns the unique names of the functions e calls, sorted.
// Variables() does not report function calls, so the syntax tree is walked.
func CalledFunctions(e hcl.Expression) []string {
	syntaxExpr, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	hclsyntax.VisitAll(syntaxExpr, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			seen[call.Name] = struct{}{}
		}
		return nil
	})

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
