package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/serializer"
	"github.com/zclconf/go-cty/cty/gocty"
)

const adoptsConstruct = "adopts"

var fieldConstructs = map[string]card.FieldKind{
	"contains":     card.Contains,
	"containsMany": card.ContainsMany,
	"linksTo":      card.LinksTo,
}

func isConstruct(name string) bool {
	_, ok := fieldConstructs[name]
	return ok || name == adoptsConstruct
}

// Reserved attribute names inside a card block.
const (
	attrDecorators = "decorators"
	attrSerializer = "serializer"
)

type importSpec struct {
	From   string `hcl:"from"`
	Export string `hcl:"export,optional"`
}

type analyzer struct {
	cardURL  string
	src      []byte
	cardName string
	imports  map[string]*Import
	members  map[string]hcl.Range
	def      *Definition
	diags    hcl.Diagnostics
}

// Analyze parses the schema source of the card at cardURL. filename is only
// used in diagnostics. On any error the returned definition is nil.
func Analyze(ctx context.Context, cardURL, filename string, src []byte) (*Definition, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx).With("card", cardURL, "file", filename)
	logger.Debug("Analyzing card schema.")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		// ParseHCL always yields native syntax bodies.
		panic(fmt.Sprintf("schema: unexpected body type %T", file.Body))
	}

	a := &analyzer{
		cardURL: cardURL,
		src:     src,
		imports: make(map[string]*Import),
		members: make(map[string]hcl.Range),
		def:     &Definition{},
	}
	a.analyzeFile(body)
	if a.diags.HasErrors() {
		logger.Debug("Card schema is invalid.", "errors", len(a.diags.Errs()))
		return nil, a.diags
	}

	parent := ""
	if a.def.Parent != nil {
		parent = a.def.Parent.CardURL
	}
	logger.Debug("Analyzed card schema.", "name", a.def.CardName, "fields", len(a.def.Fields), "parent", parent)
	return a.def, nil
}

func (a *analyzer) errorf(subject hcl.Range, summary, detail string, args ...any) {
	a.diags = append(a.diags, errorDiag(summary, fmt.Sprintf(detail, args...), subject))
}

func (a *analyzer) analyzeFile(body *hclsyntax.Body) {
	for _, attr := range sortedAttributes(body) {
		if use := findConstruct(attr.Expr); use != nil {
			a.errorf(use.Range, "Misplaced field construct",
				"%s may only annotate a member of the card block; %q is a top-level attribute.", use.Name, attr.Name)
			continue
		}
		a.errorf(attr.SrcRange, "Unsupported attribute",
			"Only import and card blocks are allowed at the top level of a schema file; found %q.", attr.Name)
	}

	// Imports first so card references resolve regardless of block order.
	for _, block := range body.Blocks {
		switch block.Type {
		case "import":
			a.importBlock(block)
		case "card":
		default:
			a.errorf(block.DefRange(), "Unsupported block type",
				"Blocks of type %q are not expected here; use import or card.", block.Type)
		}
	}

	cardBlock, diags := findUniqueBlock(body.Blocks, "card")
	a.diags = append(a.diags, diags...)
	if cardBlock == nil {
		a.errorf(body.SrcRange, "Missing card block", "A schema file must declare exactly one card block.")
		return
	}
	a.cardBlock(cardBlock)
}

func (a *analyzer) importBlock(block *hclsyntax.Block) {
	if len(block.Labels) != 1 {
		a.errorf(block.DefRange(), "Invalid import block", "An import block needs exactly one label naming the local binding.")
		return
	}
	name := block.Labels[0]
	if isConstruct(name) {
		a.errorf(block.LabelRanges[0], "Reserved import name", "%q is a field construct and cannot be used as an import name.", name)
		return
	}
	if prev, ok := a.imports[name]; ok {
		a.errorf(block.LabelRanges[0], "Duplicate import", "%q is already imported at %s.", name, prev.Range)
		return
	}
	if use := findConstruct(block.Body); use != nil {
		a.errorf(use.Range, "Misplaced field construct", "%s may only annotate a member of the card block, not an import.", use.Name)
		return
	}

	var spec importSpec
	if diags := gohcl.DecodeBody(block.Body, nil, &spec); diags.HasErrors() {
		a.diags = append(a.diags, diags...)
		return
	}
	if spec.From == "" {
		a.errorf(block.DefRange(), "Invalid import block", "Import %q has an empty from attribute.", name)
		return
	}
	resolved, err := card.ResolveURL(a.cardURL, spec.From)
	if err != nil {
		a.errorf(block.Body.Attributes["from"].SrcRange, "Invalid import source", "%s", err)
		return
	}

	imp := &Import{Name: name, From: spec.From, Export: spec.Export, URL: resolved, Range: block.DefRange()}
	a.imports[name] = imp
	a.def.Imports = append(a.def.Imports, *imp)
}

// member is either an attribute or a method block, kept together so fields
// come out in declaration order.
type member struct {
	pos   int
	field *Field
}

func (a *analyzer) cardBlock(block *hclsyntax.Block) {
	if len(block.Labels) != 1 || !hclsyntax.ValidIdentifier(block.Labels[0]) {
		a.errorf(block.DefRange(), "Invalid card block", "A card block needs exactly one label that is a valid identifier.")
		return
	}
	a.cardName = block.Labels[0]
	a.def.CardName = a.cardName
	if _, clash := a.imports[a.cardName]; clash {
		a.errorf(block.LabelRanges[0], "Ambiguous card name", "The card label %q is also the name of an import.", a.cardName)
	}

	var members []member
	for _, attr := range sortedAttributes(block.Body) {
		switch attr.Name {
		case attrDecorators:
			a.cardDecorators(attr)
		case attrSerializer:
			a.serializer(attr)
		default:
			if !a.claim(attr.Name, attr.NameRange) {
				continue
			}
			if f := a.fieldAttribute(attr); f != nil {
				members = append(members, member{pos: attr.SrcRange.Start.Byte, field: f})
			}
		}
	}

	for _, inner := range block.Body.Blocks {
		switch inner.Type {
		case "method":
			if f := a.method(inner); f != nil {
				members = append(members, member{pos: inner.TypeRange.Start.Byte, field: f})
			}
		case "dynamic":
			if use := findConstruct(inner.Body); use != nil {
				a.errorf(use.Range, "Computed field name",
					"%s inside a dynamic block would declare a field whose name is computed; declare each field with a literal name.", use.Name)
			}
		default:
			if use := findConstruct(inner.Body); use != nil {
				a.errorf(use.Range, "Misplaced field construct",
					"%s may only annotate card attributes and method blocks, not %q blocks.", use.Name, inner.Type)
				continue
			}
			if _, ok := inner.Body.Attributes[attrDecorators]; ok {
				a.errorf(inner.DefRange(), "Misplaced decorators",
					"Only method blocks accept decorators; %q blocks are plain members.", inner.Type)
			}
		}
	}

	sort.SliceStable(members, func(i, j int) bool { return members[i].pos < members[j].pos })
	for _, m := range members {
		a.def.Fields = append(a.def.Fields, *m.field)
	}
}

// claim records a member name and reports duplicates between attributes and
// method blocks.
func (a *analyzer) claim(name string, rng hcl.Range) bool {
	if prev, ok := a.members[name]; ok {
		a.errorf(rng, "Duplicate member", "The card already declares %q at %s.", name, prev)
		return false
	}
	a.members[name] = rng
	return true
}

func (a *analyzer) cardDecorators(attr *hclsyntax.Attribute) {
	tuple, ok := attr.Expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		a.errorf(attr.Expr.Range(), "Invalid decorators", "decorators must be a list of decorator calls, for example [adopts(base)].")
		return
	}
	for _, item := range tuple.Exprs {
		if name, bare := bareConstruct(item); bare {
			a.errorf(item.Range(), "Decorator not invoked", "%s must be called with a card reference, for example %s(base).", name, name)
			continue
		}
		call, ok := item.(*hclsyntax.FunctionCallExpr)
		if !ok {
			a.errorf(item.Range(), "Unsupported decorator", "Card decorators must be calls to adopts.")
			continue
		}
		if _, isField := fieldConstructs[call.Name]; isField {
			a.errorf(call.NameRange, "Misplaced field construct",
				"%s cannot annotate the card itself; it may only annotate a field or a method.", call.Name)
			continue
		}
		if call.Name != adoptsConstruct {
			a.errorf(call.NameRange, "Unsupported decorator", "Unknown card decorator %q.", call.Name)
			continue
		}
		a.adopts(call)
	}
}

func (a *analyzer) adopts(call *hclsyntax.FunctionCallExpr) {
	if len(call.Args) != 1 || call.ExpandFinal {
		a.errorf(call.Range(), "Wrong number of arguments", "adopts expects exactly 1 argument, got %d.", len(call.Args))
		return
	}
	if a.def.Parent != nil {
		a.errorf(call.NameRange, "Duplicate adopts", "A card can adopt from only one parent; already adopting %s.", a.def.Parent.CardURL)
		return
	}
	ref, ok := a.cardRef(call.Args[0])
	if !ok {
		return
	}
	if ref == a.cardURL {
		a.errorf(call.Args[0].Range(), "Card adopts itself", "Card %q cannot adopt from itself.", a.cardName)
		return
	}
	a.def.Parent = &Reference{CardURL: ref, Range: call.Range()}
}

func (a *analyzer) serializer(attr *hclsyntax.Attribute) {
	kind, ok := literalString(attr.Expr)
	if !ok {
		a.errorf(attr.Expr.Range(), "Invalid serializer", "serializer must be a literal string.")
		return
	}
	if !serializer.Known(kind) {
		a.errorf(attr.Expr.Range(), "Unknown serializer", "Serializer %q is not one of: %s.", kind, strings.Join(serializer.Kinds(), ", "))
		return
	}
	a.def.Serializer = kind
	a.def.SerializerRange = attr.SrcRange
}

func (a *analyzer) fieldAttribute(attr *hclsyntax.Attribute) *Field {
	if name, bare := bareConstruct(attr.Expr); bare {
		a.errorf(attr.Expr.Range(), "Field construct not invoked",
			"%s must be called with a card reference, for example %s(string).", name, name)
		return nil
	}
	call, ok := attr.Expr.(*hclsyntax.FunctionCallExpr)
	if ok && call.Name == adoptsConstruct {
		a.errorf(call.NameRange, "Misplaced adopts", "adopts may only annotate the card itself, not the member %q.", attr.Name)
		return nil
	}
	if ok {
		if kind, isField := fieldConstructs[call.Name]; isField {
			return a.fieldCall(attr.Name, kind, call, attr.SrcRange)
		}
	}
	if use := findConstruct(attr.Expr); use != nil {
		a.errorf(use.Range, "Misplaced field construct",
			"%s must be the whole value of member %q, not part of a larger expression.", use.Name, attr.Name)
	}
	// Plain members carry no field.
	return nil
}

func (a *analyzer) fieldCall(name string, kind card.FieldKind, call *hclsyntax.FunctionCallExpr, rng hcl.Range) *Field {
	if call.ExpandFinal || len(call.Args) < 1 || len(call.Args) > 2 {
		a.errorf(call.Range(), "Wrong number of arguments", "%s expects 1 or 2 arguments, got %d.", call.Name, len(call.Args))
		return nil
	}
	ref, ok := a.cardRef(call.Args[0])
	if !ok {
		return nil
	}
	if ref == a.cardURL && kind != card.LinksTo {
		a.errorf(call.Args[0].Range(), "Card contains itself",
			"Field %q uses %s on the card %q itself; only linksTo may refer to the enclosing card.", name, call.Name, a.cardName)
		return nil
	}

	f := &Field{
		FieldMeta: card.FieldMeta{Name: name, CardURL: ref, Kind: kind},
		Range:     rng,
	}
	if len(call.Args) == 2 {
		computeVia, ok := a.options(call.Args[1])
		if !ok {
			return nil
		}
		if computeVia != "" {
			f.Computed = true
			f.ComputeVia = computeVia
		}
	}
	return f
}

// options reads the optional second argument of a field construct. Keys
// other than computeVia are ignored.
func (a *analyzer) options(expr hclsyntax.Expression) (string, bool) {
	obj, ok := expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		a.errorf(expr.Range(), "Invalid field options", `The second argument must be an object literal such as { computeVia = "computeSlug" }.`)
		return "", false
	}
	computeVia := ""
	for _, item := range obj.Items {
		key, ok := staticKey(item.KeyExpr)
		if !ok {
			a.errorf(item.KeyExpr.Range(), "Invalid option key", "Option keys must be simple identifiers or quoted strings.")
			return "", false
		}
		if key != "computeVia" {
			continue
		}
		v, ok := literalString(item.ValueExpr)
		if !ok || v == "" {
			a.errorf(item.ValueExpr.Range(), "Invalid computeVia", "computeVia must be a non-empty literal string naming a compute function.")
			return "", false
		}
		computeVia = v
	}
	return computeVia, true
}

// cardRef resolves an identifier to a card URL: a default import or the card
// itself.
func (a *analyzer) cardRef(expr hclsyntax.Expression) (string, bool) {
	trav, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(trav.Traversal) != 1 {
		a.errorf(expr.Range(), "Invalid card reference", "A card reference must be a single identifier naming an import or the card itself.")
		return "", false
	}
	name := trav.Traversal.RootName()
	if name == a.cardName {
		return a.cardURL, true
	}
	imp, ok := a.imports[name]
	if !ok {
		a.errorf(trav.SrcRange, "Unresolved card reference", "%q is neither an import nor the card %q.", name, a.cardName)
		return "", false
	}
	if imp.Export != "" {
		a.errorf(trav.SrcRange, "Invalid card reference",
			"%q is the named export %q of %s; card references must use a default import.", name, imp.Export, imp.URL)
		return "", false
	}
	return imp.URL, true
}

var methodAttributes = map[string]bool{
	attrDecorators: true,
	"params":       true,
	"async":        true,
	"static":       true,
	"body":         true,
}

func (a *analyzer) method(block *hclsyntax.Block) *Field {
	if len(block.Labels) != 1 || !hclsyntax.ValidIdentifier(block.Labels[0]) {
		a.errorf(block.DefRange(), "Invalid method block", "A method block needs exactly one label that is a valid identifier.")
		return nil
	}
	name := block.Labels[0]
	if !a.claim(name, block.LabelRanges[0]) {
		return nil
	}

	body := block.Body
	for _, attr := range sortedAttributes(body) {
		if !methodAttributes[attr.Name] {
			a.errorf(attr.NameRange, "Unsupported argument", "Method %q does not accept an argument named %q.", name, attr.Name)
		}
	}
	for _, inner := range body.Blocks {
		a.errorf(inner.DefRange(), "Unsupported block type", "Method %q does not accept nested blocks.", name)
	}

	call := a.methodDecorators(name, body.Attributes[attrDecorators])
	if call == nil {
		return nil
	}

	params := 0
	if attr, ok := body.Attributes["params"]; ok {
		list, diags := hcl.ExprList(attr.Expr)
		if diags.HasErrors() {
			a.diags = append(a.diags, diags...)
			return nil
		}
		params = len(list)
	}
	async, ok := a.boolAttr(body, "async")
	if !ok {
		return nil
	}
	static, ok := a.boolAttr(body, "static")
	if !ok {
		return nil
	}

	if params > 0 {
		a.errorf(body.Attributes["params"].SrcRange, "Annotated method takes parameters",
			"Method %q is annotated with %s, so it must take zero parameters; it declares %d.", name, call.Name, params)
		return nil
	}
	if static {
		a.errorf(body.Attributes["static"].SrcRange, "Static method annotated",
			"Method %q is static; only instance methods may declare fields.", name)
		return nil
	}

	f := a.fieldCall(name, fieldConstructs[call.Name], call, block.DefRange())
	if f == nil {
		return nil
	}
	f.Computed = true
	if attr, ok := body.Attributes["body"]; ok && !async && f.ComputeVia == "" {
		f.Expression = string(attr.Expr.Range().SliceBytes(a.src))
	}
	return f
}

// methodDecorators returns the single field construct annotating a method,
// or nil when the method is a plain one or its decorators are invalid.
func (a *analyzer) methodDecorators(method string, attr *hclsyntax.Attribute) *hclsyntax.FunctionCallExpr {
	if attr == nil {
		return nil
	}
	tuple, ok := attr.Expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		a.errorf(attr.Expr.Range(), "Invalid decorators", "decorators must be a list of decorator calls, for example [contains(string)].")
		return nil
	}
	var found *hclsyntax.FunctionCallExpr
	for _, item := range tuple.Exprs {
		if name, bare := bareConstruct(item); bare {
			a.errorf(item.Range(), "Field construct not invoked", "%s must be called with a card reference, for example %s(string).", name, name)
			return nil
		}
		call, ok := item.(*hclsyntax.FunctionCallExpr)
		if !ok {
			a.errorf(item.Range(), "Unsupported decorator", "Method decorators must be field construct calls.")
			return nil
		}
		if call.Name == adoptsConstruct {
			a.errorf(call.NameRange, "Misplaced adopts", "adopts may only annotate the card itself, not the method %q.", method)
			return nil
		}
		if _, isField := fieldConstructs[call.Name]; !isField {
			a.errorf(call.NameRange, "Unsupported decorator", "Unknown method decorator %q.", call.Name)
			return nil
		}
		if found != nil {
			a.errorf(call.NameRange, "Multiple field constructs", "Method %q is already annotated with %s.", method, found.Name)
			return nil
		}
		found = call
	}
	return found
}

func (a *analyzer) boolAttr(body *hclsyntax.Body, name string) (bool, bool) {
	attr, ok := body.Attributes[name]
	if !ok {
		return false, true
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		a.diags = append(a.diags, diags...)
		return false, false
	}
	var out bool
	if err := gocty.FromCtyValue(v, &out); err != nil {
		a.errorf(attr.Expr.Range(), "Invalid "+name, "%s must be a literal bool: %s.", name, err)
		return false, false
	}
	return out, true
}
