package glimmer

import "strings"

// Print renders nodes back to template source.
func Print(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		printNode(&sb, n)
	}
	return sb.String()
}

// String renders the template back to source.
func (t *Template) String() string {
	return Print(t.Body)
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var sb strings.Builder
	printExpr(&sb, e)
	return sb.String()
}

func printNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		sb.WriteString(n.Value)
	case *Comment:
		if n.Long {
			sb.WriteString("{{!--" + n.Value + "--}}")
		} else {
			sb.WriteString("{{!" + n.Value + "}}")
		}
	case *Mustache:
		if n.Trusting {
			sb.WriteString("{{{")
			printCall(sb, &n.Call)
			sb.WriteString("}}}")
		} else {
			sb.WriteString("{{")
			printCall(sb, &n.Call)
			sb.WriteString("}}")
		}
	case *Block:
		sb.WriteString("{{#")
		printCall(sb, &n.Call)
		printBlockParams(sb, n.BlockParams)
		sb.WriteString("}}")
		printBlockTail(sb, n)
		sb.WriteString("{{/" + n.HeadName() + "}}")
	case *Element:
		printElement(sb, n)
	case *Concat:
		for _, part := range n.Parts {
			printNode(sb, part)
		}
	case *Fragment:
		for _, child := range n.Body {
			printNode(sb, child)
		}
	}
}

// printBlockTail prints the program and inverse of b, following chains of
// {{else name}} blocks.
func printBlockTail(sb *strings.Builder, b *Block) {
	for _, child := range b.Program {
		printNode(sb, child)
	}
	if !b.HasInverse {
		return
	}
	if len(b.Inverse) == 1 {
		if chained, ok := b.Inverse[0].(*Block); ok && chained.Chained {
			sb.WriteString("{{else ")
			printCall(sb, &chained.Call)
			printBlockParams(sb, chained.BlockParams)
			sb.WriteString("}}")
			printBlockTail(sb, chained)
			return
		}
	}
	sb.WriteString("{{else}}")
	for _, child := range b.Inverse {
		printNode(sb, child)
	}
}

func printBlockParams(sb *strings.Builder, params []string) {
	if len(params) == 0 {
		return
	}
	sb.WriteString(" as |" + strings.Join(params, " ") + "|")
}

func printElement(sb *strings.Builder, el *Element) {
	sb.WriteString("<" + el.Tag)
	for _, attr := range el.Attrs {
		sb.WriteString(" " + attr.Name)
		if attr.Value == nil {
			continue
		}
		sb.WriteByte('=')
		switch v := attr.Value.(type) {
		case *Text:
			sb.WriteString(quote(v.Value))
		case *Concat:
			sb.WriteByte('"')
			printNode(sb, v)
			sb.WriteByte('"')
		default:
			printNode(sb, v)
		}
	}
	for _, m := range el.Modifiers {
		sb.WriteByte(' ')
		printNode(sb, m)
	}
	printBlockParams(sb, el.BlockParams)
	if el.SelfClosing {
		sb.WriteString(" />")
		return
	}
	sb.WriteByte('>')
	if voidElements[el.Tag] && len(el.Children) == 0 {
		return
	}
	for _, child := range el.Children {
		printNode(sb, child)
	}
	sb.WriteString("</" + el.Tag + ">")
}

func printCall(sb *strings.Builder, c *Call) {
	printExpr(sb, c.Path)
	for _, param := range c.Params {
		sb.WriteByte(' ')
		printExpr(sb, param)
	}
	for _, pair := range c.Hash {
		sb.WriteString(" " + pair.Key + "=")
		printExpr(sb, pair.Value)
	}
}

func printExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *PathExpr:
		sb.WriteString(e.String())
	case *SubExpr:
		sb.WriteByte('(')
		printCall(sb, &e.Call)
		sb.WriteByte(')')
	case *StringLit:
		sb.WriteString(quote(e.Value))
	case *NumberLit:
		sb.WriteString(e.Raw)
	case *BoolLit:
		if e.Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *NullLit:
		sb.WriteString("null")
	case *UndefinedLit:
		sb.WriteString("undefined")
	}
}

// quote picks the quote character that needs no escaping.
func quote(s string) string {
	if strings.Contains(s, `"`) && !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
