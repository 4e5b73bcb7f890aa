package glimmer

// RewriteExprs replaces every expression below nodes with the result of fn.
// Arguments of a subexpression are rewritten before the subexpression
// itself is handed to fn.
func RewriteExprs(nodes []Node, fn func(Expr) Expr) {
	for _, n := range nodes {
		rewriteNode(n, fn)
	}
}

func rewriteNode(n Node, fn func(Expr) Expr) {
	switch n := n.(type) {
	case *Mustache:
		rewriteCall(&n.Call, fn)
	case *Block:
		rewriteCall(&n.Call, fn)
		RewriteExprs(n.Program, fn)
		RewriteExprs(n.Inverse, fn)
	case *Element:
		for _, attr := range n.Attrs {
			if attr.Value != nil {
				rewriteNode(attr.Value, fn)
			}
		}
		for _, m := range n.Modifiers {
			rewriteCall(&m.Call, fn)
		}
		RewriteExprs(n.Children, fn)
	case *Concat:
		RewriteExprs(n.Parts, fn)
	case *Fragment:
		RewriteExprs(n.Body, fn)
	}
}

func rewriteCall(c *Call, fn func(Expr) Expr) {
	c.Path = rewriteExpr(c.Path, fn)
	for i, p := range c.Params {
		c.Params[i] = rewriteExpr(p, fn)
	}
	for i := range c.Hash {
		c.Hash[i].Value = rewriteExpr(c.Hash[i].Value, fn)
	}
}

func rewriteExpr(e Expr, fn func(Expr) Expr) Expr {
	if sub, ok := e.(*SubExpr); ok {
		rewriteCall(&sub.Call, fn)
	}
	return fn(e)
}
