package glimmer

// CloneNodes returns a deep copy of nodes. Node identity matters to scope
// lookups, so every copy is a fresh pointer.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = CloneNode(n)
	}
	return out
}

// CloneNode returns a deep copy of n.
func CloneNode(n Node) Node {
	switch n := n.(type) {
	case *Text:
		c := *n
		return &c
	case *Comment:
		c := *n
		return &c
	case *Mustache:
		return &Mustache{Call: cloneCall(n.Call), Trusting: n.Trusting}
	case *Block:
		return &Block{
			Call:        cloneCall(n.Call),
			BlockParams: append([]string(nil), n.BlockParams...),
			Program:     CloneNodes(n.Program),
			Inverse:     CloneNodes(n.Inverse),
			HasInverse:  n.HasInverse,
			Chained:     n.Chained,
		}
	case *Element:
		el := &Element{
			Tag:         n.Tag,
			BlockParams: append([]string(nil), n.BlockParams...),
			Children:    CloneNodes(n.Children),
			SelfClosing: n.SelfClosing,
		}
		for _, a := range n.Attrs {
			attr := &Attr{Name: a.Name}
			if a.Value != nil {
				attr.Value = CloneNode(a.Value)
			}
			el.Attrs = append(el.Attrs, attr)
		}
		for _, m := range n.Modifiers {
			el.Modifiers = append(el.Modifiers, CloneNode(m).(*Mustache))
		}
		return el
	case *Concat:
		return &Concat{Parts: CloneNodes(n.Parts)}
	case *Fragment:
		return &Fragment{Body: CloneNodes(n.Body)}
	}
	return n
}

// CloneExpr returns a deep copy of e.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *PathExpr:
		return NewPath(e.Head, e.Tail...)
	case *SubExpr:
		return &SubExpr{Call: cloneCall(e.Call)}
	case *StringLit:
		c := *e
		return &c
	case *NumberLit:
		c := *e
		return &c
	case *BoolLit:
		c := *e
		return &c
	case *NullLit:
		return &NullLit{}
	case *UndefinedLit:
		return &UndefinedLit{}
	}
	return e
}

func cloneCall(c Call) Call {
	out := Call{Path: CloneExpr(c.Path)}
	for _, p := range c.Params {
		out.Params = append(out.Params, CloneExpr(p))
	}
	for _, h := range c.Hash {
		out.Hash = append(out.Hash, Pair{Key: h.Key, Value: CloneExpr(h.Value)})
	}
	return out
}
