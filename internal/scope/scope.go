// Package scope implements a lexical scope stack for template passes.
//
// Template block constructs bind names for the nodes inside their body only.
// Some constructs go further and bind a name differently for each copy of a
// body, so a lookup has to consider which node is being visited and not just
// which scope is current. A binding can therefore carry overrides keyed by
// subtree root; the closest enclosing root on the visited path wins.
//
// A Tracker is not safe for concurrent use. Each template pass owns one.
package scope

// Option configures a single Assign call.
type Option[N comparable] struct {
	inside    N
	hasInside bool
	next      bool
}

// Inside restricts an assignment to the subtree rooted at node.
func Inside[N comparable](node N) Option[N] {
	return Option[N]{inside: node, hasInside: true}
}

// OnNextScope records the assignment in the scope the next Push creates
// instead of the current one.
func OnNextScope[N comparable]() Option[N] {
	return Option[N]{next: true}
}

type override[N comparable, V any] struct {
	node  N
	value V
}

type binding[N comparable, V any] struct {
	assigned  bool
	hasValue  bool
	value     V
	overrides []override[N, V]
}

// Tracker is a stack of scopes mapping names to bindings. N is the node
// identity type used for subtree overrides and V the bound value type.
type Tracker[N comparable, V any] struct {
	scopes  []map[string]*binding[N, V]
	pending map[string]*binding[N, V]
}

// New returns a tracker holding a single, empty root scope.
func New[N comparable, V any]() *Tracker[N, V] {
	return &Tracker[N, V]{
		scopes: []map[string]*binding[N, V]{{}},
	}
}

// Depth reports the number of scopes on the stack, including the root.
func (t *Tracker[N, V]) Depth() int {
	return len(t.scopes)
}

// Push enters a new scope. Each name is declared as a normal binding unless
// a pending OnNextScope assignment exists for it. Pending assignments for
// other names are moved into the new scope as well.
func (t *Tracker[N, V]) Push(names ...string) {
	s := make(map[string]*binding[N, V], len(names)+len(t.pending))
	for _, name := range names {
		s[name] = &binding[N, V]{}
	}
	for name, b := range t.pending {
		s[name] = b
	}
	t.pending = nil
	t.scopes = append(t.scopes, s)
}

// Pop leaves the current scope. The root scope is never removed.
func (t *Tracker[N, V]) Pop() {
	if len(t.scopes) == 1 {
		panic("scope: pop of the root scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Declare adds normal bindings to the current scope. A normal binding
// shadows outer bindings without providing a value.
func (t *Tracker[N, V]) Declare(names ...string) {
	top := t.scopes[len(t.scopes)-1]
	for _, name := range names {
		top[name] = &binding[N, V]{}
	}
}

// Assign binds name to value in the current scope, or in the next one with
// OnNextScope. With Inside the value applies only to lookups whose path
// passes through the given node.
func (t *Tracker[N, V]) Assign(name string, value V, opts ...Option[N]) {
	var o Option[N]
	for _, opt := range opts {
		if opt.hasInside {
			o.inside, o.hasInside = opt.inside, true
		}
		if opt.next {
			o.next = true
		}
	}

	target := t.scopes[len(t.scopes)-1]
	if o.next {
		if t.pending == nil {
			t.pending = make(map[string]*binding[N, V])
		}
		target = t.pending
	}

	b, ok := target[name]
	if !ok {
		b = &binding[N, V]{}
		target[name] = b
	}
	b.assigned = true
	if o.hasInside {
		b.overrides = append(b.overrides, override[N, V]{node: o.inside, value: value})
		return
	}
	b.value, b.hasValue = value, true
}

// Lookup resolves name for a node whose ancestry, root first, is path.
// It reports false when the name is unbound, bound normally, or bound
// without a value that applies to path.
func (t *Tracker[N, V]) Lookup(name string, path []N) (V, bool) {
	var zero V
	for i := len(t.scopes) - 1; i >= 0; i-- {
		b, ok := t.scopes[i][name]
		if !ok {
			continue
		}
		if !b.assigned {
			return zero, false
		}
		if v, ok := b.closest(path); ok {
			return v, true
		}
		if b.hasValue {
			return b.value, true
		}
	}
	return zero, false
}

// closest returns the override whose node appears deepest in path.
func (b *binding[N, V]) closest(path []N) (V, bool) {
	var (
		best  V
		depth = -1
	)
	for _, o := range b.overrides {
		for i := len(path) - 1; i > depth; i-- {
			if path[i] == o.node {
				best, depth = o.value, i
				break
			}
		}
	}
	return best, depth >= 0
}
