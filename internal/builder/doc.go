/*
Package builder is the concrete Builder the compiler runs against. It joins
three collaborators:

 1. Source: where raw card definitions come from, usually a realm.

 2. Compiled card memo: an LRU cache keyed by card URL. Each card is compiled
    at most once while it stays cached, so the compiled cards referenced by
    fields and parents are shared rather than rebuilt.

 3. Module registry: every schema module, component module and asset the
    compiler defines is stored there under a stable moduleRef.

Cycle safety does not come from the memo. The compiler records the chain of
card URLs it is compiling in the context, and the builder passes that context
through to nested compiles, so a card that depends on itself fails fast.

When a card changes, Invalidate evicts it together with every cached card
that depends on it, directly or through a parent or field target, and drops
its modules from the registry.
*/
package builder
