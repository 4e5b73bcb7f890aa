// Package dag is a small concurrency-safe directed graph used to order card
// compilation across a realm. Nodes are card URLs and an edge from a to b
// records that b depends on a, either as its parent or as a field target.
//
// Ordering is deterministic: nodes, dependencies and dependents are kept in
// insertion order, so the same realm always produces the same topological
// order and the same reported cycle.
package dag
