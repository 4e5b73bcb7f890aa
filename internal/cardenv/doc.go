// Package cardenv is the local CardEnv: the collaborator a card model uses to
// load cards, persist changes and prepare its components.
//
// Env keeps instance cards in the in-memory realms of a realm.Union and
// compiles them through a builder.Builder. Created cards get a fresh URL
// inside the target realm; every write is compiled before it is accepted, and
// a write that does not compile is rolled back.
//
// Env is safe for concurrent use. Writes to the same card are serialized;
// the last write wins.
package cardenv
