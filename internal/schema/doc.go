// Package schema analyzes card definitions written in HCL.
//
// A schema file holds import blocks that bind local names to other cards, and
// exactly one card block. Inside the card block, members whose value is a
// field construct call (contains, containsMany, linksTo) declare fields, and
// method blocks may declare computed fields through their decorators. The
// analyzer never evaluates these calls. It validates their shape on the
// syntax tree and reports every problem as an hcl.Diagnostic pointing at the
// offending source range.
package schema
