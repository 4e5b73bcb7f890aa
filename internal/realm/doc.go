// Package realm provides sources of raw card definitions.
//
// A realm is a set of cards sharing a URL prefix. Memory holds cards in
// memory and can be filled from a directory tree with LoadDir, where every
// directory holding a card.json manifest is one card:
//
//	person/
//	  card.json     {"schema": "schema.hcl", "isolated": "isolated.hbs"}
//	  schema.hcl
//	  isolated.hbs
//	  avatar.png
//
// The card's URL is the realm URL joined with the directory path, and every
// other file under the directory becomes one of the card's files, in lexical
// order. Union routes lookups across several realms by URL prefix.
//
// Base returns the bundled base realm at https://cardstack.com/base/ with the
// base card and the string, date and datetime primitives.
package realm
