// internal/fieldpath/doc.go

/*
Package fieldpath provides a structured representation of dotted field paths
such as `author.name` or `items[0].title`.

Paths address data inside a card instance (setters, used-field lists) and
fields inside a compiled card (template references). The package centralises
parsing and formatting so every stage agrees on the grammar.
*/
package fieldpath
