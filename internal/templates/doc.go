// Package templates analyzes and rewrites card templates.
//
// Templates refer to the card's fields through two namespaces: @fields.<path>
// renders the component of a field, @model.<path> reads raw data. Analyze
// records which paths a template reads, in which format, so the compiler can
// flatten them into the data a format needs. Transform replaces every field
// reference with an invocation of the field card's compiled component, or
// with that component's inline template when it has one.
//
// Two block idioms bind local names to fields:
//
//	{{#each-in @fields as |name Field|}}<Field />{{/each-in}}
//	{{#each @fields.items as |item|}}<item />{{/each}}
//
// Local names are tracked with a scope.Tracker so that a loop variable
// shadows an outer binding only inside the loop body.
package templates
