// Package expr parses and evaluates the HCL expressions that back computed
// card fields, and reports which variables and functions they use.
package expr
