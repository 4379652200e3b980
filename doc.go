// Package equation compiles curve equations into trees that can be evaluated
// over and over with different variable values.
//
// The syntax is deliberately small. Numbers are digits and dots. "x" is the
// independent variable, "pi" and "e" are the usual constants, and "$" followed
// by letters names a parameter, e.g. "$a*x^2+$b*x+$c". The unary functions are
// abs, arcsin, arccos, arctan, sin, cos, tan, log (base 10), and ln, written
// as "sin(x)". The binary operators are + - * / % and ^. Everything is
// case-insensitive, and the source must not contain whitespace.
//
// Binary operators are grouped into three tiers, ^ then * / % then + -, and
// within a tier they apply left to right, so "2^3^2" is 64. Negation binds
// tighter than every binary operator: "-2^2" is 4. A minus directly after an
// operand is subtraction; anywhere else it is negation.
//
// Compiling an expression registers every name it uses in a Registry. The
// tree reads variable values from that Registry each time it is evaluated, so
// a curve fitter can write parameter values and x into the Registry and then
// evaluate the same tree for every sample.
package equation
