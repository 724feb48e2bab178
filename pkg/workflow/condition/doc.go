// Package condition evaluates branch expressions for condition-type steps.
//
// Expressions are a deliberately small comparison grammar, not a general
// expression language: there is no function call, no arithmetic, and no way
// to reach code from an expression string. A workflow definition is data,
// and this package keeps it that way.
//
// An expression is one of:
//
//   - the literal "true" or "false"
//   - <key> <op> <literal>, where op is one of >=, <=, ==, !=,
//     "not in", "in", >, <
//   - a bare context key, evaluated for truthiness
//
// The left-hand side always names a key in the data context. The right-hand
// side is a literal: a bracketed list ([1, 2, 3] or ['a', 'b']), a quoted or
// bare string, an integer, a float, or a boolean.
//
// Example expressions:
//
//	count > 10
//	status == 'active'
//	type in ['invoice', 'receipt']
//	region not in ["eu-west", "eu-central"]
//	enabled
//
// Evaluation is fail-closed: a missing key, a malformed literal, or a type
// mismatch yields false with a warning log, never an error. A branch stuck
// on false is recoverable; one stuck on true may not be.
package condition
