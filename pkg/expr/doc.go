// Package expr implements the restricted expression language used by audit
// rule conditions.
//
// Conditions are short boolean or numeric expressions over named financial
// fields, e.g. "流动比率 > 1.2" or "abs(经营现金流 - 净利润) / 净利润 > 0.5".
// The language is deliberately small: a fixed set of pure operators
// (arithmetic, comparison, boolean combinators) and a fixed whitelist of
// pure functions (abs, min, max, sum, count, len). There are no loops, no
// recursion, no assignment, and no name resolution beyond Environment
// lookups, so evaluation always terminates in time proportional to the
// size of the expression tree.
//
// # Compilation and Evaluation
//
// Conditions are compiled once into a Program and evaluated many times:
//
//	prog, err := expr.Compile("流动比率 > 1.2", nil)
//	if err != nil {
//	    // *SyntaxError: malformed condition (a rulebook defect)
//	}
//
//	ok, err := prog.EvalBool(expr.Environment{"流动比率": 0.9})
//
// Evaluation is a pure function of (Program, Environment). Failures are
// typed so callers can distinguish rulebook defects from data mismatches:
//
//   - *SyntaxError: rejected at compile time (unknown token, operator, or
//     function outside the whitelist, nesting too deep, input too long)
//   - *UnboundFieldError: an identifier has no value in the Environment
//   - *ArithmeticError: division or modulo by zero
//   - *TypeError: operand types incompatible with the operator or function
//
// # Numeric Model
//
// Integer operands stay integral through +, -, *, % and widen to floating
// point on mixed arithmetic; / always produces a float. Equality between
// integers is exact; any comparison involving a float uses an epsilon
// tolerance (default 1e-6) because source financial figures are rounded.
//
// Identifiers may contain any Unicode letters, so Chinese financial field
// names are ordinary identifiers.
package expr
