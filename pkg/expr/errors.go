package expr

import "fmt"

// SyntaxError reports a condition that could not be compiled: an unknown
// token, an operator or function outside the whitelist, unbalanced
// parentheses, or an expression exceeding the configured size limits.
// A SyntaxError is a rulebook defect, not a property of the audited data.
type SyntaxError struct {
	// Offset is the byte offset into the condition source (0-based).
	Offset int

	// Token is the offending token text, if any.
	Token string

	// Message describes the problem.
	Message string

	// Suggestion is an optional hint for the rule author.
	Suggestion string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
	if e.Token != "" {
		msg += fmt.Sprintf(" (near %q)", e.Token)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; suggestion: %s", e.Suggestion)
	}
	return msg
}

// UnboundFieldError reports an identifier that has no value in the
// Environment. Evaluation never silently defaults a missing field.
type UnboundFieldError struct {
	// Field is the identifier that could not be resolved.
	Field string
}

// Error implements the error interface.
func (e *UnboundFieldError) Error() string {
	return fmt.Sprintf("unbound field %q", e.Field)
}

// ArithmeticError reports an invalid arithmetic operation, currently
// division or modulo by zero. A silently-infinite ratio would corrupt
// downstream severity logic, so the failure is surfaced instead.
type ArithmeticError struct {
	// Op is the operator that failed ("/" or "%").
	Op string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %q: %s", e.Op, e.Message)
}

// TypeError reports operand types incompatible with an operator or
// function, e.g. multiplying a string. Like UnboundFieldError it is an
// evaluation-time data mismatch, not a rulebook defect.
type TypeError struct {
	// Op is the operator or function involved.
	Op string

	// Message describes the mismatch.
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error in %q: %s", e.Op, e.Message)
}
