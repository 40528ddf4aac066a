// Package corpus loads the rulebook and builds the immutable searchable
// index over it.
//
// A Corpus combines three things per rule: the rule itself, a precomputed
// semantic vector for the rule's search text (supplied by the external
// embedding provider), and the compiled form of the rule's condition
// (compiled once, with compile failures memoized so malformed rulebook
// entries surface as per-rule skips at audit time instead of aborting the
// build).
//
// The corpus is built once and read-only for the lifetime of the process;
// concurrent audit runs share it without locking. Hot reload is handled by
// swapping in a freshly built Corpus between runs; see Watcher.
package corpus
