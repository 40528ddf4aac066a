// Package audit drives a financial record through retrieval and
// per-rule evaluation, accumulating findings.
//
// A run is a small state machine: Initialized, Retrieving, then one
// Evaluating step per candidate rule, ending in Completed or Aborted.
// Per-rule failures never terminate a run; they become indeterminate
// findings or skip entries. Only infrastructure unavailability after
// exhausted retries, a corrupted record detected before the loop, and
// explicit cancellation abort a run, and an aborted result still
// carries every finding accumulated before the abort.
//
// Within one run rule evaluation is strictly sequential, because later
// rules may reference earlier findings through their related-rule
// identifiers. Concurrency happens across runs: the Pool executes
// independent runs on a bounded set of workers over the shared
// read-only corpus.
package audit
