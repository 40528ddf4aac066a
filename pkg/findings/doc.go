// Package findings defines the audit outcome model: the verdict for a
// single rule, the finding that carries it, and the persisted record of
// a completed run.
//
// Persistence backends live in the storage subpackage, scheduled pruning
// in the retention subpackage.
package findings
