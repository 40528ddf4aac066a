// LedgerHawk audits structured financial records against a rulebook of
// regulatory checks.
//
// It ranks the rulebook against each record with a hybrid keyword and
// semantic retrieval signal, evaluates each candidate rule's compliance
// condition in a sandboxed expression engine, and delegates rules
// without a deterministic condition to a model judge.
//
// Usage:
//
//	# Audit one or more record files
//	ledgerhawk audit record.json another.json
//
//	# Validate the rulebook without running an audit
//	ledgerhawk rules validate
//
//	# Show rulebook and index statistics
//	ledgerhawk rules index
//
//	# Watch the rulebook and re-audit a directory of records on change
//	ledgerhawk watch --records-dir ./records
//
//	# Show version information
//	ledgerhawk version
package main

func main() {
	Execute()
}
