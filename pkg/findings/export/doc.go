// Package export writes persisted audit runs to external formats.
//
// Two exporters are provided:
//
//   - JSON: the runs as stored, with optional pretty-printing
//   - CSV: a flattened schema with one row per finding
//
// Both exporters stream to an io.Writer and return an ExportError
// wrapping the underlying encoding or write failure.
package export
