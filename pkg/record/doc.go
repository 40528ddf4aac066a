// Package record defines the structured financial record consumed by the
// audit engine.
//
// Records are produced by the external ingestion collaborator (document
// parsing and OCR) and arrive already validated and unit-normalized:
// currency magnitudes are resolved to a single base unit. A record maps
// natural-language field names to numeric or textual values and carries the
// free text extracted from the source document. The engine treats records
// as read-only.
package record
