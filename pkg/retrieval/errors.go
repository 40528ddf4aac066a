package retrieval

import "fmt"

// IndexNotBuiltError reports retrieval attempted before the corpus index
// was built. This is a sequencing bug in the caller, never retried.
type IndexNotBuiltError struct{}

// Error implements the error interface.
func (e *IndexNotBuiltError) Error() string {
	return "retrieval attempted before the rule index was built"
}

// EmbeddingUnavailableError reports that the embedding provider could not
// produce a vector for the record text. This is infrastructure
// unavailability; the audit workflow retries it with backoff.
type EmbeddingUnavailableError struct {
	// Cause is the underlying provider error.
	Cause error
}

// Error implements the error interface.
func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding provider unavailable: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Cause
}
