// Package retrieval ranks corpus rules by relevance to a financial record.
//
// The ranker blends two signals per rule:
//
//   - keyword: the fraction of the rule's trigger keywords present in the
//     record (exact match against the record's keyword set, or substring
//     match against its raw text)
//   - semantic: cosine similarity between the record-text embedding and
//     the rule's precomputed embedding
//
// blended = alpha*keyword + (1-alpha)*semantic, alpha default 0.3 so the
// semantic signal dominates. Rules below the threshold are excluded and
// ties break by rule identifier ascending, making retrieval deterministic
// and idempotent. An empty result is a valid outcome, not an error.
package retrieval
