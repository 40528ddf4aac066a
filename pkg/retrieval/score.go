package retrieval

import (
	"math"
	"strings"
)

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0 rather than erroring: a
// rule that cannot be compared is simply not similar.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordScore returns the fraction of the rule's trigger keywords found
// in the record: exact match against the record keyword set or substring
// presence in the record's raw text. A rule without trigger keywords
// scores 0, leaving its ranking to the semantic signal alone.
func keywordScore(triggers []string, recordKeywords []string, rawText string) float64 {
	if len(triggers) == 0 {
		return 0
	}

	keywordSet := make(map[string]bool, len(recordKeywords))
	for _, kw := range recordKeywords {
		keywordSet[kw] = true
	}

	hits := 0
	for _, trigger := range triggers {
		if trigger == "" {
			continue
		}
		if keywordSet[trigger] || (rawText != "" && strings.Contains(rawText, trigger)) {
			hits++
		}
	}
	return float64(hits) / float64(len(triggers))
}

// blend combines the two signals: alpha weights the keyword signal,
// (1-alpha) the semantic signal.
func blend(alpha, keyword, semantic float64) float64 {
	return alpha*keyword + (1-alpha)*semantic
}
