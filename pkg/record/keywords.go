package record

import "strings"

// SearchKeywords returns the keyword set used for the retrieval ranker's
// keyword signal: the ingestion-supplied keywords when present, otherwise
// the record's field names. Field names are natural-language financial
// labels, which is exactly what rule trigger keywords are written against.
func (r *Record) SearchKeywords() []string {
	if len(r.Keywords) > 0 {
		out := make([]string, len(r.Keywords))
		copy(out, r.Keywords)
		return out
	}

	out := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		if strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

// SearchText returns the text embedded for the semantic signal. Long
// documents are truncated to bound embedding cost; the head of a financial
// report carries the statements that matter for rule matching.
func (r *Record) SearchText(maxRunes int) string {
	text := r.RawText
	if text == "" {
		// Fall back to field names so fieldless-text-only and
		// text-less-field-only records both embed something.
		text = strings.Join(r.SearchKeywords(), " ")
	}
	if maxRunes <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
