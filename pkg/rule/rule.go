package rule

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rule is a single regulatory check. Rules are immutable once loaded; the
// corpus is read-only during an audit run.
type Rule struct {
	// ID is the unique, stable rule identifier (e.g. "CL-001").
	ID string `json:"identifier"`

	// Category is the rule's category tag (e.g. "CL", "FM", "LC", "OP").
	Category string `json:"category"`

	// Subject is the human-readable rule title.
	Subject string `json:"subject"`

	// Keywords are the trigger keywords matched against record text.
	Keywords []string `json:"keywords"`

	// Condition is the optional compliance expression in the restricted
	// expression language. Empty means the rule has no deterministic
	// condition and is judged by the LLM capability.
	Condition string `json:"condition,omitempty"`

	// Severity is the rule's severity level.
	Severity Severity `json:"severity"`

	// Description is the detailed rule description.
	Description string `json:"description"`

	// Source is an optional reference to the regulation the rule encodes.
	Source string `json:"source,omitempty"`

	// Related lists identifiers of related rules; earlier findings for
	// related rules are attached as contextual evidence.
	Related []string `json:"related,omitempty"`

	// Procedures lists recommended audit procedure steps.
	Procedures []string `json:"procedures,omitempty"`
}

// HasCondition reports whether the rule carries a deterministic condition.
func (r *Rule) HasCondition() bool {
	return strings.TrimSpace(r.Condition) != ""
}

// SearchText returns the text embedded and searched for this rule:
// subject, trigger keywords, and description.
func (r *Rule) SearchText() string {
	parts := make([]string, 0, 3)
	if r.Subject != "" {
		parts = append(parts, r.Subject)
	}
	if len(r.Keywords) > 0 {
		parts = append(parts, strings.Join(r.Keywords, " "))
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	return strings.Join(parts, " ")
}

// Validate checks the structural invariants of a single rule.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("rule has empty identifier")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("rule %q has empty subject", r.ID)
	}
	return nil
}

// ParseLine parses a single JSONL line into a Rule.
func ParseLine(line []byte) (*Rule, error) {
	var r Rule
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("malformed rule record: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
