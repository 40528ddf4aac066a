package corpus

import (
	"fmt"

	"ledgerhawk-hq/ledgerhawk/pkg/expr"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// IssueKind categorizes a rulebook validation issue.
type IssueKind string

const (
	IssueDuplicateID     IssueKind = "duplicate-id"
	IssueSyntax          IssueKind = "syntax"
	IssueDanglingRelated IssueKind = "dangling-related"
	IssueStructural      IssueKind = "structural"
)

// Issue is one rulebook defect found during validation.
type Issue struct {
	// RuleID identifies the offending rule ("" for file-level issues).
	RuleID string

	// Kind categorizes the issue.
	Kind IssueKind

	// Message describes the defect.
	Message string
}

// String formats the issue for lint output.
func (i Issue) String() string {
	if i.RuleID == "" {
		return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("[%s] rule %s: %s", i.Kind, i.RuleID, i.Message)
}

// Validate lints a rule set against the external rulebook contract:
// unique identifiers, compilable conditions, and no dangling related-rule
// references. It returns every issue found rather than stopping at the
// first, so rule authors can fix a rulebook in one pass.
func Validate(rules []*rule.Rule, opts *expr.Options) []Issue {
	var issues []Issue

	ids := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			issues = append(issues, Issue{RuleID: r.ID, Kind: IssueStructural, Message: err.Error()})
			continue
		}
		if ids[r.ID] {
			issues = append(issues, Issue{RuleID: r.ID, Kind: IssueDuplicateID, Message: "identifier appears more than once"})
			continue
		}
		ids[r.ID] = true
	}

	cache := expr.NewCache(opts)
	for _, r := range rules {
		if r.HasCondition() {
			if _, err := cache.Get(r.Condition); err != nil {
				issues = append(issues, Issue{RuleID: r.ID, Kind: IssueSyntax, Message: err.Error()})
			}
		}
		for _, rel := range r.Related {
			if !ids[rel] {
				issues = append(issues, Issue{
					RuleID:  r.ID,
					Kind:    IssueDanglingRelated,
					Message: fmt.Sprintf("related rule %q does not exist", rel),
				})
			}
		}
	}

	return issues
}
