package findings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the outcome of evaluating one rule against one record.
type Verdict int

const (
	// VerdictCompliant means the condition held, or the judge found no
	// violation.
	VerdictCompliant Verdict = iota

	// VerdictViolation means the rule was breached.
	VerdictViolation

	// VerdictInapplicable means the rule does not apply to the record.
	VerdictInapplicable

	// VerdictIndeterminate means evaluation could not reach a
	// conclusion, for example a field missing from the record or a
	// failed judge call.
	VerdictIndeterminate
)

var verdictNames = map[Verdict]string{
	VerdictCompliant:     "compliant",
	VerdictViolation:     "violation",
	VerdictInapplicable:  "inapplicable",
	VerdictIndeterminate: "indeterminate",
}

// String returns the lowercase verdict name.
func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// ParseVerdict parses a verdict name, case-insensitively.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compliant":
		return VerdictCompliant, nil
	case "violation":
		return VerdictViolation, nil
	case "inapplicable":
		return VerdictInapplicable, nil
	case "indeterminate":
		return VerdictIndeterminate, nil
	default:
		return 0, fmt.Errorf("unknown verdict %q", s)
	}
}

// MarshalJSON encodes the verdict as its name.
func (v Verdict) MarshalJSON() ([]byte, error) {
	name, ok := verdictNames[v]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown verdict %d", int(v))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a verdict from its name.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseVerdict(name)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
