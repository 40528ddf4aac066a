package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// stubEmbedder returns a fixed vector per distinct input, deterministic
// within the test.
type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	// Cheap deterministic "embedding": rune-count bucket.
	return []float32{float32(len([]rune(text))), 1, 0}, nil
}

func testRules() []*rule.Rule {
	return []*rule.Rule{
		{
			ID:        "FM-002",
			Category:  "FM",
			Subject:   "现金流背离",
			Keywords:  []string{"经营现金流", "净利润"},
			Condition: "abs(经营现金流 - 净利润) / 净利润 > 0.5",
			Severity:  rule.SeverityHigh,
		},
		{
			ID:        "CL-001",
			Category:  "CL",
			Subject:   "流动比率过低",
			Keywords:  []string{"流动比率"},
			Condition: "流动比率 < 1.2",
			Severity:  rule.SeverityMedium,
			Related:   []string{"FM-002"},
		},
		{
			ID:       "LC-009",
			Category: "LC",
			Subject:  "关联交易披露",
			Keywords: []string{"关联交易"},
			Severity: rule.SeverityLow,
		},
		{
			ID:        "OP-004",
			Category:  "OP",
			Subject:   "坏条件",
			Keywords:  []string{"坏"},
			Condition: "eval(x)",
			Severity:  rule.SeverityLow,
		},
	}
}

// TestBuild tests corpus construction and lookups.
func TestBuild(t *testing.T) {
	c, err := Build(context.Background(), testRules(), &stubEmbedder{}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}

	// Rules are ordered by identifier ascending.
	wantOrder := []string{"CL-001", "FM-002", "LC-009", "OP-004"}
	for i, r := range c.Rules() {
		if r.ID != wantOrder[i] {
			t.Errorf("Rules()[%d].ID = %q, want %q", i, r.ID, wantOrder[i])
		}
	}

	if _, ok := c.Get("CL-001"); !ok {
		t.Error("Get(CL-001) not found")
	}
	if vec := c.Vector("FM-002"); len(vec) != 3 {
		t.Errorf("Vector(FM-002) length = %d, want 3", len(vec))
	}

	// Compiled condition is available.
	prog, err := c.Program("CL-001")
	if err != nil || prog == nil {
		t.Fatalf("Program(CL-001) = %v, %v", prog, err)
	}

	// No-condition rule returns (nil, nil).
	prog, err = c.Program("LC-009")
	if prog != nil || err != nil {
		t.Errorf("Program(LC-009) = %v, %v, want nil, nil", prog, err)
	}

	// Malformed condition is indexed with a memoized compile error.
	_, err = c.Program("OP-004")
	if err == nil {
		t.Error("Program(OP-004) succeeded, want memoized SyntaxError")
	}
}

// TestLoadRules tests JSONL loading including contract violations.
func TestLoadRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid rulebook", func(t *testing.T) {
		path := filepath.Join(dir, "rules.jsonl")
		content := `{"identifier":"CL-001","category":"CL","subject":"流动比率过低","keywords":["流动比率"],"condition":"流动比率 < 1.2","severity":"medium","description":"d"}

{"identifier":"FM-002","category":"FM","subject":"现金流背离","severity":"high","description":"d"}
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		rules, err := LoadRules(path)
		if err != nil {
			t.Fatalf("LoadRules failed: %v", err)
		}
		if len(rules) != 2 {
			t.Errorf("len(rules) = %d, want 2 (blank lines skipped)", len(rules))
		}
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		path := filepath.Join(dir, "dup.jsonl")
		content := `{"identifier":"CL-001","subject":"a","severity":"low","description":"d"}
{"identifier":"CL-001","subject":"b","severity":"low","description":"d"}
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRules(path); err == nil {
			t.Fatal("LoadRules succeeded, want duplicate identifier error")
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jsonl")
		if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRules(path); err == nil {
			t.Fatal("LoadRules succeeded, want parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRules(filepath.Join(dir, "absent.jsonl")); err == nil {
			t.Fatal("LoadRules succeeded, want open error")
		}
	})
}

// TestValidate tests rulebook linting.
func TestValidate(t *testing.T) {
	rules := []*rule.Rule{
		{ID: "CL-001", Subject: "a", Related: []string{"NO-SUCH"}},
		{ID: "CL-001", Subject: "b"},
		{ID: "OP-004", Subject: "c", Condition: "eval(x)"},
		{ID: "FM-002", Subject: "d", Condition: "净利润 > 0", Related: []string{"CL-001"}},
	}

	issues := Validate(rules, nil)

	kinds := make(map[IssueKind]int)
	for _, issue := range issues {
		kinds[issue.Kind]++
	}
	if kinds[IssueDuplicateID] != 1 {
		t.Errorf("duplicate-id issues = %d, want 1", kinds[IssueDuplicateID])
	}
	if kinds[IssueSyntax] != 1 {
		t.Errorf("syntax issues = %d, want 1", kinds[IssueSyntax])
	}
	if kinds[IssueDanglingRelated] != 1 {
		t.Errorf("dangling-related issues = %d, want 1", kinds[IssueDanglingRelated])
	}
}
