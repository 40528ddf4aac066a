package corpus

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"ledgerhawk-hq/ledgerhawk/pkg/expr"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// Embedder produces a fixed-length numeric vector for arbitrary input
// text. The corpus treats vectors as opaque; it performs no embedding
// computation itself. Implementations must be deterministic for identical
// input within a run.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// programEntry memoizes the compile result for one rule's condition.
type programEntry struct {
	prog *expr.Program
	err  error
}

// Corpus is the immutable indexed rule set. It is safe for concurrent
// reads from any number of audit runs.
type Corpus struct {
	rules    []*rule.Rule // sorted by ID ascending
	byID     map[string]*rule.Rule
	vectors  map[string][]float32
	programs map[string]programEntry
}

// LoadRules reads the rulebook JSONL file. Malformed lines and duplicate
// identifiers violate the external rulebook contract and fail the load
// with the offending line number.
func LoadRules(path string) ([]*rule.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rulebook %q: %w", path, err)
	}
	defer f.Close()

	var rules []*rule.Rule
	seen := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		r, err := rule.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("rulebook %q line %d: %w", path, lineNum, err)
		}
		if prev, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("rulebook %q line %d: duplicate identifier %q (first seen at line %d)",
				path, lineNum, r.ID, prev)
		}
		seen[r.ID] = lineNum
		rules = append(rules, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rulebook %q: %w", path, err)
	}

	return rules, nil
}

// Build indexes the rule set: it embeds each rule's search text through
// the embedding provider and compiles each deterministic condition. Build
// must complete before retrieval; a rule whose condition fails to compile
// is still indexed (the workflow skips it with a data-quality log) but an
// embedding failure fails the build, since a corpus with missing vectors
// could silently never match those rules.
func Build(ctx context.Context, rules []*rule.Rule, embedder Embedder, opts *expr.Options) (*Corpus, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	logger := slog.Default().With("component", "corpus")

	sorted := make([]*rule.Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Corpus{
		rules:    sorted,
		byID:     make(map[string]*rule.Rule, len(sorted)),
		vectors:  make(map[string][]float32, len(sorted)),
		programs: make(map[string]programEntry),
	}

	cache := expr.NewCache(opts)
	defects := 0

	for _, r := range sorted {
		if _, ok := c.byID[r.ID]; ok {
			return nil, fmt.Errorf("duplicate rule identifier %q", r.ID)
		}
		c.byID[r.ID] = r

		vec, err := embedder.Embed(ctx, r.SearchText())
		if err != nil {
			return nil, fmt.Errorf("failed to embed rule %q: %w", r.ID, err)
		}
		c.vectors[r.ID] = vec

		if r.HasCondition() {
			prog, err := cache.Get(r.Condition)
			c.programs[r.ID] = programEntry{prog: prog, err: err}
			if err != nil {
				defects++
				logger.Warn("rule condition failed to compile",
					"rule_id", r.ID,
					"error", err,
				)
			}
		}
	}

	logger.Info("corpus built",
		"rules", len(sorted),
		"condition_defects", defects,
	)
	return c, nil
}

// Len returns the number of indexed rules.
func (c *Corpus) Len() int {
	return len(c.rules)
}

// Rules returns all rules ordered by identifier ascending. The returned
// slice must not be modified.
func (c *Corpus) Rules() []*rule.Rule {
	return c.rules
}

// Get returns the rule with the given identifier.
func (c *Corpus) Get(id string) (*rule.Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Vector returns the precomputed semantic vector for a rule.
func (c *Corpus) Vector(id string) []float32 {
	return c.vectors[id]
}

// Program returns the compiled condition for a rule, or the memoized
// compile error for a malformed condition. Rules without a deterministic
// condition return (nil, nil).
func (c *Corpus) Program(id string) (*expr.Program, error) {
	entry, ok := c.programs[id]
	if !ok {
		return nil, nil
	}
	return entry.prog, entry.err
}
