package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// Config contains ranker configuration. Both the blend weighting and the
// threshold are tuning parameters, not correctness contracts, so they are
// exposed as configuration rather than hard-coded.
type Config struct {
	// Alpha is the keyword-signal weight in the blended score; the
	// semantic signal gets (1-Alpha).
	// Default: 0.3
	Alpha float64

	// Threshold is the minimum blended score for a rule to be selected.
	// Default: 0.35
	Threshold float64

	// TopK is the maximum number of candidate rules returned.
	// Default: 20
	TopK int

	// MaxQueryRunes truncates the record text embedded as the semantic
	// query, bounding embedding cost.
	// Default: 1000
	MaxQueryRunes int
}

// DefaultConfig returns the default ranker configuration.
func DefaultConfig() *Config {
	return &Config{
		Alpha:         0.3,
		Threshold:     0.35,
		TopK:          20,
		MaxQueryRunes: 1000,
	}
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0, 1], got %v", c.Alpha)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0, 1], got %v", c.Threshold)
	}
	return nil
}

// Candidate is one retrieved rule with its relevance scores.
type Candidate struct {
	// Rule is the matched rule.
	Rule *rule.Rule

	// Score is the blended relevance score.
	Score float64

	// KeywordScore is the keyword-signal component.
	KeywordScore float64

	// SemanticScore is the semantic-signal component.
	SemanticScore float64
}

// Ranker ranks corpus rules against financial records. It is stateless
// apart from its immutable corpus reference and safe for concurrent use.
type Ranker struct {
	corpus   *corpus.Corpus
	embedder corpus.Embedder
	config   *Config
	logger   *slog.Logger
}

// NewRanker creates a ranker over a built corpus.
func NewRanker(c *corpus.Corpus, embedder corpus.Embedder, config *Config) (*Ranker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranker config: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	return &Ranker{
		corpus:   c,
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "retrieval"),
	}, nil
}

// Retrieve returns the top-k rules whose blended score clears the
// threshold, ordered by score descending with ties broken by rule
// identifier ascending. k <= 0 and threshold < 0 fall back to the
// configured defaults. An empty result means no applicable rules, which
// is a valid, reportable outcome.
//
// Fails with *IndexNotBuiltError when called before the corpus was built
// and *EmbeddingUnavailableError when the embedding provider fails.
func (r *Ranker) Retrieve(ctx context.Context, rec *record.Record, k int, threshold float64) ([]Candidate, error) {
	if r.corpus == nil {
		return nil, &IndexNotBuiltError{}
	}
	if k <= 0 {
		k = r.config.TopK
	}
	if threshold < 0 {
		threshold = r.config.Threshold
	}

	queryVec, err := r.embedder.Embed(ctx, rec.SearchText(r.config.MaxQueryRunes))
	if err != nil {
		return nil, &EmbeddingUnavailableError{Cause: err}
	}

	recordKeywords := rec.SearchKeywords()

	candidates := make([]Candidate, 0, r.corpus.Len())
	for _, rl := range r.corpus.Rules() {
		kw := keywordScore(rl.Keywords, recordKeywords, rec.RawText)
		sem := cosineSimilarity(queryVec, r.corpus.Vector(rl.ID))
		score := blend(r.config.Alpha, kw, sem)

		if score < threshold {
			continue
		}
		candidates = append(candidates, Candidate{
			Rule:          rl,
			Score:         score,
			KeywordScore:  kw,
			SemanticScore: sem,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Rule.ID < candidates[j].Rule.ID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	r.logger.Debug("retrieval completed",
		"record", rec.Name,
		"candidates", len(candidates),
		"k", k,
		"threshold", threshold,
	)
	return candidates, nil
}
