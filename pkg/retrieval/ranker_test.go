package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// axisEmbedder maps known texts onto fixed unit vectors so cosine
// similarities in tests are exact.
type axisEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (e *axisEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, fmt.Errorf("connection refused")
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func buildTestCorpus(t *testing.T, emb corpus.Embedder) *corpus.Corpus {
	t.Helper()
	rules := []*rule.Rule{
		{ID: "CL-001", Subject: "流动比率过低", Keywords: []string{"流动比率"}, Severity: rule.SeverityMedium},
		{ID: "FM-002", Subject: "现金流背离", Keywords: []string{"经营现金流", "净利润"}, Severity: rule.SeverityHigh},
		{ID: "OP-004", Subject: "存货积压", Keywords: []string{"存货"}, Severity: rule.SeverityLow},
	}
	c, err := corpus.Build(context.Background(), rules, emb, nil)
	if err != nil {
		t.Fatalf("corpus.Build failed: %v", err)
	}
	return c
}

// TestRetrieve_RankingAndThreshold tests blended scoring, ordering, and
// the similarity floor.
func TestRetrieve_RankingAndThreshold(t *testing.T) {
	emb := &axisEmbedder{vectors: map[string][]float32{
		// Rule search texts embed onto distinct axes.
		"流动比率过低 流动比率":    {1, 0, 0},
		"现金流背离 经营现金流 净利润": {0, 1, 0},
		"存货积压 存货":        {0, 0, 1},
		// The record text is nearest the first rule's axis.
		"本期流动比率下降至0.9": {0.9, 0.1, 0},
	}}

	c := buildTestCorpus(t, emb)
	ranker, err := NewRanker(c, emb, nil)
	if err != nil {
		t.Fatalf("NewRanker failed: %v", err)
	}

	rec := &record.Record{
		Name:    "q3.json",
		Fields:  map[string]any{"流动比率": 0.9},
		RawText: "本期流动比率下降至0.9",
	}

	got, err := ranker.Retrieve(context.Background(), rec, 10, 0.3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("Retrieve returned %d candidates, want 1: %+v", len(got), got)
	}
	if got[0].Rule.ID != "CL-001" {
		t.Errorf("top candidate = %q, want CL-001", got[0].Rule.ID)
	}
	if got[0].KeywordScore != 1.0 {
		t.Errorf("KeywordScore = %v, want 1.0 (trigger keyword present in text)", got[0].KeywordScore)
	}
	for _, cand := range got {
		if cand.Score < 0.3 {
			t.Errorf("candidate %s score %v below threshold", cand.Rule.ID, cand.Score)
		}
	}
}

// TestRetrieve_EmptyResult tests that no rule clearing the threshold is a
// valid outcome, not an error.
func TestRetrieve_EmptyResult(t *testing.T) {
	// Low similarity everywhere: record embeds far from every rule axis.
	emb := &axisEmbedder{vectors: map[string][]float32{
		"流动比率过低 流动比率":    {1, 0, 0},
		"现金流背离 经营现金流 净利润": {0, 1, 0},
		"存货积压 存货":        {0, 0, 1},
		"与规则无关的文本":       {0.1, 0.1, 0.1},
	}}

	c := buildTestCorpus(t, emb)
	ranker, _ := NewRanker(c, emb, nil)

	rec := &record.Record{Name: "none.json", RawText: "与规则无关的文本"}
	got, err := ranker.Retrieve(context.Background(), rec, 5, 0.5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve returned %d candidates, want 0", len(got))
	}
}

// TestRetrieve_Idempotent tests that identical calls return identical
// ordered candidate lists.
func TestRetrieve_Idempotent(t *testing.T) {
	emb := &axisEmbedder{vectors: map[string][]float32{}}
	c := buildTestCorpus(t, emb)
	ranker, _ := NewRanker(c, emb, nil)

	rec := &record.Record{
		Name:    "r.json",
		RawText: "经营现金流 净利润 流动比率 存货",
	}

	first, err := ranker.Retrieve(context.Background(), rec, 10, 0)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	second, err := ranker.Retrieve(context.Background(), rec, 10, 0)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two identical Retrieve calls returned different candidate lists")
	}
}

// TestRetrieve_TieBreakByID tests deterministic ordering of equal scores.
func TestRetrieve_TieBreakByID(t *testing.T) {
	// Every rule embeds identically, so semantic scores tie and no
	// keywords match: ordering must fall back to identifier ascending.
	emb := &axisEmbedder{vectors: map[string][]float32{}}
	c := buildTestCorpus(t, emb)
	ranker, _ := NewRanker(c, emb, nil)

	rec := &record.Record{Name: "tie.json", RawText: "完全无关"}
	got, err := ranker.Retrieve(context.Background(), rec, 10, 0)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Retrieve returned %d candidates, want 3", len(got))
	}
	wantOrder := []string{"CL-001", "FM-002", "OP-004"}
	for i, cand := range got {
		if cand.Rule.ID != wantOrder[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, cand.Rule.ID, wantOrder[i])
		}
	}
}

// TestRetrieve_TopK tests result truncation.
func TestRetrieve_TopK(t *testing.T) {
	emb := &axisEmbedder{vectors: map[string][]float32{}}
	c := buildTestCorpus(t, emb)
	ranker, _ := NewRanker(c, emb, nil)

	rec := &record.Record{Name: "k.json", RawText: "x"}
	got, err := ranker.Retrieve(context.Background(), rec, 2, 0)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Retrieve returned %d candidates, want 2", len(got))
	}
}

// TestRetrieve_Errors tests the typed failure modes.
func TestRetrieve_Errors(t *testing.T) {
	t.Run("index not built", func(t *testing.T) {
		emb := &axisEmbedder{}
		ranker, err := NewRanker(nil, emb, nil)
		if err != nil {
			t.Fatalf("NewRanker failed: %v", err)
		}
		_, err = ranker.Retrieve(context.Background(), &record.Record{RawText: "x"}, 5, 0.5)
		var notBuilt *IndexNotBuiltError
		if !errors.As(err, &notBuilt) {
			t.Fatalf("error = %v, want *IndexNotBuiltError", err)
		}
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		emb := &axisEmbedder{}
		c := buildTestCorpus(t, emb)
		emb.fail = true
		ranker, _ := NewRanker(c, emb, nil)

		_, err := ranker.Retrieve(context.Background(), &record.Record{RawText: "x"}, 5, 0.5)
		var unavailable *EmbeddingUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("error = %v, want *EmbeddingUnavailableError", err)
		}
	})
}

// TestCosineSimilarity tests vector similarity edge cases.
func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKeywordScore tests the keyword-signal computation.
func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name     string
		triggers []string
		keywords []string
		rawText  string
		want     float64
	}{
		{
			name:     "all present in text",
			triggers: []string{"流动比率"},
			rawText:  "本期流动比率下降",
			want:     1,
		},
		{
			name:     "half present",
			triggers: []string{"经营现金流", "商誉"},
			keywords: []string{"经营现金流"},
			want:     0.5,
		},
		{
			name:     "none present",
			triggers: []string{"商誉"},
			rawText:  "与商标无关",
			want:     0,
		},
		{
			name:     "no triggers",
			triggers: nil,
			rawText:  "任意文本",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keywordScore(tt.triggers, tt.keywords, tt.rawText)
			if got != tt.want {
				t.Errorf("keywordScore = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestConfig_Validate tests configuration bounds.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: *DefaultConfig()},
		{name: "alpha too high", config: Config{Alpha: 1.5, Threshold: 0.5, TopK: 5}, wantErr: true},
		{name: "alpha negative", config: Config{Alpha: -0.1, Threshold: 0.5, TopK: 5}, wantErr: true},
		{name: "zero top_k", config: Config{Alpha: 0.3, Threshold: 0.5, TopK: 0}, wantErr: true},
		{name: "threshold above one", config: Config{Alpha: 0.3, Threshold: 1.5, TopK: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
