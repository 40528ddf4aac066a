package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/config"
	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/findings"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/retrieval"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
	"ledgerhawk-hq/ledgerhawk/pkg/telemetry/metrics"
)

// textEmbedder maps specific texts to vectors and everything else to a
// shared default axis.
type textEmbedder struct {
	vectors map[string][]float32
	fail    bool
	calls   int
}

func (e *textEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, fmt.Errorf("connection refused")
	}
	if e.vectors != nil {
		if vec, ok := e.vectors[text]; ok {
			return vec, nil
		}
	}
	return []float32{1, 0}, nil
}

// judgeFunc adapts a function to the Judge interface.
type judgeFunc func(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error)

func (f judgeFunc) Judge(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
	return f(ctx, rl, rec)
}

func testAuditConfig() config.AuditConfig {
	return config.AuditConfig{
		RetrievalRetries: 3,
		RetryBackoff:     time.Millisecond,
		JudgeTimeout:     time.Second,
		UseJudge:         true,
		Workers:          2,
	}
}

func testRules() []*rule.Rule {
	return []*rule.Rule{
		{
			ID: "R-001", Category: "CL", Subject: "流动性底线",
			Keywords:  []string{"流动比率"},
			Condition: "流动比率 < 1.2",
			Severity:  rule.SeverityHigh,
		},
		{
			ID: "R-002", Category: "FM", Subject: "现金流与利润背离",
			Keywords:  []string{"净利润"},
			Condition: "abs(经营现金流 - 净利润) / 净利润 > 0.5",
			Severity:  rule.SeverityMedium,
		},
		{
			ID: "R-BAD", Category: "CL", Subject: "损坏的规则",
			Keywords:  []string{"流动比率"},
			Condition: "流动比率 ** 2 > 1",
			Severity:  rule.SeverityLow,
		},
		{
			ID: "R-REL", Category: "CL", Subject: "短期偿债压力",
			Keywords:  []string{"短期借款"},
			Condition: "短期借款 > 100",
			Severity:  rule.SeverityCritical,
			Related:   []string{"R-001"},
		},
		{
			ID: "R-900", Category: "OP", Subject: "关联交易定价公允性",
			Severity: rule.SeverityMedium,
		},
	}
}

func testRecord() *record.Record {
	return &record.Record{
		Name: "青云科技2023年报",
		Fields: map[string]any{
			"流动比率": 0.9,
			"经营现金流": 100.0,
			"净利润":  0.0,
			"短期借款": 200.0,
		},
		RawText: "公司2023年度财务报表摘要",
	}
}

func buildWorkflow(t *testing.T, rules []*rule.Rule, opts *Options) (*Workflow, *textEmbedder) {
	t.Helper()
	emb := &textEmbedder{}
	c, err := corpus.Build(context.Background(), rules, emb, nil)
	if err != nil {
		t.Fatalf("corpus build failed: %v", err)
	}
	ranker, err := retrieval.NewRanker(c, emb, nil)
	if err != nil {
		t.Fatalf("ranker construction failed: %v", err)
	}
	w, err := New(c, ranker, testAuditConfig(), opts)
	if err != nil {
		t.Fatalf("workflow construction failed: %v", err)
	}
	return w, emb
}

func findingByRule(t *testing.T, res *Result, id string) findings.Finding {
	t.Helper()
	for _, f := range res.Findings {
		if f.RuleID == id {
			return f
		}
	}
	t.Fatalf("no finding for rule %s in %v", id, res.Findings)
	return findings.Finding{}
}

func TestWorkflow_FullRun(t *testing.T) {
	judge := judgeFunc(func(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
		return &Judgment{Verdict: findings.VerdictViolation, Rationale: "定价偏离市场水平"}, nil
	})
	w, _ := buildWorkflow(t, testRules(), &Options{Judge: judge, Metrics: metrics.New()})

	res, err := w.Run(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if res.State != StateCompleted {
		t.Fatalf("state = %s, want completed (cause %s)", res.State, res.Cause)
	}
	if res.RunID == "" {
		t.Error("run ID not assigned")
	}
	if res.Evaluated != 5 {
		t.Errorf("evaluated = %d, want 5", res.Evaluated)
	}
	if len(res.Findings) != 4 {
		t.Fatalf("findings = %d, want 4 (one rule skipped)", len(res.Findings))
	}

	// The condition reads as the violation trigger: true means breach.
	f1 := findingByRule(t, res, "R-001")
	if f1.Verdict != findings.VerdictViolation {
		t.Errorf("R-001 verdict = %v, want violation", f1.Verdict)
	}
	if f1.Severity != rule.SeverityHigh {
		t.Errorf("R-001 severity = %v", f1.Severity)
	}
	if got, ok := f1.Evidence["流动比率"]; !ok || got != 0.9 {
		t.Errorf("R-001 evidence = %v", f1.Evidence)
	}

	// Division by zero is caught, not propagated.
	f2 := findingByRule(t, res, "R-002")
	if f2.Verdict != findings.VerdictIndeterminate {
		t.Errorf("R-002 verdict = %v, want indeterminate", f2.Verdict)
	}
	if !strings.Contains(f2.Rationale, "division by zero") {
		t.Errorf("R-002 rationale = %q", f2.Rationale)
	}

	// Malformed condition lands in the skipped set, not the findings.
	if len(res.Skipped) != 1 || res.Skipped[0] != "R-BAD" {
		t.Errorf("skipped = %v, want [R-BAD]", res.Skipped)
	}

	// R-001 violated earlier in the run, so R-REL carries it as context.
	frel := findingByRule(t, res, "R-REL")
	if frel.Verdict != findings.VerdictViolation {
		t.Errorf("R-REL verdict = %v", frel.Verdict)
	}
	if len(frel.Related) != 1 || frel.Related[0] != "R-001" {
		t.Errorf("R-REL related = %v, want [R-001]", frel.Related)
	}

	// The condition-less rule went to the judge.
	f9 := findingByRule(t, res, "R-900")
	if !f9.LLMDerived {
		t.Error("R-900 finding should be tagged LLM-derived")
	}
	if f9.Verdict != findings.VerdictViolation {
		t.Errorf("R-900 verdict = %v", f9.Verdict)
	}
	if f9.Rationale != "定价偏离市场水平" {
		t.Errorf("R-900 rationale = %q", f9.Rationale)
	}
}

func TestWorkflow_Deterministic(t *testing.T) {
	w, _ := buildWorkflow(t, testRules(), nil)
	rec := testRecord()

	first, err := w.Run(context.Background(), rec)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		res, err := w.Run(context.Background(), rec)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(res.Findings) != len(first.Findings) {
			t.Fatalf("finding count changed across runs")
		}
		for j := range res.Findings {
			if res.Findings[j].RuleID != first.Findings[j].RuleID ||
				res.Findings[j].Verdict != first.Findings[j].Verdict {
				t.Fatalf("run %d diverged at finding %d", i, j)
			}
		}
	}
}

func TestWorkflow_NoApplicableRules(t *testing.T) {
	rules := []*rule.Rule{{
		ID: "R-001", Subject: "流动性底线",
		Keywords: []string{"流动比率"}, Condition: "流动比率 < 1.2",
		Severity: rule.SeverityHigh,
	}}

	emb := &textEmbedder{vectors: map[string][]float32{
		"与财务完全无关的文本": {0, 1},
	}}
	c, err := corpus.Build(context.Background(), rules, emb, nil)
	if err != nil {
		t.Fatalf("corpus build failed: %v", err)
	}
	ranker, err := retrieval.NewRanker(c, emb, nil)
	if err != nil {
		t.Fatalf("ranker construction failed: %v", err)
	}
	w, err := New(c, ranker, testAuditConfig(), nil)
	if err != nil {
		t.Fatalf("workflow construction failed: %v", err)
	}

	res, err := w.Run(context.Background(), &record.Record{
		Name:    "unrelated",
		RawText: "与财务完全无关的文本",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateCompleted {
		t.Errorf("state = %s, want completed", res.State)
	}
	if len(res.Findings) != 0 || len(res.Candidates) != 0 {
		t.Errorf("expected zero candidates and findings, got %d/%d",
			len(res.Candidates), len(res.Findings))
	}
}

func TestWorkflow_EmbeddingOutageAborts(t *testing.T) {
	w, _ := buildWorkflow(t, testRules(), nil)

	failing := &textEmbedder{fail: true}
	ranker, err := retrieval.NewRanker(w.corpus, failing, nil)
	if err != nil {
		t.Fatalf("ranker construction failed: %v", err)
	}
	w.ranker = ranker

	var backoffs []time.Duration
	w.sleep = func(ctx context.Context, d time.Duration) error {
		backoffs = append(backoffs, d)
		return nil
	}

	res, err := w.Run(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateAborted {
		t.Fatalf("state = %s, want aborted", res.State)
	}
	if res.Cause != CauseEmbeddingUnavailable {
		t.Errorf("cause = %s, want embedding_unavailable", res.Cause)
	}
	if failing.calls != 3 {
		t.Errorf("retrieval attempts = %d, want 3", failing.calls)
	}
	// Exponential backoff between attempts.
	if len(backoffs) != 2 || backoffs[0] != time.Millisecond || backoffs[1] != 2*time.Millisecond {
		t.Errorf("backoffs = %v", backoffs)
	}
}

func TestWorkflow_IndexNotBuiltIsFatal(t *testing.T) {
	emb := &textEmbedder{}
	ranker, err := retrieval.NewRanker(nil, emb, nil)
	if err != nil {
		t.Fatalf("ranker construction failed: %v", err)
	}
	w, err := New(nil, ranker, testAuditConfig(), nil)
	if err != nil {
		t.Fatalf("workflow construction failed: %v", err)
	}

	res, err := w.Run(context.Background(), testRecord())
	if res != nil {
		t.Error("expected nil result for fatal sequencing error")
	}
	var notBuilt *retrieval.IndexNotBuiltError
	if !errors.As(err, &notBuilt) {
		t.Fatalf("expected IndexNotBuiltError, got %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("index-not-built must not be retried, saw %d attempts", emb.calls)
	}
}

func TestWorkflow_CorruptRecordAborts(t *testing.T) {
	w, _ := buildWorkflow(t, testRules(), nil)

	res, err := w.Run(context.Background(), &record.Record{Name: "empty"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateAborted {
		t.Fatalf("state = %s, want aborted", res.State)
	}
	if res.Cause != CauseCorruptRecord {
		t.Errorf("cause = %s, want corrupt_record", res.Cause)
	}
	if len(res.Findings) != 0 {
		t.Errorf("corrupt record must not produce findings")
	}
}

func TestWorkflow_CancellationKeepsPartialResults(t *testing.T) {
	rules := []*rule.Rule{
		{ID: "J-001", Subject: "第一条", Severity: rule.SeverityLow},
		{ID: "J-002", Subject: "第二条", Severity: rule.SeverityLow},
	}

	ctx, cancel := context.WithCancel(context.Background())
	judge := judgeFunc(func(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
		// Cancel after the first rule; the checkpoint at the top of the
		// next evaluation must observe it.
		cancel()
		return &Judgment{Verdict: findings.VerdictCompliant, Rationale: "ok"}, nil
	})
	w, _ := buildWorkflow(t, rules, &Options{Judge: judge})

	res, err := w.Run(ctx, testRecord())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateAborted || res.Cause != CauseCancelled {
		t.Fatalf("state = %s cause = %s, want aborted/cancelled", res.State, res.Cause)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %d, want 1 partial finding", len(res.Findings))
	}
	if res.Findings[0].RuleID != "J-001" {
		t.Errorf("partial finding rule = %s", res.Findings[0].RuleID)
	}
}

func TestWorkflow_JudgeFailureIsIndeterminate(t *testing.T) {
	rules := []*rule.Rule{
		{ID: "J-001", Subject: "定性判断", Severity: rule.SeverityMedium},
	}
	judge := judgeFunc(func(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
		return nil, fmt.Errorf("model gateway down")
	})
	w, _ := buildWorkflow(t, rules, &Options{Judge: judge})

	res, err := w.Run(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.State != StateCompleted {
		t.Fatalf("judge failure must not abort the run, state = %s", res.State)
	}
	f := findingByRule(t, res, "J-001")
	if f.Verdict != findings.VerdictIndeterminate {
		t.Errorf("verdict = %v, want indeterminate", f.Verdict)
	}
	if !f.LLMDerived {
		t.Error("finding should be tagged LLM-derived")
	}
	if !strings.Contains(f.Rationale, "model gateway down") {
		t.Errorf("rationale = %q", f.Rationale)
	}
}

func TestWorkflow_NoJudgeConfigured(t *testing.T) {
	rules := []*rule.Rule{
		{ID: "J-001", Subject: "定性判断", Severity: rule.SeverityMedium},
	}
	w, _ := buildWorkflow(t, rules, nil)

	res, err := w.Run(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	f := findingByRule(t, res, "J-001")
	if f.Verdict != findings.VerdictIndeterminate {
		t.Errorf("verdict = %v, want indeterminate", f.Verdict)
	}
}

func TestResult_Persisted(t *testing.T) {
	res := &Result{
		RunID:      "run-1",
		RecordName: "rec",
		State:      StateAborted,
		Cause:      CauseCancelled,
		Evaluated:  2,
		Findings:   []findings.Finding{{RuleID: "R-001"}},
		Skipped:    []string{"R-BAD"},
	}
	run := res.Persisted()
	if run.State != "aborted" || run.Cause != "cancelled" {
		t.Errorf("persisted state/cause = %s/%s", run.State, run.Cause)
	}
	if len(run.Findings) != 1 || run.Skipped[0] != "R-BAD" {
		t.Errorf("persisted payload wrong: %+v", run)
	}
}
