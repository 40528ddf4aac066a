package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(body)
}

func TestMetrics_RecordRun(t *testing.T) {
	m := New()
	m.RecordRun("completed", 1.5)
	m.RecordRun("completed", 0.2)
	m.RecordRun("aborted", 0.1)

	out := scrape(t, m)
	if !strings.Contains(out, `ledgerhawk_audit_runs_total{state="completed"} 2`) {
		t.Errorf("completed runs counter missing:\n%s", out)
	}
	if !strings.Contains(out, `ledgerhawk_audit_runs_total{state="aborted"} 1`) {
		t.Errorf("aborted runs counter missing")
	}
	if !strings.Contains(out, "ledgerhawk_audit_run_duration_seconds_count 3") {
		t.Errorf("run duration histogram count missing")
	}
}

func TestMetrics_RecordEvaluation(t *testing.T) {
	m := New()
	m.RecordEvaluation("violation")
	m.RecordEvaluation("compliant")
	m.RecordEvaluation("compliant")
	m.RecordSkip()

	out := scrape(t, m)
	if !strings.Contains(out, `ledgerhawk_rule_evaluations_total{verdict="compliant"} 2`) {
		t.Errorf("compliant evaluations counter missing")
	}
	if !strings.Contains(out, `ledgerhawk_rule_evaluations_total{verdict="violation"} 1`) {
		t.Errorf("violation evaluations counter missing")
	}
	if !strings.Contains(out, "ledgerhawk_rules_skipped_total 1") {
		t.Errorf("skipped counter missing")
	}
}

func TestMetrics_RecordRetrievalAndProvider(t *testing.T) {
	m := New()
	m.RecordRetrieval(0.05, 7)
	m.RecordProviderRequest("embedding", "success")
	m.RecordProviderRequest("chat", "error")

	out := scrape(t, m)
	if !strings.Contains(out, "ledgerhawk_retrieval_duration_seconds_count 1") {
		t.Errorf("retrieval histogram missing")
	}
	if !strings.Contains(out, "ledgerhawk_retrieval_candidates_count 1") {
		t.Errorf("candidates histogram missing")
	}
	if !strings.Contains(out, `ledgerhawk_provider_requests_total{capability="chat",outcome="error"} 1`) {
		t.Errorf("provider requests counter missing")
	}
}
