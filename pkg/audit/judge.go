package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
	"ledgerhawk-hq/ledgerhawk/pkg/providers"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// Judgment is a model verdict for one rule against one record.
type Judgment struct {
	// Verdict is compliant, violation, or indeterminate.
	Verdict findings.Verdict

	// Rationale is the model's reasoning.
	Rationale string
}

// Judge decides rules that carry no deterministic condition.
// Implementations must honor the context deadline.
type Judge interface {
	Judge(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error)
}

// LLMJudge implements Judge over a chat gateway. One call per rule, no
// conversational state retained between rules.
type LLMJudge struct {
	client *providers.ChatClient
}

// NewLLMJudge creates a judge over client.
func NewLLMJudge(client *providers.ChatClient) *LLMJudge {
	return &LLMJudge{client: client}
}

const judgeSystemPrompt = `你是一名注册会计师，负责根据审计规则判断财务数据是否存在违规情况。` +
	`请仅以JSON格式输出: {"verdict": "violation" 或 "compliant" 或 "indeterminate", "rationale": "简要说明原因"}`

// Judge sends the rule text and record context to the model and parses
// the verdict from its reply.
func (j *LLMJudge) Judge(ctx context.Context, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
	var sb strings.Builder
	sb.WriteString("审计规则:\n")
	sb.WriteString(rl.Subject)
	if rl.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(rl.Description)
	}
	sb.WriteString("\n\n财务数据:\n")
	sb.WriteString(recordContext(rec))

	resp, err := j.client.Complete(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return nil, err
	}

	return parseJudgment(resp.Content)
}

// recordContext renders the record fields and a bounded slice of raw
// text for the prompt.
func recordContext(rec *record.Record) string {
	var sb strings.Builder
	for _, name := range rec.FieldNames() {
		fmt.Fprintf(&sb, "%s: %v\n", name, rec.Fields[name])
	}
	if text := rec.SearchText(2000); text != "" && len(rec.Fields) == 0 {
		sb.WriteString(text)
	}
	return sb.String()
}

// parseJudgment extracts the verdict JSON from model output. Models
// sometimes wrap JSON in prose or code fences, so the parser takes the
// outermost brace pair. Unparsable output degrades to indeterminate
// with the raw reply as rationale rather than failing the rule.
func parseJudgment(content string) (*Judgment, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var wire struct {
			Verdict   string `json:"verdict"`
			Rationale string `json:"rationale"`
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &wire); err == nil {
			verdict, err := findings.ParseVerdict(wire.Verdict)
			if err == nil && verdict != findings.VerdictInapplicable {
				return &Judgment{Verdict: verdict, Rationale: wire.Rationale}, nil
			}
		}
	}

	return &Judgment{
		Verdict:   findings.VerdictIndeterminate,
		Rationale: strings.TrimSpace(content),
	}, nil
}

// judgeWithTimeout bounds a single judge call.
func judgeWithTimeout(ctx context.Context, j Judge, timeout time.Duration, rl *rule.Rule, rec *record.Record) (*Judgment, error) {
	jctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return j.Judge(jctx, rl, rec)
}
