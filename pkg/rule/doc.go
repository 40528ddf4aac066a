// Package rule defines the audit rule model and its persisted JSONL form.
//
// The JSONL schema is the external contract for rule authors and must stay
// stable across engine versions. One JSON object per line:
//
//	{
//	  "identifier": "CL-001",
//	  "category": "CL",
//	  "subject": "经营现金流与净利润背离",
//	  "keywords": ["经营现金流", "净利润"],
//	  "condition": "abs(经营现金流 - 净利润) / 净利润 > 0.5",
//	  "severity": "high",
//	  "description": "...",
//	  "source": "...",
//	  "related": ["FM-003"],
//	  "procedures": ["核对现金流量表", "..."]
//	}
//
// The condition field is optional; a rule without one is judged by the
// external LLM capability instead of the deterministic evaluator.
// Rules are immutable once loaded.
package rule
