package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ledgerhawk-hq/ledgerhawk/pkg/audit"
	"ledgerhawk-hq/ledgerhawk/pkg/findings"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit <record.json> [record.json...]",
	Short: "Audit one or more financial record files",
	Long: `Audit runs each record file through retrieval and per-rule evaluation
and prints the findings. Records are audited concurrently on the
configured worker pool; results within one record stay strictly
ordered.

The command exits non-zero when any record could not be audited.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print full results as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	recs := make([]*record.Record, 0, len(args))
	for _, path := range args {
		rec, err := record.Load(path)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}

	outcomes := eng.pool.RunAll(ctx, recs)

	if auditJSON {
		return printJSON(outcomes)
	}
	return printSummary(outcomes)
}

func printJSON(outcomes []audit.Outcome) error {
	runs := make([]*findings.Run, 0, len(outcomes))
	var firstErr error
	for _, out := range outcomes {
		if out.Err != nil {
			if firstErr == nil {
				firstErr = out.Err
			}
			continue
		}
		runs = append(runs, out.Result.Persisted())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return err
	}
	return firstErr
}

func printSummary(outcomes []audit.Outcome) error {
	var firstErr error
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", out.Record.Name, out.Err)
			if firstErr == nil {
				firstErr = out.Err
			}
			continue
		}

		res := out.Result
		violations := 0
		for _, f := range res.Findings {
			if f.Verdict == findings.VerdictViolation {
				violations++
			}
		}

		fmt.Printf("%s: %s", res.RecordName, res.State)
		if res.State == audit.StateAborted {
			fmt.Printf(" (%s)", res.Cause)
		}
		fmt.Printf("  rules=%d findings=%d violations=%d skipped=%d\n",
			res.Evaluated, len(res.Findings), violations, len(res.Skipped))

		for _, f := range res.Findings {
			if f.Verdict != findings.VerdictViolation {
				continue
			}
			tag := ""
			if f.LLMDerived {
				tag = " [llm]"
			}
			fmt.Printf("  %s  %s%s  %s\n", f.RuleID, f.Severity, tag, f.Rationale)
		}
	}
	return firstErr
}
