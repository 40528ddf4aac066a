package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ledgerhawk-hq/ledgerhawk/pkg/findings/export"
)

var (
	runsLimit        int
	runsExportFormat string
	runsExportOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted audit runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted audit runs, newest first",
	RunE:  runRunsList,
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted audit runs as JSON or CSV",
	RunE:  runRunsExport,
}

func init() {
	runsCmd.PersistentFlags().IntVar(&runsLimit, "limit", 50, "maximum runs to read from the store")
	runsExportCmd.Flags().StringVar(&runsExportFormat, "format", "json", "export format (json or csv)")
	runsExportCmd.Flags().StringVarP(&runsExportOutput, "output", "o", "-", "output file, - for stdout")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfigAndLogging()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs stored")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-36s  %-20s  %-9s  %8s  %10s  %s\n",
		"RUN", "RECORD", "STATE", "FINDINGS", "VIOLATIONS", "FINISHED")
	for _, run := range runs {
		state := run.State
		if run.Cause != "" {
			state = fmt.Sprintf("%s(%s)", run.State, run.Cause)
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-9s  %8d  %10d  %s\n",
			run.ID, run.RecordName, state,
			len(run.Findings), len(run.Violations()),
			run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfigAndLogging()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if runsExportOutput != "-" {
		f, err := os.Create(runsExportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch runsExportFormat {
	case "json":
		return export.NewJSONExporter(true).Export(runs, out)
	case "csv":
		return export.NewCSVExporter(true).Export(runs, out)
	default:
		return fmt.Errorf("unknown export format %q (expected json or csv)", runsExportFormat)
	}
}
