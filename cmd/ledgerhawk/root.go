package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerhawk",
	Short: "LedgerHawk - financial audit rule engine",
	Long: `LedgerHawk audits structured financial records against a rulebook of
regulatory checks.

For each record it selects the most relevant rules with a hybrid
keyword and semantic ranking, evaluates each rule's compliance
condition in a sandboxed expression engine, and accumulates findings
with per-rule failure isolation: a bad rule or a missing field never
kills the run.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
