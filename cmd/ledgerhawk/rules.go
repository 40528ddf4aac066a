package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/providers"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate the rulebook",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the rulebook without running an audit",
	Long: `Validate parses the configured rulebook and reports structural
problems, duplicate identifiers, unparsable conditions, and related-rule
references that point nowhere. It needs no gateway access.`,
	RunE: runRulesValidate,
}

var rulesIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval index and print statistics",
	Long: `Index loads the rulebook, embeds every rule through the configured
embedding gateway, and prints index statistics. Useful to warm a local
gateway's cache and to confirm connectivity before an audit.`,
	RunE: runRulesIndex,
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesIndexCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogging()
	if err != nil {
		return err
	}

	rules, err := corpus.LoadRules(cfg.Rulebook.Path)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}

	issues := corpus.Validate(rules, evaluatorOptions(cfg))
	if len(issues) == 0 {
		fmt.Printf("%s: %d rules, no issues\n", cfg.Rulebook.Path, len(rules))
		return nil
	}

	for _, issue := range issues {
		fmt.Println(issue)
	}
	return fmt.Errorf("rulebook has %d issues", len(issues))
}

func runRulesIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogging()
	if err != nil {
		return err
	}

	rules, err := corpus.LoadRules(cfg.Rulebook.Path)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}

	embed := providers.NewEmbeddingClient(cfg.Providers.Embedding)
	c, err := corpus.Build(context.Background(), rules, embed, evaluatorOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to build rule index: %w", err)
	}

	conditions := 0
	for _, r := range c.Rules() {
		if r.HasCondition() {
			conditions++
		}
	}

	fmt.Printf("rulebook: %s\n", cfg.Rulebook.Path)
	fmt.Printf("rules indexed: %d\n", c.Len())
	fmt.Printf("deterministic conditions: %d\n", conditions)
	fmt.Printf("judge-only rules: %d\n", c.Len()-conditions)
	fmt.Printf("embedded vectors: %d\n", embed.CacheSize())
	return nil
}
