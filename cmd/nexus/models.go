package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/pysugar/claude-nexus/internal/catalog"
	"github.com/pysugar/claude-nexus/internal/db"
	"github.com/spf13/cobra"
)

var modelsTier string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model catalog and per-tier defaults",
	Long: "Fetches the live model catalog using the first account with a valid token\n" +
		"(falling back to the built-in list) and prints the default model resolved\n" +
		"for each capability tier.",
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().StringVar(&modelsTier, "tier", "", "resolve a single tier (opus, sonnet, haiku)")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}

	models := fetchCatalog(application)

	if modelsTier != "" {
		tier := catalog.Tier(modelsTier)
		known := false
		for _, t := range catalog.AllTiers() {
			if t == tier {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("unknown tier: %s", modelsTier)
		}
		fmt.Println(catalog.SelectForTier(models, tier))
		return nil
	}

	fmt.Println("Catalog:")
	for _, m := range models {
		quota := "quota ok"
		if !m.HasQuota {
			quota = "quota exhausted"
		}
		if m.RemainingFraction != nil {
			quota = fmt.Sprintf("%.0f%% quota left", *m.RemainingFraction*100)
		}
		fmt.Printf("  %-28s %-8s %-8s %s\n", m.ID, m.Family, m.Tier, quota)
	}

	selection := catalog.ApplyRoutes(catalog.ResolveAllTiers(models), db.GetTierRoutes(application.database))
	fmt.Println("\nTier defaults:")
	fmt.Printf("  opus:   %s\n", selection.Opus)
	fmt.Printf("  sonnet: %s\n", selection.Sonnet)
	fmt.Printf("  haiku:  %s\n", selection.Haiku)
	return nil
}

// fetchCatalog pulls the live catalog with the first usable access token and
// degrades to the static fallback on any failure.
func fetchCatalog(application *app) []catalog.Model {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, acc := range application.store.Load() {
		if acc.IsInvalid || token.NeedsRefresh(&acc, 0) {
			continue
		}
		raw, err := application.upstream.FetchAvailableModels(ctx, acc.AccessToken)
		if err != nil {
			continue
		}
		return catalog.Normalize(raw)
	}
	return catalog.FallbackCatalog()
}
