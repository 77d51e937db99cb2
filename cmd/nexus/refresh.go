package main

import (
	"fmt"

	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/spf13/cobra"
)

var (
	refreshForce bool
	refreshQuiet bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one token refresh sweep over all accounts",
	Long: "Refreshes the access token of every account whose token is missing an\n" +
		"expiry or expires soon, persists the result once, and reports counts.\n" +
		"Exits non-zero when any account failed to refresh, so schedulers can alert.",
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "refresh every account regardless of expiry")
	refreshCmd.Flags().BoolVarP(&refreshQuiet, "quiet", "q", false, "suppress per-account output")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}

	summary, err := application.orch.RunRefresh(cmd.Context(), token.RunOptions{
		Force: refreshForce,
		Quiet: refreshQuiet,
	})
	if err != nil {
		return err
	}

	fmt.Printf("refreshed: %d, failed: %d, skipped: %d\n", summary.Refreshed, summary.Failed, summary.Skipped)
	for _, email := range summary.InvalidAccounts {
		fmt.Printf("re-login required: %s\n", email)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d account(s) failed to refresh", summary.Failed)
	}
	return nil
}
