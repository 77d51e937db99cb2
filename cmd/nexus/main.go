package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "Claude-Nexus — local proxy credential and model-tier manager",
	Long: "Claude-Nexus keeps a set of OAuth accounts for the CloudCode backend fresh,\n" +
		"resolves which upstream model serves each capability tier (opus/sonnet/haiku),\n" +
		"and exposes a local management API for the proxy.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config/nexus.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
