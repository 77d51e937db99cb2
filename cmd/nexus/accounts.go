package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List stored accounts and their token state",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}

		accounts := application.store.Load()
		if len(accounts) == 0 {
			fmt.Println("No accounts configured. Run 'nexus login' to add one.")
			return nil
		}

		for _, acc := range accounts {
			state := "ok"
			switch {
			case acc.IsInvalid:
				state = "INVALID (" + acc.InvalidReason + ")"
			case acc.TokenExpiresAt == nil:
				state = "no expiry, refresh due"
			case time.Until(*acc.TokenExpiresAt) < 0:
				state = "expired"
			default:
				state = fmt.Sprintf("expires in %s", time.Until(*acc.TokenExpiresAt).Round(time.Second))
			}
			fmt.Printf("%-40s %s\n", acc.Email, state)
		}
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		if err := application.store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var accountsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		if err := application.store.Clear(); err != nil {
			return err
		}
		fmt.Println("All accounts removed")
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsClearCmd)
	rootCmd.AddCommand(accountsCmd)
}
