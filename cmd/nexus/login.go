package main

import (
	"fmt"

	"github.com/pysugar/claude-nexus/internal/auth/google"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Add a Google account via the browser OAuth flow",
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}

	port, results, cleanup, err := google.StartOAuthCallbackServer(application.store)
	if err != nil {
		return err
	}
	defer cleanup()

	redirectURL := fmt.Sprintf("http://localhost:%d/oauth-callback", port)
	authURL := google.AuthCodeURL(redirectURL, "localhost")

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Println("Waiting for the browser callback...")

	result := <-results
	if result.Error != nil {
		return result.Error
	}
	fmt.Printf("Account %s added.\n", result.Email)
	return nil
}
