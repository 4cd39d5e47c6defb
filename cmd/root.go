// Package cmd implements the facegate command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facegate",
	Short: "Two-factor identity verification at the door",
	Long: `Facegate verifies that a presented badge identifier and a live face
belong to the same enrolled person. It reconciles noisy OCR output against
the enrolled identifier set, demands a head-turn liveness challenge, and
decides face matches over batches of frames rather than single shots.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
