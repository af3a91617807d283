package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "Compass - valuation scoring and alert service",
	Long: `Compass scores financial instruments against configurable valuation
rules and evaluates price, percentage-change, and valuation-score alerts.

Usage:
  go run ./cmd/compass [command]

Examples:
  go run ./cmd/compass api
  go run ./cmd/compass score AAPL
  go run ./cmd/compass alerts check price
  go run ./cmd/compass migrate
  go run ./cmd/compass seed`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
