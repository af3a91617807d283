package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuecompass/compass/internal/storage"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the built-in valuation rules",
	Long: `Insert the built-in scoring rules (Value Investing, Growth Investing,
Income Investing). Does nothing when rules already exist.

Example:
  go run ./cmd/compass seed`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	inserted, err := storage.SeedRules(ctx, a.rules)
	if err != nil {
		return err
	}
	if inserted == 0 {
		fmt.Println("Rules already present, nothing to do")
		return nil
	}
	fmt.Printf("Seeded %d rules\n", inserted)
	return nil
}
