package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuecompass/compass/internal/contracts"
)

// alertsCmd represents the alerts command
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Run alert evaluation passes",
	Long: `Run alert evaluation passes on demand.

Subcommands:
  check price      - evaluate price and percentage-change alerts
  check valuation  - evaluate valuation-score alerts

Example:
  go run ./cmd/compass alerts check price
  go run ./cmd/compass alerts check valuation`,
}

var alertsCheckCmd = &cobra.Command{
	Use:       "check [price|valuation]",
	Short:     "Evaluate active alerts once",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"price", "valuation"},
	RunE:      runAlertsCheck,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsCheckCmd)
}

func runAlertsCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var events []contracts.TriggerEvent
	switch args[0] {
	case "price":
		events, err = a.evaluator.CheckPriceAlerts(ctx)
	case "valuation":
		events, err = a.evaluator.CheckValuationAlerts(ctx)
	default:
		return fmt.Errorf("unknown alert pass %q", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d alert(s) triggered\n", len(events))
	for _, ev := range events {
		fmt.Printf("  [%d] %s\n", ev.AlertID, ev.Message)
	}
	return nil
}
