package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuecompass/compass/internal/contracts"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [ticker...]",
	Short: "Score tickers against a valuation rule",
	Long: `Compute valuation scores for one or more tickers and print them as JSON.

Uses the default rule unless --rule is given. With --save, successful scores
are persisted to score history.

Example:
  go run ./cmd/compass score AAPL
  go run ./cmd/compass score AAPL MSFT GOOG --rule 2 --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

var (
	scoreRuleID int64
	scoreSave   bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Int64Var(&scoreRuleID, "rule", 0, "rule id (default rule when omitted)")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "persist successful scores")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var rule *contracts.ValuationRule
	if scoreRuleID > 0 {
		rule, err = a.rules.GetByID(ctx, scoreRuleID)
	} else {
		rule, err = a.rules.GetDefault(ctx)
	}
	if err != nil {
		return fmt.Errorf("load rule: %w", err)
	}

	results := a.calc.ScoreBatch(ctx, args, rule)

	if scoreSave {
		for i := range results {
			if results[i].Failed() {
				continue
			}
			record := &contracts.ScoreRecord{
				Ticker:     results[i].Ticker,
				RuleID:     rule.ID,
				Score:      results[i].Score,
				Components: results[i].Components,
			}
			if err := a.scores.Save(ctx, record); err != nil {
				a.log.WithError(err).Warnf("failed to save score for %s", record.Ticker)
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
