package jobs

import (
	"context"
	"fmt"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/logger"
)

// ScoreSweepJob scores every ticker that has an active alert under the
// default rule and persists the results, building up score history.
type ScoreSweepJob struct {
	calc     *valuation.Calculator
	rules    contracts.RuleRepository
	scores   contracts.ScoreRepository
	alerts   contracts.AlertRepository
	schedule string
	log      *logger.Logger
}

// NewScoreSweepJob creates the job with its cron schedule.
func NewScoreSweepJob(
	calc *valuation.Calculator,
	rules contracts.RuleRepository,
	scores contracts.ScoreRepository,
	alerts contracts.AlertRepository,
	schedule string,
	log *logger.Logger,
) *ScoreSweepJob {
	return &ScoreSweepJob{
		calc:     calc,
		rules:    rules,
		scores:   scores,
		alerts:   alerts,
		schedule: schedule,
		log:      log.WithField("job", "score-sweep"),
	}
}

func (j *ScoreSweepJob) Name() string { return "score-sweep" }

func (j *ScoreSweepJob) Schedule() string { return j.schedule }

func (j *ScoreSweepJob) Run(ctx context.Context) error {
	tickers, err := j.alerts.ActiveTickers(ctx, []string{
		contracts.AlertTypePrice,
		contracts.AlertTypePercentageChange,
		contracts.AlertTypeValuationScore,
	})
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.log.Info("no tickers with active alerts, nothing to sweep")
		return nil
	}

	rule, err := j.rules.GetDefault(ctx)
	if err != nil {
		return fmt.Errorf("load default rule: %w", err)
	}

	results := j.calc.ScoreBatch(ctx, tickers, rule)

	var saved, failed int
	for i := range results {
		if results[i].Failed() {
			failed++
			continue
		}
		record := &contracts.ScoreRecord{
			Ticker:     results[i].Ticker,
			RuleID:     rule.ID,
			Score:      results[i].Score,
			Components: results[i].Components,
		}
		if err := j.scores.Save(ctx, record); err != nil {
			j.log.WithError(err).Warnf("failed to save score for %s", record.Ticker)
			failed++
			continue
		}
		saved++
	}

	j.log.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"saved":   saved,
		"failed":  failed,
	}).Info("score sweep complete")
	return nil
}
