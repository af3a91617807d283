// Package jobs holds the scheduled jobs wired into the scheduler.
package jobs

import (
	"context"

	"github.com/valuecompass/compass/internal/alerting"
	"github.com/valuecompass/compass/pkg/logger"
)

// PriceAlertsJob periodically evaluates price and percentage-change alerts.
type PriceAlertsJob struct {
	evaluator *alerting.Evaluator
	schedule  string
	log       *logger.Logger
}

// NewPriceAlertsJob creates the job with its cron schedule.
func NewPriceAlertsJob(evaluator *alerting.Evaluator, schedule string, log *logger.Logger) *PriceAlertsJob {
	return &PriceAlertsJob{
		evaluator: evaluator,
		schedule:  schedule,
		log:       log.WithField("job", "price-alerts"),
	}
}

func (j *PriceAlertsJob) Name() string { return "price-alerts" }

func (j *PriceAlertsJob) Schedule() string { return j.schedule }

func (j *PriceAlertsJob) Run(ctx context.Context) error {
	events, err := j.evaluator.CheckPriceAlerts(ctx)
	if err != nil {
		return err
	}
	j.log.Infof("price alert pass complete, %d triggered", len(events))
	return nil
}
