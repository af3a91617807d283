package jobs

import (
	"context"

	"github.com/valuecompass/compass/internal/alerting"
	"github.com/valuecompass/compass/pkg/logger"
)

// ValuationAlertsJob periodically evaluates valuation-score alerts.
type ValuationAlertsJob struct {
	evaluator *alerting.Evaluator
	schedule  string
	log       *logger.Logger
}

// NewValuationAlertsJob creates the job with its cron schedule.
func NewValuationAlertsJob(evaluator *alerting.Evaluator, schedule string, log *logger.Logger) *ValuationAlertsJob {
	return &ValuationAlertsJob{
		evaluator: evaluator,
		schedule:  schedule,
		log:       log.WithField("job", "valuation-alerts"),
	}
}

func (j *ValuationAlertsJob) Name() string { return "valuation-alerts" }

func (j *ValuationAlertsJob) Schedule() string { return j.schedule }

func (j *ValuationAlertsJob) Run(ctx context.Context) error {
	events, err := j.evaluator.CheckValuationAlerts(ctx)
	if err != nil {
		return err
	}
	j.log.Infof("valuation alert pass complete, %d triggered", len(events))
	return nil
}
