package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valuecompass/compass/internal/scheduler"
	"github.com/valuecompass/compass/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Run the scheduler daemon without the API server.

Registered jobs:
  price-alerts      - price and percentage-change alert passes
  valuation-alerts  - valuation-score alert passes
  score-sweep       - persist scores for tickers with active alerts

Schedules come from ALERTS_PRICE_SCHEDULE, ALERTS_VALUATION_SCHEDULE, and
SCORE_SWEEP_SCHEDULE.

Example:
  go run ./cmd/compass scheduler
  go run ./cmd/compass scheduler --run price-alerts`,
	RunE: runSchedulerDaemon,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run", "", "run one job immediately and exit scheduling")
}

// buildScheduler registers all jobs against the configured schedules.
func buildScheduler(a *app) *scheduler.Scheduler {
	sched := scheduler.New(a.log)

	all := []scheduler.Job{
		jobs.NewPriceAlertsJob(a.evaluator, a.cfg.Alerts.PriceSchedule, a.log),
		jobs.NewValuationAlertsJob(a.evaluator, a.cfg.Alerts.ValuationSchedule, a.log),
		jobs.NewScoreSweepJob(a.calc, a.rules, a.scores, a.alerts, a.cfg.Alerts.SweepSchedule, a.log),
	}
	for _, job := range all {
		if err := sched.AddJob(job); err != nil {
			a.log.WithError(err).Fatalf("failed to register job %s", job.Name())
		}
	}

	return sched
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched := buildScheduler(a)

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
		fmt.Printf("Triggered job %s\n", schedulerRunNow)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
