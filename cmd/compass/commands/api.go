package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuecompass/compass/internal/api"
	"github.com/valuecompass/compass/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server with the embedded job scheduler.

Endpoints:
  GET  /health                      - Health check
  POST /api/valuation/score         - Score one ticker
  POST /api/valuation/score/batch   - Score several tickers
  GET  /api/valuation/rules         - List scoring rules
  GET  /api/valuation/rules/{id}    - Fetch one rule
  GET  /api/valuation/{ticker}/scores - Score history
  POST /api/alerts/check/price      - Run a price alert pass now
  POST /api/alerts/check/valuation  - Run a valuation alert pass now
  GET  /api/jobs                    - Scheduled job statistics
  GET  /ws/alerts                   - WebSocket alert trigger feed

Example:
  go run ./cmd/compass api
  go run ./cmd/compass api --port 8085`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiNoScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiNoScheduler, "no-scheduler", false, "run without the embedded scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	sched := buildScheduler(a)
	if apiNoScheduler {
		sched = nil
	} else {
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(
		handlers.NewValuationHandler(a.calc, a.rules, a.scores, a.log),
		handlers.NewAlertsHandler(a.evaluator, a.log),
		a.hub,
		sched,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
