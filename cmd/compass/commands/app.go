package commands

import (
	"fmt"

	"github.com/valuecompass/compass/internal/alerting"
	"github.com/valuecompass/compass/internal/api/ws"
	"github.com/valuecompass/compass/internal/marketdata"
	"github.com/valuecompass/compass/internal/storage"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/config"
	"github.com/valuecompass/compass/pkg/database"
	"github.com/valuecompass/compass/pkg/logger"
	"github.com/valuecompass/compass/pkg/redis"
)

// app bundles the shared wiring every command needs.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	rules         *storage.RuleRepository
	scores        *storage.ScoreRepository
	alerts        *storage.AlertRepository
	notifications *storage.NotificationRepository

	market    *marketdata.Client
	calc      *valuation.Calculator
	hub       *ws.Hub
	evaluator *alerting.Evaluator
}

// newApp loads config and connects every dependency.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		redisClient = redis.Disabled()
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: redisClient,

		rules:         storage.NewRuleRepository(db.Pool),
		scores:        storage.NewScoreRepository(db.Pool),
		alerts:        storage.NewAlertRepository(db.Pool),
		notifications: storage.NewNotificationRepository(db.Pool),
	}

	a.market = marketdata.New(cfg, redisClient, log)
	a.calc = valuation.NewCalculator(a.market, log, cfg.Alerts.Workers)
	a.hub = ws.NewHub(log)
	a.evaluator = alerting.NewEvaluator(
		a.alerts, a.notifications, a.rules, a.market, a.calc, a.hub, log,
	)
	return a, nil
}

// close releases all connections.
func (a *app) close() {
	a.hub.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close Redis client")
	}
	a.db.Close()
}
