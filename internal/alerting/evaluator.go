// Package alerting evaluates stored alert conditions against live market
// data and valuation scores.
package alerting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/logger"
)

// changeWindowDays is how far back the percentage-change comparison looks.
const changeWindowDays = 2

// Broadcaster pushes trigger events to connected listeners. A nil broadcaster
// is allowed and ignored.
type Broadcaster interface {
	Broadcast(event contracts.TriggerEvent)
}

// Evaluator runs alert evaluation passes. Each pass re-evaluates every active
// alert; an alert that keeps satisfying its condition fires on every pass.
type Evaluator struct {
	alerts        contracts.AlertRepository
	notifications contracts.NotificationRepository
	rules         contracts.RuleRepository
	market        contracts.MarketDataClient
	calc          *valuation.Calculator
	broadcaster   Broadcaster
	log           *logger.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(
	alerts contracts.AlertRepository,
	notifications contracts.NotificationRepository,
	rules contracts.RuleRepository,
	market contracts.MarketDataClient,
	calc *valuation.Calculator,
	broadcaster Broadcaster,
	log *logger.Logger,
) *Evaluator {
	return &Evaluator{
		alerts:        alerts,
		notifications: notifications,
		rules:         rules,
		market:        market,
		calc:          calc,
		broadcaster:   broadcaster,
		log:           log.WithField("component", "alerting"),
	}
}

// CheckPriceAlerts evaluates all active price and percentage-change alerts.
// Tickers whose market data cannot be fetched, or with fewer than two history
// points, are skipped without failing the pass.
func (e *Evaluator) CheckPriceAlerts(ctx context.Context) ([]contracts.TriggerEvent, error) {
	active, err := e.alerts.GetActiveByTypes(ctx, []string{
		contracts.AlertTypePrice,
		contracts.AlertTypePercentageChange,
	})
	if err != nil {
		return nil, fmt.Errorf("load active alerts: %w", err)
	}

	var events []contracts.TriggerEvent
	for ticker, alerts := range groupByTicker(active) {
		snapshot, err := e.market.Snapshot(ctx, ticker)
		if err != nil {
			e.log.WithError(err).Warnf("skipping %s, snapshot fetch failed", ticker)
			continue
		}
		history, err := e.market.HistoricalPrices(ctx, ticker, changeWindowDays)
		if err != nil {
			e.log.WithError(err).Warnf("skipping %s, history fetch failed", ticker)
			continue
		}
		if len(history) < 2 {
			e.log.Debugf("skipping %s, not enough price history", ticker)
			continue
		}

		currentPrice, ok := snapshot.Price()
		if !ok {
			continue
		}

		var dailyChangePct *float64
		if prev := history[0].Close; prev > 0 {
			pct := (currentPrice - prev) / prev * 100
			dailyChangePct = &pct
		}

		for _, alert := range alerts {
			observed, message, fired := evaluatePriceAlert(alert, currentPrice, dailyChangePct)
			if !fired {
				continue
			}
			if ev, err := e.trigger(ctx, alert, observed, message); err == nil {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// CheckValuationAlerts evaluates all active valuation-score alerts. The rule
// is taken from the first alert's rule_id parameter per ticker, falling back
// to the default rule.
func (e *Evaluator) CheckValuationAlerts(ctx context.Context) ([]contracts.TriggerEvent, error) {
	active, err := e.alerts.GetActiveByTypes(ctx, []string{contracts.AlertTypeValuationScore})
	if err != nil {
		return nil, fmt.Errorf("load active alerts: %w", err)
	}

	var events []contracts.TriggerEvent
	for ticker, alerts := range groupByTicker(active) {
		rule, err := e.resolveRule(ctx, alerts[0].Params.RuleID)
		if err != nil {
			e.log.WithError(err).Warnf("skipping %s, rule lookup failed", ticker)
			continue
		}

		result, err := e.calc.Score(ctx, ticker, rule)
		if err != nil {
			e.log.WithError(err).Warnf("skipping %s, scoring failed", ticker)
			continue
		}

		for _, alert := range alerts {
			observed, message, fired := evaluateScoreAlert(alert, result.Score)
			if !fired {
				continue
			}
			if ev, err := e.trigger(ctx, alert, observed, message); err == nil {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

func (e *Evaluator) resolveRule(ctx context.Context, ruleID *int64) (*contracts.ValuationRule, error) {
	if ruleID != nil {
		return e.rules.GetByID(ctx, *ruleID)
	}
	return e.rules.GetDefault(ctx)
}

// trigger records a fired alert: updates last_triggered_at, writes the
// notification log row, and broadcasts the event.
func (e *Evaluator) trigger(ctx context.Context, alert *contracts.Alert, observed float64, message string) (contracts.TriggerEvent, error) {
	now := time.Now()
	if err := e.alerts.MarkTriggered(ctx, alert.ID, now); err != nil {
		e.log.WithError(err).Errorf("failed to mark alert %d triggered", alert.ID)
		return contracts.TriggerEvent{}, err
	}
	entry := &contracts.NotificationLogEntry{
		AlertID: alert.ID,
		UserID:  alert.UserID,
		Channel: contracts.NotificationChannelEmail,
		Status:  contracts.NotificationStatusPending,
		Message: message,
	}
	if err := e.notifications.Save(ctx, entry); err != nil {
		e.log.WithError(err).Errorf("failed to log notification for alert %d", alert.ID)
		return contracts.TriggerEvent{}, err
	}

	event := contracts.TriggerEvent{
		AlertID:     alert.ID,
		Ticker:      alert.Ticker,
		AlertType:   alert.AlertType,
		Threshold:   alert.Threshold,
		Observed:    observed,
		Message:     message,
		TriggeredAt: now,
	}
	if e.broadcaster != nil {
		e.broadcaster.Broadcast(event)
	}
	e.log.WithFields(map[string]interface{}{
		"ticker":     alert.Ticker,
		"alert_type": alert.AlertType,
		"alert_id":   alert.ID,
	}).Info("alert triggered")
	return event, nil
}

func evaluatePriceAlert(alert *contracts.Alert, currentPrice float64, dailyChangePct *float64) (float64, string, bool) {
	switch alert.AlertType {
	case contracts.AlertTypePrice:
		switch alert.Params.Direction {
		case contracts.DirectionAbove:
			if currentPrice >= alert.Threshold {
				return currentPrice, fmt.Sprintf("%s price is above %g: current price is %g",
					alert.Ticker, alert.Threshold, currentPrice), true
			}
		case contracts.DirectionBelow:
			if currentPrice <= alert.Threshold {
				return currentPrice, fmt.Sprintf("%s price is below %g: current price is %g",
					alert.Ticker, alert.Threshold, currentPrice), true
			}
		}
	case contracts.AlertTypePercentageChange:
		if dailyChangePct == nil {
			return 0, "", false
		}
		pct := *dailyChangePct
		switch alert.Params.Direction {
		case contracts.DirectionUp:
			if pct >= alert.Threshold {
				return pct, fmt.Sprintf("%s price increased by %.2f%% today (threshold: %g%%)",
					alert.Ticker, pct, alert.Threshold), true
			}
		case contracts.DirectionDown:
			if pct <= -alert.Threshold {
				return pct, fmt.Sprintf("%s price decreased by %.2f%% today (threshold: %g%%)",
					alert.Ticker, math.Abs(pct), alert.Threshold), true
			}
		}
	}
	return 0, "", false
}

func evaluateScoreAlert(alert *contracts.Alert, score float64) (float64, string, bool) {
	switch alert.Params.Direction {
	case contracts.DirectionAbove:
		if score >= alert.Threshold {
			return score, fmt.Sprintf("%s valuation score is above %g: current score is %g",
				alert.Ticker, alert.Threshold, score), true
		}
	case contracts.DirectionBelow:
		if score <= alert.Threshold {
			return score, fmt.Sprintf("%s valuation score is below %g: current score is %g",
				alert.Ticker, alert.Threshold, score), true
		}
	}
	return 0, "", false
}

func groupByTicker(alerts []*contracts.Alert) map[string][]*contracts.Alert {
	grouped := make(map[string][]*contracts.Alert)
	for _, a := range alerts {
		grouped[a.Ticker] = append(grouped[a.Ticker], a)
	}
	return grouped
}
