package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/logger"
)

func f(v float64) *float64 { return &v }

type fakeAlertRepo struct {
	alerts    []*contracts.Alert
	triggered map[int64]time.Time
}

func (r *fakeAlertRepo) GetActiveByTypes(_ context.Context, types []string) ([]*contracts.Alert, error) {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []*contracts.Alert
	for _, a := range r.alerts {
		if a.Active && want[a.AlertType] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) MarkTriggered(_ context.Context, alertID int64, at time.Time) error {
	if r.triggered == nil {
		r.triggered = map[int64]time.Time{}
	}
	r.triggered[alertID] = at
	return nil
}

func (r *fakeAlertRepo) ActiveTickers(_ context.Context, _ []string) ([]string, error) {
	return nil, nil
}

type fakeNotificationRepo struct {
	saved []*contracts.NotificationLogEntry
}

func (r *fakeNotificationRepo) Save(_ context.Context, entry *contracts.NotificationLogEntry) error {
	r.saved = append(r.saved, entry)
	return nil
}

type fakeRuleRepo struct {
	rules map[int64]*contracts.ValuationRule
	def   *contracts.ValuationRule
}

func (r *fakeRuleRepo) GetByID(_ context.Context, id int64) (*contracts.ValuationRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, &contracts.NotFoundError{Resource: "rule"}
	}
	return rule, nil
}

func (r *fakeRuleRepo) GetDefault(_ context.Context) (*contracts.ValuationRule, error) {
	if r.def == nil {
		return nil, &contracts.NotFoundError{Resource: "default rule"}
	}
	return r.def, nil
}

func (r *fakeRuleRepo) List(_ context.Context) ([]*contracts.ValuationRule, error) { return nil, nil }

func (r *fakeRuleRepo) Create(_ context.Context, _ *contracts.ValuationRule) error { return nil }

type fakeMarket struct {
	snapshots map[string]*contracts.FinancialSnapshot
	history   map[string][]contracts.PricePoint
}

func (m *fakeMarket) Snapshot(_ context.Context, ticker string) (*contracts.FinancialSnapshot, error) {
	s, ok := m.snapshots[ticker]
	if !ok {
		return nil, errors.New("snapshot unavailable")
	}
	return s, nil
}

func (m *fakeMarket) HistoricalPrices(_ context.Context, ticker string, _ int) ([]contracts.PricePoint, error) {
	return m.history[ticker], nil
}

func (m *fakeMarket) PeerMetrics(_ context.Context, _, _ string) (contracts.PeerMetrics, error) {
	return nil, nil
}

type capturedEvents struct {
	events []contracts.TriggerEvent
}

func (c *capturedEvents) Broadcast(event contracts.TriggerEvent) {
	c.events = append(c.events, event)
}

func newEvaluator(t *testing.T, alerts *fakeAlertRepo, rules *fakeRuleRepo, market *fakeMarket) (*Evaluator, *fakeNotificationRepo, *capturedEvents) {
	t.Helper()
	notifications := &fakeNotificationRepo{}
	broadcaster := &capturedEvents{}
	calc := valuation.NewCalculator(market, logger.Nop(), 1)
	ev := NewEvaluator(alerts, notifications, rules, market, calc, broadcaster, logger.Nop())
	return ev, notifications, broadcaster
}

func priceAlert(id int64, ticker, direction string, threshold float64) *contracts.Alert {
	return &contracts.Alert{
		ID:        id,
		Ticker:    ticker,
		AlertType: contracts.AlertTypePrice,
		Threshold: threshold,
		Params:    contracts.AlertParams{Direction: direction},
		Active:    true,
	}
}

func twoDayHistory(prev, last float64) []contracts.PricePoint {
	return []contracts.PricePoint{
		{Date: "2026-08-28", Close: prev},
		{Date: "2026-08-29", Close: last},
	}
}

func TestCheckPriceAlertsAbove(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(1, "AAPL", contracts.DirectionAbove, 100),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", CurrentPrice: f(105)},
		},
		history: map[string][]contracts.PricePoint{"AAPL": twoDayHistory(100, 105)},
	}
	ev, notifications, broadcaster := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, int64(1), events[0].AlertID)
	assert.Equal(t, 105.0, events[0].Observed)
	assert.Equal(t, "AAPL price is above 100: current price is 105", events[0].Message)

	require.Len(t, notifications.saved, 1)
	assert.Equal(t, contracts.NotificationStatusPending, notifications.saved[0].Status)
	assert.Equal(t, contracts.NotificationChannelEmail, notifications.saved[0].Channel)

	require.Len(t, broadcaster.events, 1)
	assert.Contains(t, alerts.triggered, int64(1))
}

func TestCheckPriceAlertsNotificationCarriesOwner(t *testing.T) {
	userID := int64(42)
	alert := priceAlert(1, "AAPL", contracts.DirectionAbove, 100)
	alert.UserID = &userID
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{alert}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", CurrentPrice: f(105)},
		},
		history: map[string][]contracts.PricePoint{"AAPL": twoDayHistory(100, 105)},
	}
	ev, notifications, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.Len(t, notifications.saved, 1)
	require.NotNil(t, notifications.saved[0].UserID)
	assert.Equal(t, userID, *notifications.saved[0].UserID)
}

func TestCheckPriceAlertsSkipsZeroPrice(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(1, "HALT", contracts.DirectionBelow, 100),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"HALT": {Ticker: "HALT", CurrentPrice: f(0)},
		},
		history: map[string][]contracts.PricePoint{"HALT": twoDayHistory(100, 99)},
	}
	ev, notifications, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "a zero quote never satisfies a below alert")
	assert.Empty(t, notifications.saved)
	assert.Empty(t, alerts.triggered)
}

func TestCheckPriceAlertsNotTriggered(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(1, "AAPL", contracts.DirectionAbove, 100),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", CurrentPrice: f(95)},
		},
		history: map[string][]contracts.PricePoint{"AAPL": twoDayHistory(94, 95)},
	}
	ev, notifications, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, notifications.saved)
	assert.Empty(t, alerts.triggered)
}

func TestCheckPriceAlertsBelow(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(2, "MSFT", contracts.DirectionBelow, 100),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"MSFT": {Ticker: "MSFT", CurrentPrice: f(95)},
		},
		history: map[string][]contracts.PricePoint{"MSFT": twoDayHistory(100, 95)},
	}
	ev, _, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "MSFT price is below 100: current price is 95", events[0].Message)
}

func TestCheckPercentageChangeAlerts(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		{
			ID: 3, Ticker: "TSLA", AlertType: contracts.AlertTypePercentageChange,
			Threshold: 5, Params: contracts.AlertParams{Direction: contracts.DirectionUp}, Active: true,
		},
		{
			ID: 4, Ticker: "TSLA", AlertType: contracts.AlertTypePercentageChange,
			Threshold: 5, Params: contracts.AlertParams{Direction: contracts.DirectionDown}, Active: true,
		},
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"TSLA": {Ticker: "TSLA", CurrentPrice: f(110)},
		},
		history: map[string][]contracts.PricePoint{"TSLA": twoDayHistory(100, 110)},
	}
	ev, _, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1, "only the up alert fires on a 10% gain")
	assert.Equal(t, int64(3), events[0].AlertID)
	assert.Equal(t, "TSLA price increased by 10.00% today (threshold: 5%)", events[0].Message)
}

func TestCheckPriceAlertsSkipsThinHistory(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(1, "NEWCO", contracts.DirectionAbove, 10),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"NEWCO": {Ticker: "NEWCO", CurrentPrice: f(50)},
		},
		history: map[string][]contracts.PricePoint{
			"NEWCO": {{Date: "2026-08-29", Close: 50}},
		},
	}
	ev, notifications, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "single history point skips the ticker")
	assert.Empty(t, notifications.saved)
}

func TestCheckPriceAlertsSkipsFetchFailures(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		priceAlert(1, "GONE", contracts.DirectionAbove, 10),
		priceAlert(2, "AAPL", contracts.DirectionAbove, 100),
	}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", CurrentPrice: f(105)},
		},
		history: map[string][]contracts.PricePoint{"AAPL": twoDayHistory(100, 105)},
	}
	ev, _, _ := newEvaluator(t, alerts, &fakeRuleRepo{}, market)

	events, err := ev.CheckPriceAlerts(context.Background())
	require.NoError(t, err, "a failing ticker does not fail the pass")
	require.Len(t, events, 1)
	assert.Equal(t, "AAPL", events[0].Ticker)
}

func TestCheckValuationAlerts(t *testing.T) {
	config := `{"metrics": {"pe_ratio": {"weight": 1, "ideal_range": [5, 15]}}}`
	parsed, err := contracts.ParseRuleConfig([]byte(config))
	require.NoError(t, err)
	rule := &contracts.ValuationRule{
		ID: 7, Name: "value", Config: json.RawMessage(config),
		IsDefault: true, ParsedConfig: parsed,
	}

	ruleID := int64(7)
	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		{
			ID: 10, Ticker: "AAPL", AlertType: contracts.AlertTypeValuationScore,
			Threshold: 80,
			Params:    contracts.AlertParams{Direction: contracts.DirectionAbove, RuleID: &ruleID},
			Active:    true,
		},
	}}
	rules := &fakeRuleRepo{rules: map[int64]*contracts.ValuationRule{7: rule}}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", PERatio: f(10)},
		},
	}
	ev, notifications, _ := newEvaluator(t, alerts, rules, market)

	events, err := ev.CheckValuationAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	// PE of 10 inside [5, 15] scores 85.
	assert.Equal(t, 85.0, events[0].Observed)
	assert.Equal(t, "AAPL valuation score is above 80: current score is 85", events[0].Message)
	require.Len(t, notifications.saved, 1)
}

func TestCheckValuationAlertsDefaultRule(t *testing.T) {
	config := `{"metrics": {"pe_ratio": {"weight": 1, "ideal_range": [5, 15]}}}`
	parsed, err := contracts.ParseRuleConfig([]byte(config))
	require.NoError(t, err)
	rule := &contracts.ValuationRule{
		ID: 1, Name: "default", Config: json.RawMessage(config),
		IsDefault: true, ParsedConfig: parsed,
	}

	alerts := &fakeAlertRepo{alerts: []*contracts.Alert{
		{
			ID: 11, Ticker: "AAPL", AlertType: contracts.AlertTypeValuationScore,
			Threshold: 90,
			Params:    contracts.AlertParams{Direction: contracts.DirectionBelow},
			Active:    true,
		},
	}}
	rules := &fakeRuleRepo{def: rule}
	market := &fakeMarket{
		snapshots: map[string]*contracts.FinancialSnapshot{
			"AAPL": {Ticker: "AAPL", PERatio: f(10)},
		},
	}
	ev, _, _ := newEvaluator(t, alerts, rules, market)

	events, err := ev.CheckValuationAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 85.0, events[0].Observed)
}
