package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuecompass/compass/internal/alerting"
	"github.com/valuecompass/compass/internal/api/handlers"
	"github.com/valuecompass/compass/internal/api/ws"
	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/internal/valuation"
	"github.com/valuecompass/compass/pkg/logger"
)

func f(v float64) *float64 { return &v }

type stubRuleRepo struct {
	def *contracts.ValuationRule
}

func (r *stubRuleRepo) GetByID(_ context.Context, id int64) (*contracts.ValuationRule, error) {
	if r.def != nil && r.def.ID == id {
		return r.def, nil
	}
	return nil, &contracts.NotFoundError{Resource: "rule"}
}

func (r *stubRuleRepo) GetDefault(_ context.Context) (*contracts.ValuationRule, error) {
	if r.def == nil {
		return nil, &contracts.NotFoundError{Resource: "default rule"}
	}
	return r.def, nil
}

func (r *stubRuleRepo) List(_ context.Context) ([]*contracts.ValuationRule, error) {
	if r.def == nil {
		return nil, nil
	}
	return []*contracts.ValuationRule{r.def}, nil
}

func (r *stubRuleRepo) Create(_ context.Context, _ *contracts.ValuationRule) error { return nil }

type stubScoreRepo struct {
	saved []*contracts.ScoreRecord
}

func (r *stubScoreRepo) Save(_ context.Context, record *contracts.ScoreRecord) error {
	record.ID = int64(len(r.saved) + 1)
	record.ScoredAt = time.Now()
	r.saved = append(r.saved, record)
	return nil
}

func (r *stubScoreRepo) ListByTicker(_ context.Context, ticker string, _ int) ([]*contracts.ScoreRecord, error) {
	var out []*contracts.ScoreRecord
	for _, rec := range r.saved {
		if rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubAlertRepo struct{}

func (stubAlertRepo) GetActiveByTypes(context.Context, []string) ([]*contracts.Alert, error) {
	return nil, nil
}
func (stubAlertRepo) MarkTriggered(context.Context, int64, time.Time) error { return nil }
func (stubAlertRepo) ActiveTickers(context.Context, []string) ([]string, error) {
	return nil, nil
}

type stubNotificationRepo struct{}

func (stubNotificationRepo) Save(context.Context, *contracts.NotificationLogEntry) error {
	return nil
}

type stubMarket struct {
	snapshots map[string]*contracts.FinancialSnapshot
}

func (m *stubMarket) Snapshot(_ context.Context, ticker string) (*contracts.FinancialSnapshot, error) {
	s, ok := m.snapshots[ticker]
	if !ok {
		return nil, errors.New("snapshot unavailable")
	}
	return s, nil
}

func (m *stubMarket) HistoricalPrices(context.Context, string, int) ([]contracts.PricePoint, error) {
	return nil, nil
}

func (m *stubMarket) PeerMetrics(context.Context, string, string) (contracts.PeerMetrics, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubScoreRepo) {
	t.Helper()

	config := `{"metrics": {"pe_ratio": {"weight": 1, "ideal_range": [5, 15]}}}`
	parsed, err := contracts.ParseRuleConfig([]byte(config))
	require.NoError(t, err)
	rule := &contracts.ValuationRule{
		ID: 1, Name: "Value Investing", Config: json.RawMessage(config),
		IsDefault: true, ParsedConfig: parsed,
	}

	market := &stubMarket{snapshots: map[string]*contracts.FinancialSnapshot{
		"AAPL": {Ticker: "AAPL", PERatio: f(10)},
	}}
	rules := &stubRuleRepo{def: rule}
	scores := &stubScoreRepo{}

	log := logger.Nop()
	calc := valuation.NewCalculator(market, log, 2)
	hub := ws.NewHub(log)
	evaluator := alerting.NewEvaluator(stubAlertRepo{}, stubNotificationRepo{}, rules, market, calc, hub, log)

	router := NewRouter(
		handlers.NewValuationHandler(calc, rules, scores, log),
		handlers.NewAlertsHandler(evaluator, log),
		hub,
		nil,
		log,
	)
	return router, scores
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestScoreEndpoint(t *testing.T) {
	router, scores := newTestRouter(t)

	body := strings.NewReader(`{"ticker": "AAPL"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/valuation/score", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var result contracts.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "AAPL", result.Ticker)
	assert.InDelta(t, 85.0, result.Score, 1e-9)
	assert.Len(t, scores.saved, 1, "stored-rule scores are persisted")
}

func TestScoreEndpointAdHocConfig(t *testing.T) {
	router, scores := newTestRouter(t)

	body := strings.NewReader(`{
		"ticker": "AAPL",
		"config": {"metrics": {"pe_ratio": {"weight": 1, "ideal_range": [5, 15]}}}
	}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/valuation/score", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, scores.saved, "ad-hoc scores are not persisted")
}

func TestScoreEndpointValidationFailure(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"ticker": "AAPL", "config": {"metrics": {}}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/valuation/score", body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScoreEndpointMissingTicker(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/valuation/score", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchScoreEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"tickers": ["AAPL", "GONE"]}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/valuation/score/batch", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RuleID  int64                   `json:"rule_id"`
		Results []contracts.ScoreResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Failed())
	assert.True(t, resp.Results[1].Failed(), "unknown ticker fails in place")
}

func TestListRulesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/valuation/rules", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var rules []contracts.ValuationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, "Value Investing", rules[0].Name)
}

func TestGetRuleNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/valuation/rules/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreHistoryEndpoint(t *testing.T) {
	router, scores := newTestRouter(t)
	scores.saved = append(scores.saved, &contracts.ScoreRecord{
		ID: 1, Ticker: "AAPL", RuleID: 1, Score: 85,
		Components: contracts.ScoreComponents{"pe_ratio": 85},
		ScoredAt:   time.Now(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/valuation/AAPL/scores", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var records []contracts.ScoreRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.InDelta(t, 85.0, records[0].Score, 1e-9)
}

func TestAlertCheckEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/alerts/check/price", "/api/alerts/check/valuation"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"triggered":0`)
	}
}
