package valuation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/pkg/logger"
)

// historyDays is how far back the price series for historical metrics reaches.
const historyDays = 365

// Calculator scores tickers against valuation rules, fetching only the market
// data each rule actually needs.
type Calculator struct {
	client  contracts.MarketDataClient
	log     *logger.Logger
	workers int
}

// NewCalculator creates a Calculator. workers bounds batch concurrency; values
// below 1 are clamped to 1.
func NewCalculator(client contracts.MarketDataClient, log *logger.Logger, workers int) *Calculator {
	if workers < 1 {
		workers = 1
	}
	return &Calculator{
		client:  client,
		log:     log.WithField("component", "calculator"),
		workers: workers,
	}
}

// Score computes the valuation score of one ticker under the given rule.
func (c *Calculator) Score(ctx context.Context, ticker string, rule *contracts.ValuationRule) (*contracts.ScoreResult, error) {
	cfg := rule.ParsedConfig
	if cfg == nil {
		parsed, err := contracts.ParseRuleConfig(rule.Config)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	snapshot, err := c.client.Snapshot(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for %s: %w", ticker, err)
	}

	var history []contracts.PricePoint
	if hasMetricPrefix(cfg, "historical_") {
		history, err = c.client.HistoricalPrices(ctx, ticker, historyDays)
		if err != nil {
			return nil, fmt.Errorf("fetch price history for %s: %w", ticker, err)
		}
	}

	peers := map[string]contracts.PeerMetrics{}
	if hasMetricPrefix(cfg, "peer_") && snapshot.Industry != "" {
		for name := range cfg.Metrics {
			base, ok := strings.CutPrefix(name, "peer_")
			if !ok {
				continue
			}
			pm, err := c.client.PeerMetrics(ctx, snapshot.Industry, base)
			if err != nil {
				return nil, fmt.Errorf("fetch %s peers for %s: %w", base, ticker, err)
			}
			peers[base] = pm
		}
	}

	components := make(contracts.ScoreComponents, len(cfg.Metrics))
	for name, mc := range cfg.Metrics {
		components[name] = c.scoreMetric(ticker, name, mc, snapshot, history, peers)
	}

	overall, err := Aggregate(components, cfg)
	if err != nil {
		return nil, err
	}

	return &contracts.ScoreResult{
		Ticker:     ticker,
		Score:      overall,
		Components: components,
		RuleID:     rule.ID,
		RuleName:   rule.Name,
	}, nil
}

func (c *Calculator) scoreMetric(
	ticker, name string,
	cfg contracts.MetricConfig,
	snapshot *contracts.FinancialSnapshot,
	history []contracts.PricePoint,
	peers map[string]contracts.PeerMetrics,
) float64 {
	switch name {
	case "pe_ratio":
		return ScorePERatio(snapshot.PERatio, cfg)
	case "pb_ratio":
		return ScorePBRatio(snapshot.PBRatio, cfg)
	case "dividend_yield":
		return ScoreDividendYield(snapshot.DividendYield, cfg)
	case "debt_to_equity":
		return ScoreDebtToEquity(snapshot.DebtToEquity, cfg)
	case "profit_margin":
		return ScoreProfitMargin(snapshot.ProfitMargin, cfg)
	case "roe":
		return ScoreROE(snapshot.ROE, cfg)
	case "historical_volatility":
		if len(history) > 0 {
			return ScoreHistoricalVolatility(history, cfg)
		}
	case "peer_pe_ratio":
		if pm, ok := peers["pe_ratio"]; ok {
			return ScorePeerComparison(snapshot.PERatio, "pe_ratio", pm, cfg)
		}
	case "peer_pb_ratio":
		if pm, ok := peers["pb_ratio"]; ok {
			return ScorePeerComparison(snapshot.PBRatio, "pb_ratio", pm, cfg)
		}
	default:
		c.log.Warnf("unrecognized metric %s for %s, using default score", name, ticker)
	}
	return boundOr(cfg.DefaultScore, contracts.DefaultScore)
}

// ScoreBatch scores every ticker under the same rule. Failures are isolated
// per ticker: the returned slice always matches the input in length and
// order, with failed entries carrying a zero score and the error message.
func (c *Calculator) ScoreBatch(ctx context.Context, tickers []string, rule *contracts.ValuationRule) []contracts.ScoreResult {
	results := make([]contracts.ScoreResult, len(tickers))

	type job struct {
		idx    int
		ticker string
	}
	jobCh := make(chan job, len(tickers))

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				res, err := c.Score(ctx, j.ticker, rule)
				if err != nil {
					c.log.WithError(err).Warnf("scoring failed for %s", j.ticker)
					results[j.idx] = contracts.ScoreResult{
						Ticker:     j.ticker,
						Score:      0,
						Components: contracts.ScoreComponents{},
						RuleID:     rule.ID,
						RuleName:   rule.Name,
						Err:        err.Error(),
					}
					continue
				}
				results[j.idx] = *res
			}
		}()
	}

	for i, t := range tickers {
		jobCh <- job{idx: i, ticker: t}
	}
	close(jobCh)
	wg.Wait()

	return results
}

func hasMetricPrefix(cfg *contracts.RuleConfig, prefix string) bool {
	for name := range cfg.Metrics {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
