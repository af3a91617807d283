// Package marketdata implements the HTTP client for the upstream data
// service, with Redis-backed response caching and client-side rate limiting.
package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valuecompass/compass/internal/contracts"
	"github.com/valuecompass/compass/pkg/config"
	"github.com/valuecompass/compass/pkg/httputil"
	"github.com/valuecompass/compass/pkg/logger"
	"github.com/valuecompass/compass/pkg/redis"
)

// Client fetches fundamentals, price history, and peer metrics from the data
// service. It satisfies contracts.MarketDataClient.
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	log     *logger.Logger
	baseURL string

	snapshotTTL time.Duration
	seriesTTL   time.Duration
	peersTTL    time.Duration
}

// peerCompany is one row of the data service's industry peers response.
type peerCompany struct {
	Ticker       string   `json:"ticker"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	PBRatio      *float64 `json:"pb_ratio,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	ROE          *float64 `json:"roe,omitempty"`
}

func (p *peerCompany) metric(name string) *float64 {
	switch name {
	case "pe_ratio":
		return p.PERatio
	case "pb_ratio":
		return p.PBRatio
	case "debt_to_equity":
		return p.DebtToEquity
	case "profit_margin":
		return p.ProfitMargin
	case "roe":
		return p.ROE
	}
	return nil
}

// New creates a data service client. redisClient may be disabled, in which
// case every call goes straight to the service.
func New(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.MarketData.Timeout)
	if cfg.MarketData.RequestsPerSec > 0 {
		httpClient = httpClient.WithRateLimit(cfg.MarketData.RequestsPerSec)
	}
	return &Client{
		http:        httpClient,
		cache:       redis.NewCache(redisClient, "marketdata"),
		log:         log.WithField("component", "marketdata"),
		baseURL:     strings.TrimRight(cfg.MarketData.BaseURL, "/"),
		snapshotTTL: cfg.MarketData.SnapshotTTL,
		seriesTTL:   cfg.MarketData.SeriesTTL,
		peersTTL:    cfg.MarketData.PeersTTL,
	}
}

// Snapshot fetches the latest fundamentals for a ticker.
func (c *Client) Snapshot(ctx context.Context, ticker string) (*contracts.FinancialSnapshot, error) {
	cacheKey := "snapshot:" + ticker
	var snapshot contracts.FinancialSnapshot
	if hit, _ := c.cache.Get(ctx, cacheKey, &snapshot); hit {
		return &snapshot, nil
	}

	endpoint := fmt.Sprintf("%s/stocks/%s/financials", c.baseURL, url.PathEscape(ticker))
	if err := c.http.GetJSON(ctx, endpoint, &snapshot); err != nil {
		return nil, &contracts.UpstreamError{Op: "financials", Err: err}
	}
	if snapshot.Ticker == "" {
		snapshot.Ticker = ticker
	}

	if err := c.cache.Set(ctx, cacheKey, &snapshot, c.snapshotTTL); err != nil {
		c.log.WithError(err).Warn("failed to cache snapshot")
	}
	return &snapshot, nil
}

// HistoricalPrices fetches up to days of daily closes for a ticker, oldest
// first.
func (c *Client) HistoricalPrices(ctx context.Context, ticker string, days int) ([]contracts.PricePoint, error) {
	cacheKey := fmt.Sprintf("series:%s:%d", ticker, days)
	var series []contracts.PricePoint
	if hit, _ := c.cache.Get(ctx, cacheKey, &series); hit {
		return series, nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	endpoint := fmt.Sprintf("%s/stocks/%s/historical?start_date=%s&end_date=%s",
		c.baseURL, url.PathEscape(ticker),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	if err := c.http.GetJSON(ctx, endpoint, &series); err != nil {
		return nil, &contracts.UpstreamError{Op: "historical", Err: err}
	}

	if err := c.cache.Set(ctx, cacheKey, series, c.seriesTTL); err != nil {
		c.log.WithError(err).Warn("failed to cache price series")
	}
	return series, nil
}

// PeerMetrics fetches one fundamental metric across all companies in an
// industry. Companies missing the metric are omitted.
func (c *Client) PeerMetrics(ctx context.Context, industry, metric string) (contracts.PeerMetrics, error) {
	peers, err := c.industryPeers(ctx, industry)
	if err != nil {
		return nil, err
	}

	out := make(contracts.PeerMetrics, len(peers))
	for i := range peers {
		if v := peers[i].metric(metric); v != nil {
			out[peers[i].Ticker] = *v
		}
	}
	return out, nil
}

func (c *Client) industryPeers(ctx context.Context, industry string) ([]peerCompany, error) {
	cacheKey := "peers:" + industry
	var peers []peerCompany
	if hit, _ := c.cache.Get(ctx, cacheKey, &peers); hit {
		return peers, nil
	}

	endpoint := fmt.Sprintf("%s/industry/%s/peers", c.baseURL, url.PathEscape(industry))
	if err := c.http.GetJSON(ctx, endpoint, &peers); err != nil {
		return nil, &contracts.UpstreamError{Op: "peers", Err: err}
	}

	if err := c.cache.Set(ctx, cacheKey, peers, c.peersTTL); err != nil {
		c.log.WithError(err).Warn("failed to cache industry peers")
	}
	return peers, nil
}
