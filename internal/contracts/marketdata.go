package contracts

import "context"

// FinancialSnapshot is the latest fundamentals row for a ticker as served by
// the data service. Missing fields are nil, never zero.
type FinancialSnapshot struct {
	Ticker        string   `json:"ticker"`
	Sector        string   `json:"sector,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	Close         *float64 `json:"close,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	EPS           *float64 `json:"eps,omitempty"`
	Revenue       *float64 `json:"revenue,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	PBRatio       *float64 `json:"pb_ratio,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty"`
	ProfitMargin  *float64 `json:"profit_margin,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	CurrentRatio  *float64 `json:"current_ratio,omitempty"`
}

// Price returns the freshest price available: current_price when present,
// otherwise the last close. A zero price means the upstream feed had no
// quote, so it counts as absent. The second return is false when no usable
// price exists.
func (s *FinancialSnapshot) Price() (float64, bool) {
	if s.CurrentPrice != nil && *s.CurrentPrice != 0 {
		return *s.CurrentPrice, true
	}
	if s.Close != nil && *s.Close != 0 {
		return *s.Close, true
	}
	return 0, false
}

// Metric looks up a fundamental metric by its rule-config name.
func (s *FinancialSnapshot) Metric(name string) *float64 {
	switch name {
	case "pe_ratio":
		return s.PERatio
	case "pb_ratio":
		return s.PBRatio
	case "dividend_yield":
		return s.DividendYield
	case "debt_to_equity":
		return s.DebtToEquity
	case "profit_margin":
		return s.ProfitMargin
	case "roe":
		return s.ROE
	}
	return nil
}

// PricePoint is one bar of a historical price series, oldest first. Only the
// close participates in scoring; the rest of the bar is carried through as
// the data service provides it.
type PricePoint struct {
	Date          string   `json:"date"`
	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Close         float64  `json:"close"`
	Volume        *int64   `json:"volume,omitempty"`
	AdjustedClose *float64 `json:"adjusted_close,omitempty"`
}

// PeerMetrics holds the per-peer values of one fundamental metric across an
// industry, keyed by ticker.
type PeerMetrics map[string]float64

// MarketDataClient fetches fundamentals, price history, and industry peers
// from the upstream data service.
type MarketDataClient interface {
	Snapshot(ctx context.Context, ticker string) (*FinancialSnapshot, error)
	HistoricalPrices(ctx context.Context, ticker string, days int) ([]PricePoint, error)
	PeerMetrics(ctx context.Context, industry, metric string) (PeerMetrics, error)
}
