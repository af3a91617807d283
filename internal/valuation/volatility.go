package valuation

import (
	"math"

	"github.com/valuecompass/compass/internal/contracts"
)

// tradingDaysPerYear is the annualization factor for daily return volatility.
const tradingDaysPerYear = 252

// minVolatilityPoints is the shortest series volatility is computed from.
const minVolatilityPoints = 20

// ScoreHistoricalVolatility scores annualized price volatility. Lower is
// better. Series shorter than minVolatilityPoints score the default.
func ScoreHistoricalVolatility(history []contracts.PricePoint, cfg contracts.MetricConfig) float64 {
	if len(history) < minVolatilityPoints {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}

	vol := annualizedVolatility(history)
	low, high := defaultRange(cfg, 10.0, 25.0)
	maxVol := boundOr(cfg.MaxVolatility, defaultMaxVolatility)

	switch {
	case vol <= low:
		return 100
	case vol <= high:
		position := (high - vol) / (high - low)
		return 70 + position*30
	case vol <= maxVol:
		position := (maxVol - vol) / (maxVol - high)
		return 40 + position*30
	default:
		return math.Max(0, 40-(vol-maxVol)*0.8)
	}
}

// annualizedVolatility is the sample standard deviation of daily returns
// scaled by sqrt(252), expressed in percent.
func annualizedVolatility(history []contracts.PricePoint) float64 {
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		returns = append(returns, history[i].Close/history[i-1].Close-1)
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sqSum float64
	for _, r := range returns {
		d := r - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / float64(len(returns)-1))

	return std * math.Sqrt(tradingDaysPerYear) * 100
}
