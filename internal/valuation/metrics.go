// Package valuation implements metric scoring curves and weighted score
// aggregation for financial instruments. Every curve maps an optional raw
// metric value plus its rule configuration onto a 0-100 score.
package valuation

import (
	"math"

	"github.com/valuecompass/compass/internal/contracts"
)

// Fallback bounds used when a rule config omits them.
const (
	defaultMaxPE         = 50.0
	defaultMaxPB         = 10.0
	defaultMaxYield      = 15.0
	defaultMaxDebtRatio  = 3.0
	defaultMaxVolatility = 50.0
)

func defaultRange(cfg contracts.MetricConfig, low, high float64) (float64, float64) {
	if cfg.IdealRange != nil {
		return cfg.IdealRange.Low, cfg.IdealRange.High
	}
	return low, high
}

func boundOr(b *float64, fallback float64) float64 {
	if b != nil {
		return *b
	}
	return fallback
}

// ScorePERatio scores a price-to-earnings ratio. Lower is better. Values at
// or below zero mean negative or missing earnings and score the default.
func ScorePERatio(pe *float64, cfg contracts.MetricConfig) float64 {
	if pe == nil || *pe <= 0 {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *pe
	low, high := defaultRange(cfg, 5, 15)
	maxPE := boundOr(cfg.MaxPE, defaultMaxPE)

	switch {
	case val < low:
		// Cheap relative to earnings, possibly a value trap.
		return math.Min(80+(low-val)*2, 100)
	case val <= high:
		position := (high - val) / (high - low)
		return 70 + position*30
	default:
		return math.Max(70*(maxPE-val)/(maxPE-high), 0)
	}
}

// ScorePBRatio scores a price-to-book ratio. Lower is better.
func ScorePBRatio(pb *float64, cfg contracts.MetricConfig) float64 {
	if pb == nil || *pb <= 0 {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *pb
	low, high := defaultRange(cfg, 0.5, 2.0)
	maxPB := boundOr(cfg.MaxPB, defaultMaxPB)

	switch {
	case val < low:
		return math.Min(80+(low-val)*10, 100)
	case val <= high:
		position := (high - val) / (high - low)
		return 70 + position*30
	default:
		return math.Max(70*(maxPB-val)/(maxPB-high), 0)
	}
}

// ScoreDividendYield scores an annual dividend yield expressed in percent.
// Fractional inputs below 0.01 are treated as decimals and rescaled. Yields
// past the sustainability ceiling score a flat penalty.
func ScoreDividendYield(yield *float64, cfg contracts.MetricConfig) float64 {
	if yield == nil {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *yield
	if val > 0 && val < 0.01 {
		val *= 100
	}
	low, high := defaultRange(cfg, 2.0, 6.0)
	maxYield := boundOr(cfg.MaxYield, defaultMaxYield)

	switch {
	case val <= 0:
		return boundOr(cfg.ZeroScore, contracts.ZeroDividendScore)
	case val < low:
		position := val / low
		return 40 + position*30
	case val <= high:
		position := (val - low) / (high - low)
		return 70 + position*20
	case val <= maxYield:
		position := 1 - (val-high)/(maxYield-high)
		return 70 + position*20
	default:
		return boundOr(cfg.UnsustainableScore, contracts.UnsustainableScore)
	}
}

// ScoreDebtToEquity scores a debt-to-equity ratio. Lower is better; negative
// values indicate negative equity and score harshly.
func ScoreDebtToEquity(ratio *float64, cfg contracts.MetricConfig) float64 {
	if ratio == nil {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *ratio
	low, high := defaultRange(cfg, 0, 1.0)
	maxRatio := boundOr(cfg.MaxRatio, defaultMaxDebtRatio)

	switch {
	case val < 0:
		return boundOr(cfg.NegativeScore, contracts.NegativeScore)
	case val <= low:
		return 100
	case val <= high:
		position := (high - val) / (high - low)
		return 80 + position*20
	case val <= maxRatio:
		position := (maxRatio - val) / (maxRatio - high)
		return 40 + position*40
	default:
		return math.Max(0, 40-(val-maxRatio)*10)
	}
}

// ScoreProfitMargin scores a net profit margin in percent. Fractional inputs
// below 0.01 are rescaled. Margins above the ideal band saturate at 100.
func ScoreProfitMargin(margin *float64, cfg contracts.MetricConfig) float64 {
	if margin == nil {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *margin
	if val > 0 && val < 0.01 {
		val *= 100
	}
	low, high := defaultRange(cfg, 10.0, 25.0)

	switch {
	case val < 0:
		return math.Max(0, 40+val)
	case val < low:
		position := val / low
		return 40 + position*40
	case val <= high:
		position := (val - low) / (high - low)
		return 80 + position*20
	default:
		extra := math.Min(25, val-high)
		return math.Min(100, 100+extra*0.4)
	}
}

// ScoreROE scores return on equity in percent. Fractional inputs below 0.01
// are rescaled. Values above the ideal band saturate at 100.
func ScoreROE(roe *float64, cfg contracts.MetricConfig) float64 {
	if roe == nil {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}
	val := *roe
	if val > 0 && val < 0.01 {
		val *= 100
	}
	low, high := defaultRange(cfg, 10.0, 20.0)

	switch {
	case val < 0:
		return math.Max(0, 40+val)
	case val < low:
		position := val / low
		return 40 + position*40
	case val <= high:
		position := (val - low) / (high - low)
		return 80 + position*20
	default:
		extra := math.Min(20, val-high)
		return math.Min(100, 100+extra*0.5)
	}
}
