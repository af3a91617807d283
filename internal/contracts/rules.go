package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// Score sentinels shared by every metric curve.
const (
	DefaultScore       = 50.0
	NegativeScore      = 10.0
	ZeroDividendScore  = 40.0
	UnsustainableScore = 50.0
)

// Range is an inclusive [Low, High] band encoded on the wire as a two-element
// JSON array.
type Range struct {
	Low  float64
	High float64
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Low, r.High})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("range must have exactly 2 elements, got %d", len(arr))
	}
	r.Low = arr[0]
	r.High = arr[1]
	return nil
}

// MetricConfig is the per-metric block inside a rule's config. Bounds and
// sentinel scores that a given curve does not use are simply nil; nil
// sentinels fall back to the package constants.
type MetricConfig struct {
	Weight        float64  `json:"weight"`
	IdealRange    *Range   `json:"ideal_range,omitempty"`
	MaxPE         *float64 `json:"max_pe,omitempty"`
	MaxPB         *float64 `json:"max_pb,omitempty"`
	MaxYield      *float64 `json:"max_yield,omitempty"`
	MaxRatio      *float64 `json:"max_ratio,omitempty"`
	MaxVolatility *float64 `json:"max_volatility,omitempty"`

	DefaultScore       *float64 `json:"default_score,omitempty"`
	NegativeScore      *float64 `json:"negative_score,omitempty"`
	ZeroScore          *float64 `json:"zero_score,omitempty"`
	UnsustainableScore *float64 `json:"unsustainable_score,omitempty"`
}

// RuleConfig is the parsed body of valuation_rules.config.
type RuleConfig struct {
	Metrics map[string]MetricConfig `json:"metrics"`
}

// ParseRuleConfig decodes and validates a rule config document. A missing or
// empty metrics map, a non-positive weight, or an inverted ideal range is a
// ValidationError. A weight of zero in the stored document defaults to 1.
func ParseRuleConfig(raw []byte) (*RuleConfig, error) {
	var cfg RuleConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid rule config JSON: %v", err)}
	}
	if len(cfg.Metrics) == 0 {
		return nil, &ValidationError{Reason: "rule config has no metrics"}
	}
	for name, mc := range cfg.Metrics {
		if mc.Weight < 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("metric %q has negative weight", name)}
		}
		if mc.Weight == 0 {
			mc.Weight = 1
			cfg.Metrics[name] = mc
		}
		if mc.IdealRange != nil && mc.IdealRange.Low > mc.IdealRange.High {
			return nil, &ValidationError{Reason: fmt.Sprintf("metric %q has inverted ideal_range", name)}
		}
	}
	return &cfg, nil
}

// ValuationRule is a stored scoring rule. Config holds the raw JSON document;
// ParsedConfig is populated by the repository on load.
type ValuationRule struct {
	ID           int64           `json:"id"`
	UserID       *int64          `json:"user_id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Config       json.RawMessage `json:"config"`
	IsDefault    bool            `json:"is_default"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ParsedConfig *RuleConfig     `json:"-"`
}
