package storage

import (
	"context"
	"encoding/json"

	"github.com/valuecompass/compass/internal/contracts"
)

// SeedRules inserts the built-in scoring rules. It is a no-op when any rule
// already exists. Returns the number of rules inserted.
func SeedRules(ctx context.Context, rules *RuleRepository) (int, error) {
	existing, err := rules.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, rule := range defaultRules() {
		if err := rules.Create(ctx, rule); err != nil {
			return 0, err
		}
	}
	return len(defaultRules()), nil
}

func defaultRules() []*contracts.ValuationRule {
	return []*contracts.ValuationRule{
		{
			Name:        "Value Investing",
			Description: "Classic value investing metrics focused on finding undervalued stocks",
			IsDefault:   true,
			Config: json.RawMessage(`{
				"metrics": {
					"pe_ratio": {"weight": 3, "ideal_range": [5, 15], "max_pe": 40},
					"pb_ratio": {"weight": 2, "ideal_range": [0.5, 2.0], "max_pb": 7},
					"dividend_yield": {"weight": 1, "ideal_range": [2.0, 6.0], "max_yield": 15.0},
					"debt_to_equity": {"weight": 1, "ideal_range": [0, 1.0], "max_ratio": 2.0},
					"profit_margin": {"weight": 1, "ideal_range": [10.0, 25.0]}
				}
			}`),
		},
		{
			Name:        "Growth Investing",
			Description: "Growth-oriented metrics focused on companies with high growth potential",
			Config: json.RawMessage(`{
				"metrics": {
					"pe_ratio": {"weight": 1, "ideal_range": [15, 35], "max_pe": 80},
					"roe": {"weight": 3, "ideal_range": [15.0, 30.0]},
					"profit_margin": {"weight": 2, "ideal_range": [8.0, 20.0]},
					"historical_volatility": {"weight": 1, "ideal_range": [15.0, 30.0], "max_volatility": 50.0}
				}
			}`),
		},
		{
			Name:        "Income Investing",
			Description: "Focused on dividends and stable income generation",
			Config: json.RawMessage(`{
				"metrics": {
					"dividend_yield": {"weight": 4, "ideal_range": [3.0, 8.0], "max_yield": 15.0},
					"debt_to_equity": {"weight": 2, "ideal_range": [0, 1.0], "max_ratio": 2.0},
					"historical_volatility": {"weight": 2, "ideal_range": [5.0, 20.0], "max_volatility": 40.0},
					"pe_ratio": {"weight": 1, "ideal_range": [8, 20], "max_pe": 40}
				}
			}`),
		},
	}
}
