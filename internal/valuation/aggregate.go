package valuation

import "github.com/valuecompass/compass/internal/contracts"

// Aggregate combines per-metric scores into one weighted average. Metrics
// present in the config but absent from components contribute nothing. A
// total weight of zero is a ValidationError.
func Aggregate(components contracts.ScoreComponents, cfg *contracts.RuleConfig) (float64, error) {
	var totalWeight float64
	for _, mc := range cfg.Metrics {
		totalWeight += mc.Weight
	}
	if totalWeight == 0 {
		return 0, &contracts.ValidationError{Reason: "total metric weight is zero"}
	}

	var overall float64
	for name, mc := range cfg.Metrics {
		score, ok := components[name]
		if !ok {
			continue
		}
		overall += score * (mc.Weight / totalWeight)
	}
	return overall, nil
}
