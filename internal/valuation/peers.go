package valuation

import "github.com/valuecompass/compass/internal/contracts"

// Metrics where a lower value ranks better against peers.
var lowerIsBetter = map[string]bool{
	"pe_ratio":       true,
	"pb_ratio":       true,
	"debt_to_equity": true,
}

// ScorePeerComparison scores a metric value as its percentile rank among
// industry peers. Peers with missing or non-positive values are ignored; if
// no eligible peer remains, or the value itself is missing, the score is the
// default.
func ScorePeerComparison(value *float64, metric string, peers contracts.PeerMetrics, cfg contracts.MetricConfig) float64 {
	if value == nil || len(peers) == 0 {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}

	eligible := make([]float64, 0, len(peers))
	for _, v := range peers {
		if v > 0 {
			eligible = append(eligible, v)
		}
	}
	if len(eligible) == 0 {
		return boundOr(cfg.DefaultScore, contracts.DefaultScore)
	}

	var beaten int
	if lowerIsBetter[metric] {
		for _, v := range eligible {
			if v >= *value {
				beaten++
			}
		}
	} else {
		for _, v := range eligible {
			if v <= *value {
				beaten++
			}
		}
	}

	return float64(beaten) / float64(len(eligible)) * 100
}
