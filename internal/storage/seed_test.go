package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuecompass/compass/internal/contracts"
)

func TestDefaultRulesAreValid(t *testing.T) {
	rules := defaultRules()
	require.Len(t, rules, 3)

	var defaults int
	for _, rule := range rules {
		cfg, err := contracts.ParseRuleConfig(rule.Config)
		require.NoError(t, err, "rule %s", rule.Name)
		assert.NotEmpty(t, cfg.Metrics, "rule %s", rule.Name)
		assert.Nil(t, rule.UserID, "built-in rules are system-owned")
		if rule.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults, "exactly one built-in rule is the default")
}

func TestValueInvestingWeights(t *testing.T) {
	cfg, err := contracts.ParseRuleConfig(defaultRules()[0].Config)
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Metrics["pe_ratio"].Weight)
	assert.Equal(t, 2.0, cfg.Metrics["pb_ratio"].Weight)
	require.NotNil(t, cfg.Metrics["pe_ratio"].IdealRange)
	assert.Equal(t, 5.0, cfg.Metrics["pe_ratio"].IdealRange.Low)
	assert.Equal(t, 15.0, cfg.Metrics["pe_ratio"].IdealRange.High)
}
