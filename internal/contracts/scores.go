package contracts

import "time"

// ScoreComponents maps metric names to their individual curve scores.
type ScoreComponents map[string]float64

// ScoreResult is the outcome of scoring one ticker. On failure Score is 0,
// Components is empty, and Err carries the reason.
type ScoreResult struct {
	Ticker     string          `json:"ticker"`
	Score      float64         `json:"score"`
	Components ScoreComponents `json:"components"`
	RuleID     int64           `json:"rule_id"`
	RuleName   string          `json:"rule_name"`
	Err        string          `json:"error,omitempty"`
}

// Failed reports whether this result represents a scoring failure.
func (r ScoreResult) Failed() bool {
	return r.Err != ""
}

// ScoreRecord is a persisted score row. Records are append-only; repeated
// scores for the same ticker produce new rows.
type ScoreRecord struct {
	ID         int64           `json:"id"`
	Ticker     string          `json:"ticker"`
	RuleID     int64           `json:"rule_id"`
	Score      float64         `json:"score"`
	Components ScoreComponents `json:"components"`
	ScoredAt   time.Time       `json:"scored_at"`
}
