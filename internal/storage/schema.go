// Package storage holds the PostgreSQL repositories for rules, scores,
// alerts, and notification logs.
package storage

import (
	"context"
	"fmt"

	"github.com/valuecompass/compass/pkg/database"
)

const schema = `
-- user_id is NULL for system-owned rows on every table that carries it.
CREATE TABLE IF NOT EXISTS valuation_rules (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT,
	name TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	config JSONB NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS valuation_scores (
	id BIGSERIAL PRIMARY KEY,
	ticker TEXT NOT NULL,
	rule_id BIGINT NOT NULL REFERENCES valuation_rules(id),
	score DOUBLE PRECISION NOT NULL,
	components JSONB NOT NULL DEFAULT '{}',
	scored_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_valuation_scores_ticker
	ON valuation_scores (ticker, scored_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT,
	ticker TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	threshold DOUBLE PRECISION NOT NULL,
	params JSONB NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	last_triggered_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_alerts_active_type
	ON alerts (alert_type) WHERE is_active;

CREATE TABLE IF NOT EXISTS notification_logs (
	id BIGSERIAL PRIMARY KEY,
	alert_id BIGINT NOT NULL REFERENCES alerts(id),
	user_id BIGINT,
	channel TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates all tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
