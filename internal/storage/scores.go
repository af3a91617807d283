package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuecompass/compass/internal/contracts"
)

// ScoreRepository implements contracts.ScoreRepository on PostgreSQL. Rows
// are append-only; history is kept for every ticker.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a score repository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Save inserts one score record and fills in its generated fields.
func (r *ScoreRepository) Save(ctx context.Context, record *contracts.ScoreRecord) error {
	query := `
		INSERT INTO valuation_scores (ticker, rule_id, score, components)
		VALUES ($1, $2, $3, $4)
		RETURNING id, scored_at
	`
	return r.pool.QueryRow(ctx, query,
		record.Ticker, record.RuleID, record.Score, record.Components,
	).Scan(&record.ID, &record.ScoredAt)
}

// ListByTicker returns the most recent score records for a ticker, newest
// first. A limit below 1 defaults to 20.
func (r *ScoreRepository) ListByTicker(ctx context.Context, ticker string, limit int) ([]*contracts.ScoreRecord, error) {
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT id, ticker, rule_id, score, components, scored_at
		FROM valuation_scores
		WHERE ticker = $1
		ORDER BY scored_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*contracts.ScoreRecord
	for rows.Next() {
		var rec contracts.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.RuleID, &rec.Score, &rec.Components, &rec.ScoredAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
