package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuecompass/compass/internal/contracts"
)

// AlertRepository implements contracts.AlertRepository on PostgreSQL.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates an alert repository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// GetActiveByTypes returns all active alerts whose type is in types.
func (r *AlertRepository) GetActiveByTypes(ctx context.Context, types []string) ([]*contracts.Alert, error) {
	query := `
		SELECT id, user_id, ticker, alert_type, threshold, params, is_active, last_triggered_at, created_at
		FROM alerts
		WHERE is_active AND alert_type = ANY($1)
		ORDER BY ticker, id
	`
	rows, err := r.pool.Query(ctx, query, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*contracts.Alert
	for rows.Next() {
		var a contracts.Alert
		err := rows.Scan(
			&a.ID, &a.UserID, &a.Ticker, &a.AlertType, &a.Threshold,
			&a.Params, &a.Active, &a.LastTriggeredAt, &a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// MarkTriggered stamps an alert's last_triggered_at.
func (r *AlertRepository) MarkTriggered(ctx context.Context, alertID int64, at time.Time) error {
	query := `UPDATE alerts SET last_triggered_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, alertID, at)
	return err
}

// ActiveTickers returns the distinct tickers with at least one active alert
// of the given types.
func (r *AlertRepository) ActiveTickers(ctx context.Context, types []string) ([]string, error) {
	query := `
		SELECT DISTINCT ticker FROM alerts
		WHERE is_active AND alert_type = ANY($1)
		ORDER BY ticker
	`
	rows, err := r.pool.Query(ctx, query, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
