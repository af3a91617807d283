package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuecompass/compass/internal/contracts"
)

// NotificationRepository implements contracts.NotificationRepository on
// PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a notification log repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Save inserts one notification log entry and fills in its generated fields.
func (r *NotificationRepository) Save(ctx context.Context, entry *contracts.NotificationLogEntry) error {
	query := `
		INSERT INTO notification_logs (alert_id, user_id, channel, status, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.AlertID, entry.UserID, entry.Channel, entry.Status, entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
}
