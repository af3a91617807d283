package contracts

import (
	"context"
	"time"
)

// RuleRepository persists valuation rules.
type RuleRepository interface {
	GetByID(ctx context.Context, id int64) (*ValuationRule, error)
	GetDefault(ctx context.Context) (*ValuationRule, error)
	List(ctx context.Context) ([]*ValuationRule, error)
	Create(ctx context.Context, rule *ValuationRule) error
}

// ScoreRepository persists score records.
type ScoreRepository interface {
	Save(ctx context.Context, record *ScoreRecord) error
	ListByTicker(ctx context.Context, ticker string, limit int) ([]*ScoreRecord, error)
}

// AlertRepository persists alert conditions.
type AlertRepository interface {
	GetActiveByTypes(ctx context.Context, types []string) ([]*Alert, error)
	MarkTriggered(ctx context.Context, alertID int64, at time.Time) error
	ActiveTickers(ctx context.Context, types []string) ([]string, error)
}

// NotificationRepository persists notification log entries.
type NotificationRepository interface {
	Save(ctx context.Context, entry *NotificationLogEntry) error
}
