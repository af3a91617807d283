package contracts

import "time"

// Alert types.
const (
	AlertTypePrice            = "price"
	AlertTypePercentageChange = "percentage_change"
	AlertTypeValuationScore   = "valuation_score"
)

// Alert directions.
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
	DirectionUp    = "up"
	DirectionDown  = "down"
)

// Notification constants.
const (
	NotificationChannelEmail  = "email"
	NotificationStatusPending = "pending"
)

// AlertParams carries the type-specific parameters of an alert.
type AlertParams struct {
	Direction string `json:"direction,omitempty"`
	RuleID    *int64 `json:"rule_id,omitempty"`
}

// Alert is a stored alert condition.
type Alert struct {
	ID              int64       `json:"id"`
	UserID          *int64      `json:"user_id,omitempty"`
	Ticker          string      `json:"ticker"`
	AlertType       string      `json:"alert_type"`
	Threshold       float64     `json:"threshold"`
	Params          AlertParams `json:"params"`
	Active          bool        `json:"active"`
	LastTriggeredAt *time.Time  `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// TriggerEvent describes an alert that fired during an evaluation pass.
type TriggerEvent struct {
	AlertID     int64     `json:"alert_id"`
	Ticker      string    `json:"ticker"`
	AlertType   string    `json:"alert_type"`
	Threshold   float64   `json:"threshold"`
	Observed    float64   `json:"observed"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// NotificationLogEntry is a persisted record of a trigger notification.
type NotificationLogEntry struct {
	ID        int64     `json:"id"`
	AlertID   int64     `json:"alert_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
