package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valuecompass/compass/internal/contracts"
)

// RuleRepository implements contracts.RuleRepository on PostgreSQL. Loaded
// rules come back with ParsedConfig populated.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a rule repository.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, user_id, name, description, config, is_default, created_at, updated_at`

func scanRule(row pgx.Row) (*contracts.ValuationRule, error) {
	var rule contracts.ValuationRule
	err := row.Scan(
		&rule.ID, &rule.UserID, &rule.Name, &rule.Description, &rule.Config,
		&rule.IsDefault, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := contracts.ParseRuleConfig(rule.Config)
	if err != nil {
		return nil, fmt.Errorf("rule %d: %w", rule.ID, err)
	}
	rule.ParsedConfig = parsed
	return &rule, nil
}

// GetByID fetches one rule by primary key.
func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*contracts.ValuationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM valuation_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NotFoundError{Resource: "rule", Key: fmt.Sprint(id)}
	}
	return rule, err
}

// GetDefault fetches the rule flagged as default.
func (r *RuleRepository) GetDefault(ctx context.Context) (*contracts.ValuationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM valuation_rules WHERE is_default ORDER BY id LIMIT 1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NotFoundError{Resource: "default rule"}
	}
	return rule, err
}

// List returns all rules ordered by id.
func (r *RuleRepository) List(ctx context.Context) ([]*contracts.ValuationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM valuation_rules ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*contracts.ValuationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Create inserts a rule and fills in its generated fields. The config is
// validated before it touches the database.
func (r *RuleRepository) Create(ctx context.Context, rule *contracts.ValuationRule) error {
	parsed, err := contracts.ParseRuleConfig(rule.Config)
	if err != nil {
		return err
	}
	rule.ParsedConfig = parsed

	query := `
		INSERT INTO valuation_rules (user_id, name, description, config, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		rule.UserID, rule.Name, rule.Description, rule.Config, rule.IsDefault,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}
