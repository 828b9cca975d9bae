package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type RuleRepository struct {
	pool PgxPool
}

func NewRuleRepository(pool PgxPool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

func (r *RuleRepository) Create(ctx context.Context, rule *domain.StrategyRule) error {
	query := `
		INSERT INTO strategy_rules (id, strategy_id, rule_type, rule_name, conditions, actions, is_enabled, priority, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		rule.ID,
		rule.StrategyID,
		rule.RuleType,
		rule.RuleName,
		emptyIfNil(rule.Conditions),
		emptyIfNil(rule.Actions),
		rule.IsEnabled,
		rule.Priority,
		rule.Description,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStrategyNotFound
		}
		return fmt.Errorf("create strategy rule: %w", err)
	}

	return nil
}

// FindEnabledByStrategy returns the enabled rules of an enabled strategy in
// evaluation order. Rules of a disabled strategy are never returned.
func (r *RuleRepository) FindEnabledByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error) {
	query := `
		SELECT r.id, r.strategy_id, r.rule_type, r.rule_name, r.conditions, r.actions, r.is_enabled, r.priority, r.description, r.created_at, r.updated_at
		FROM strategy_rules r
		INNER JOIN verification_strategies s ON s.id = r.strategy_id
		WHERE r.strategy_id = $1 AND r.is_enabled = true AND s.is_enabled = true
		ORDER BY r.priority DESC, r.created_at ASC
	`

	return r.list(ctx, query, strategyID)
}

// ListByStrategy returns every rule of a strategy, enabled or not.
func (r *RuleRepository) ListByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error) {
	query := `
		SELECT id, strategy_id, rule_type, rule_name, conditions, actions, is_enabled, priority, description, created_at, updated_at
		FROM strategy_rules
		WHERE strategy_id = $1
		ORDER BY priority DESC, created_at ASC
	`

	return r.list(ctx, query, strategyID)
}

func (r *RuleRepository) list(ctx context.Context, query string, strategyID uuid.UUID) ([]domain.StrategyRule, error) {
	rows, err := r.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list strategy rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.StrategyRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rules: %w", err)
	}

	return rules, nil
}

func scanRule(row pgx.Row) (domain.StrategyRule, error) {
	var rule domain.StrategyRule
	err := row.Scan(
		&rule.ID,
		&rule.StrategyID,
		&rule.RuleType,
		&rule.RuleName,
		&rule.Conditions,
		&rule.Actions,
		&rule.IsEnabled,
		&rule.Priority,
		&rule.Description,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	return rule, err
}
