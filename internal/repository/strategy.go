package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

const strategyColumns = `id, name, business_type, description, is_enabled, priority, config, created_at, updated_at`

type StrategyRepository struct {
	pool PgxPool
}

func NewStrategyRepository(pool PgxPool) *StrategyRepository {
	return &StrategyRepository{pool: pool}
}

func (r *StrategyRepository) Create(ctx context.Context, s *domain.VerificationStrategy) error {
	query := `
		INSERT INTO verification_strategies (id, name, business_type, description, is_enabled, priority, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		s.ID,
		s.Name,
		s.BusinessType,
		s.Description,
		s.IsEnabled,
		s.Priority,
		emptyIfNil(s.Config),
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStrategyExists
		}
		return fmt.Errorf("create strategy: %w", err)
	}

	return nil
}

func (r *StrategyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM verification_strategies WHERE id = $1`

	s, err := scanStrategy(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStrategyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}

	return s, nil
}

// FindEnabledByBusinessType returns enabled strategies ordered by priority
// desc, then creation asc.
func (r *StrategyRepository) FindEnabledByBusinessType(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error) {
	query := `
		SELECT ` + strategyColumns + `
		FROM verification_strategies
		WHERE business_type = $1 AND is_enabled = true
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, businessType)
	if err != nil {
		return nil, fmt.Errorf("find strategies by business_type: %w", err)
	}
	defer rows.Close()

	strategies := make([]domain.VerificationStrategy, 0)
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		strategies = append(strategies, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategies: %w", err)
	}

	return strategies, nil
}

// Delete removes a strategy and its rules in one transaction. Strategies
// still referenced by verification records are kept and ErrStrategyInUse is
// returned.
func (r *StrategyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete strategy: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inUse bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM verification_records WHERE strategy_id = $1)`, id).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check strategy references: %w", err)
	}
	if inUse {
		return domain.ErrStrategyInUse
	}

	if _, err := tx.Exec(ctx, `DELETE FROM strategy_rules WHERE strategy_id = $1`, id); err != nil {
		return fmt.Errorf("delete strategy rules: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM verification_strategies WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStrategyInUse
		}
		return fmt.Errorf("delete strategy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrStrategyNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete strategy: %w", err)
	}

	return nil
}

func scanStrategy(row pgx.Row) (*domain.VerificationStrategy, error) {
	var s domain.VerificationStrategy
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.BusinessType,
		&s.Description,
		&s.IsEnabled,
		&s.Priority,
		&s.Config,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
