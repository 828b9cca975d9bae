package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

const operationColumns = `id, user_id, operation_id, operation_type, strategy_id, business_context,
	verification_required, verification_completed, verification_count, min_verification_count,
	min_confidence, max_attempts, attempt_ids, status, failure_reason, started_time, completed_time, version, updated_at`

type OperationRepository struct {
	pool PgxPool
}

func NewOperationRepository(pool PgxPool) *OperationRepository {
	return &OperationRepository{pool: pool}
}

// UpsertOperationLog inserts a new log when Version is zero and otherwise
// updates it only if the stored version still equals op.Version. A lost race
// returns ErrConcurrentUpdate. On success op.Version holds the stored version.
func (r *OperationRepository) UpsertOperationLog(ctx context.Context, op *domain.OperationLog) error {
	if op.Version == 0 {
		return r.insert(ctx, op)
	}
	return r.update(ctx, op)
}

func (r *OperationRepository) insert(ctx context.Context, op *domain.OperationLog) error {
	query := `
		INSERT INTO operation_logs (id, user_id, operation_id, operation_type, strategy_id, business_context,
			verification_required, verification_completed, verification_count, min_verification_count,
			min_confidence, max_attempts, attempt_ids, status, failure_reason, started_time, completed_time, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, NOW())
		RETURNING version, updated_at
	`

	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		op.ID,
		op.UserID,
		op.OperationID,
		op.OperationType,
		op.StrategyID,
		emptyIfNil(op.BusinessContext),
		op.VerificationRequired,
		op.VerificationCompleted,
		op.VerificationCount,
		op.MinVerificationCount,
		op.MinConfidence,
		op.MaxAttempts,
		emptyIfNilStrings(op.AttemptIDs),
		op.Status,
		op.FailureReason,
		op.StartedTime,
		op.CompletedTime,
	).Scan(&op.Version, &op.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOperationExists
		}
		return fmt.Errorf("create operation log: %w", err)
	}

	return nil
}

func (r *OperationRepository) update(ctx context.Context, op *domain.OperationLog) error {
	query := `
		UPDATE operation_logs
		SET verification_required = $3,
			verification_completed = $4,
			verification_count = $5,
			min_verification_count = $6,
			min_confidence = $7,
			max_attempts = $8,
			attempt_ids = $9,
			status = $10,
			failure_reason = $11,
			completed_time = $12,
			version = version + 1,
			updated_at = NOW()
		WHERE operation_id = $1 AND version = $2
		RETURNING version, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		op.OperationID,
		op.Version,
		op.VerificationRequired,
		op.VerificationCompleted,
		op.VerificationCount,
		op.MinVerificationCount,
		op.MinConfidence,
		op.MaxAttempts,
		emptyIfNilStrings(op.AttemptIDs),
		op.Status,
		op.FailureReason,
		op.CompletedTime,
	).Scan(&op.Version, &op.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("update operation log: %w", err)
	}

	return nil
}

func (r *OperationRepository) GetByOperationID(ctx context.Context, operationID string) (*domain.OperationLog, error) {
	query := `SELECT ` + operationColumns + ` FROM operation_logs WHERE operation_id = $1`

	op, err := scanOperation(r.pool.QueryRow(ctx, query, operationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operation log: %w", err)
	}

	return op, nil
}

// ListStale returns open operations started before cutoff, oldest first.
func (r *OperationRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.OperationLog, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operation_logs
		WHERE status IN ('pending', 'processing') AND started_time < $1
		ORDER BY started_time ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale operations: %w", err)
	}
	defer rows.Close()

	ops := make([]domain.OperationLog, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation log: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation logs: %w", err)
	}

	return ops, nil
}

func scanOperation(row pgx.Row) (*domain.OperationLog, error) {
	var op domain.OperationLog
	err := row.Scan(
		&op.ID,
		&op.UserID,
		&op.OperationID,
		&op.OperationType,
		&op.StrategyID,
		&op.BusinessContext,
		&op.VerificationRequired,
		&op.VerificationCompleted,
		&op.VerificationCount,
		&op.MinVerificationCount,
		&op.MinConfidence,
		&op.MaxAttempts,
		&op.AttemptIDs,
		&op.Status,
		&op.FailureReason,
		&op.StartedTime,
		&op.CompletedTime,
		&op.Version,
		&op.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
