package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type VerificationRepository struct {
	pool PgxPool
}

func NewVerificationRepository(pool PgxPool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

// AppendVerificationRecord inserts an immutable verification record.
func (r *VerificationRepository) AppendVerificationRecord(ctx context.Context, v *domain.VerificationRecord) error {
	query := `
		INSERT INTO verification_records (id, user_id, strategy_id, business_type, operation_id, attempt_id, verification_type,
			result, confidence_score, verification_time, client_info, error_code, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		v.ID,
		v.UserID,
		v.StrategyID,
		v.BusinessType,
		v.OperationID,
		v.AttemptID,
		v.VerificationType,
		v.Result,
		v.ConfidenceScore,
		v.VerificationTime,
		emptyIfNil(v.ClientInfo),
		v.ErrorCode,
		v.ErrorMessage,
	).Scan(&v.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStrategyNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrAttemptRecorded
		}
		return fmt.Errorf("create verification record: %w", err)
	}

	return nil
}

func (r *VerificationRepository) ListByOperation(ctx context.Context, operationID string) ([]domain.VerificationRecord, error) {
	query := `
		SELECT id, user_id, strategy_id, business_type, operation_id, attempt_id, verification_type, result,
			confidence_score, verification_time, client_info, error_code, error_message, created_at
		FROM verification_records
		WHERE operation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.VerificationRecord, 0)
	for rows.Next() {
		var v domain.VerificationRecord
		if err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.StrategyID,
			&v.BusinessType,
			&v.OperationID,
			&v.AttemptID,
			&v.VerificationType,
			&v.Result,
			&v.ConfidenceScore,
			&v.VerificationTime,
			&v.ClientInfo,
			&v.ErrorCode,
			&v.ErrorMessage,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		records = append(records, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}

	return records, nil
}
