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

const profileColumns = `id, user_id, face_features, quality_score, collection_method, device_info, status, expires_time, created_at, updated_at`

type ProfileRepository struct {
	pool PgxPool
}

func NewProfileRepository(pool PgxPool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.FaceProfile) error {
	query := `
		INSERT INTO face_profiles (id, user_id, face_features, quality_score, collection_method, device_info, status, expires_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.UserID,
		p.FaceFeatures,
		p.QualityScore,
		p.CollectionMethod,
		emptyIfNil(p.DeviceInfo),
		p.Status,
		p.ExpiresTime,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFaceAlreadyExists
		}
		return fmt.Errorf("create face profile: %w", err)
	}

	return nil
}

func (r *ProfileRepository) FindProfileByUserID(ctx context.Context, userID string) (*domain.FaceProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM face_profiles WHERE user_id = $1`

	var p domain.FaceProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.FaceFeatures,
		&p.QualityScore,
		&p.CollectionMethod,
		&p.DeviceInfo,
		&p.Status,
		&p.ExpiresTime,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face profile by user_id: %w", err)
	}

	return &p, nil
}

func (r *ProfileRepository) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	query := `UPDATE face_profiles SET status = $2, updated_at = NOW() WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID, status)
	if err != nil {
		return fmt.Errorf("update face profile status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}

// ExpireDue moves active profiles whose expires_time has passed to expired.
func (r *ProfileRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE face_profiles
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND expires_time IS NOT NULL AND expires_time <= $1
	`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire face profiles: %w", err)
	}

	return result.RowsAffected(), nil
}
