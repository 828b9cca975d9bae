package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type ProfileStore interface {
	Create(ctx context.Context, p *domain.FaceProfile) error
	FindProfileByUserID(ctx context.Context, userID string) (*domain.FaceProfile, error)
	UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ProfileFinder is the read side of ProfileStore used by the profile gate.
type ProfileFinder interface {
	FindProfileByUserID(ctx context.Context, userID string) (*domain.FaceProfile, error)
}

type StrategyStore interface {
	Create(ctx context.Context, s *domain.VerificationStrategy) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationStrategy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RuleStore interface {
	Create(ctx context.Context, rule *domain.StrategyRule) error
	ListByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error)
}

type OperationStore interface {
	UpsertOperationLog(ctx context.Context, op *domain.OperationLog) error
	GetByOperationID(ctx context.Context, operationID string) (*domain.OperationLog, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.OperationLog, error)
}

type RecordStore interface {
	AppendVerificationRecord(ctx context.Context, v *domain.VerificationRecord) error
	ListByOperation(ctx context.Context, operationID string) ([]domain.VerificationRecord, error)
}
