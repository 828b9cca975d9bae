package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, p *domain.FaceProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileStore) FindProfileByUserID(ctx context.Context, userID string) (*domain.FaceProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceProfile), args.Error(1)
}

func (m *MockProfileStore) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockProfileStore) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockStrategyStore struct {
	mock.Mock
}

func (m *MockStrategyStore) Create(ctx context.Context, s *domain.VerificationStrategy) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStrategyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationStrategy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationStrategy), args.Error(1)
}

func (m *MockStrategyStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStrategyStore) FindEnabledByBusinessType(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error) {
	args := m.Called(ctx, businessType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VerificationStrategy), args.Error(1)
}

type MockRuleStore struct {
	mock.Mock
}

func (m *MockRuleStore) Create(ctx context.Context, rule *domain.StrategyRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleStore) ListByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error) {
	args := m.Called(ctx, strategyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StrategyRule), args.Error(1)
}

func (m *MockRuleStore) FindEnabledByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error) {
	args := m.Called(ctx, strategyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StrategyRule), args.Error(1)
}

type MockOperationStore struct {
	mock.Mock
}

func (m *MockOperationStore) UpsertOperationLog(ctx context.Context, op *domain.OperationLog) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockOperationStore) GetByOperationID(ctx context.Context, operationID string) (*domain.OperationLog, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperationLog), args.Error(1)
}

func (m *MockOperationStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.OperationLog, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OperationLog), args.Error(1)
}

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) AppendVerificationRecord(ctx context.Context, v *domain.VerificationRecord) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockRecordStore) ListByOperation(ctx context.Context, operationID string) ([]domain.VerificationRecord, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VerificationRecord), args.Error(1)
}

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Record(ctx context.Context, userID, businessType string, at time.Time) error {
	args := m.Called(ctx, userID, businessType, at)
	return args.Error(0)
}

func (m *MockCounter) Count(ctx context.Context, userID, businessType string, window time.Duration, now time.Time) (int, error) {
	args := m.Called(ctx, userID, businessType, window, now)
	return args.Int(0), args.Error(1)
}

// memCounter keeps attempts in memory and counts them like the stored counters.
type memCounter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newMemCounter() *memCounter {
	return &memCounter{attempts: make(map[string][]time.Time)}
}

func (c *memCounter) Record(_ context.Context, userID, businessType string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + ":" + businessType
	c.attempts[key] = append(c.attempts[key], at)
	return nil
}

func (c *memCounter) Count(_ context.Context, userID, businessType string, window time.Duration, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, at := range c.attempts[userID+":"+businessType] {
		if !at.Before(now.Add(-window)) {
			n++
		}
	}
	return n, nil
}
