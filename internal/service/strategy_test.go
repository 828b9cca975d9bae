package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
)

func newStrategyService() (*StrategyService, *MockStrategyStore, *MockRuleStore, *recordingAudit) {
	strategies := new(MockStrategyStore)
	rules := new(MockRuleStore)
	rec := &recordingAudit{}
	svc := NewStrategyService(strategies, rules, policy.NewResolver(strategies, rules)).WithAudit(rec)
	return svc, strategies, rules, rec
}

func TestStrategyService_Create(t *testing.T) {
	t.Run("valid strategy", func(t *testing.T) {
		svc, strategies, _, rec := newStrategyService()
		strategies.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), &domain.VerificationStrategy{Name: "pay", BusinessType: "payment", IsEnabled: true})

		require.NoError(t, err)
		require.Len(t, rec.events, 1)
		assert.Equal(t, audit.EventStrategyCreated, rec.events[0].EventType)
	})

	t.Run("name taken", func(t *testing.T) {
		svc, strategies, _, _ := newStrategyService()
		strategies.On("Create", mock.Anything, mock.Anything).Return(domain.ErrStrategyExists)

		_, err := svc.Create(context.Background(), &domain.VerificationStrategy{Name: "pay", BusinessType: "payment"})

		assert.ErrorIs(t, err, domain.ErrStrategyExists)
	})

	t.Run("missing business type", func(t *testing.T) {
		svc, strategies, _, _ := newStrategyService()

		_, err := svc.Create(context.Background(), &domain.VerificationStrategy{Name: "pay"})

		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		strategies.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestStrategyService_Get(t *testing.T) {
	svc, strategies, rules, _ := newStrategyService()
	id := uuid.New()
	strategies.On("GetByID", mock.Anything, id).Return(&domain.VerificationStrategy{ID: id, Name: "pay"}, nil)
	rules.On("ListByStrategy", mock.Anything, id).Return([]domain.StrategyRule{
		{StrategyID: id, RuleName: "on", IsEnabled: true},
		{StrategyID: id, RuleName: "off", IsEnabled: false},
	}, nil)

	got, err := svc.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Len(t, got.Rules, 2)
}

func TestStrategyService_Delete(t *testing.T) {
	svc, strategies, _, rec := newStrategyService()
	inUse, free := uuid.New(), uuid.New()
	strategies.On("Delete", mock.Anything, inUse).Return(domain.ErrStrategyInUse)
	strategies.On("Delete", mock.Anything, free).Return(nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), inUse), domain.ErrStrategyInUse)
	assert.Empty(t, rec.events)

	require.NoError(t, svc.Delete(context.Background(), free))
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventStrategyDeleted, rec.events[0].EventType)
}

func TestStrategyService_AddRule(t *testing.T) {
	t.Run("fills empty condition and action maps", func(t *testing.T) {
		svc, _, rules, _ := newStrategyService()
		rules.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.StrategyRule) bool {
			return r.Conditions != nil && r.Actions != nil
		})).Return(nil)

		_, err := svc.AddRule(context.Background(), &domain.StrategyRule{
			StrategyID: uuid.New(), RuleType: domain.RuleTypeRisk, RuleName: "risky",
		})

		require.NoError(t, err)
		rules.AssertExpectations(t)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		svc, _, rules, _ := newStrategyService()
		rules.On("Create", mock.Anything, mock.Anything).Return(domain.ErrStrategyNotFound)

		_, err := svc.AddRule(context.Background(), &domain.StrategyRule{
			StrategyID: uuid.New(), RuleType: domain.RuleTypeAmount, RuleName: "big",
		})

		assert.ErrorIs(t, err, domain.ErrStrategyNotFound)
	})

	t.Run("unknown rule type", func(t *testing.T) {
		svc, _, _, _ := newStrategyService()

		_, err := svc.AddRule(context.Background(), &domain.StrategyRule{
			StrategyID: uuid.New(), RuleType: "weather", RuleName: "rain",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestStrategyService_ListByBusinessType(t *testing.T) {
	svc, strategies, _, _ := newStrategyService()
	strategies.On("FindEnabledByBusinessType", mock.Anything, "payment").Return([]domain.VerificationStrategy{
		{Name: "low", BusinessType: "payment", IsEnabled: true, Priority: 1},
		{Name: "high", BusinessType: "payment", IsEnabled: true, Priority: 9},
	}, nil)

	got, err := svc.ListByBusinessType(context.Background(), "payment")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Name)
}
