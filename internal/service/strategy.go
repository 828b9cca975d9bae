package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
)

type StrategyService struct {
	strategies StrategyStore
	rules      RuleStore
	resolver   *policy.Resolver
	audit      audit.Logger
	logger     *slog.Logger
}

func NewStrategyService(strategies StrategyStore, rules RuleStore, resolver *policy.Resolver) *StrategyService {
	return &StrategyService{
		strategies: strategies,
		rules:      rules,
		resolver:   resolver,
		audit:      &audit.NoOpLogger{},
		logger:     slog.Default(),
	}
}

func (s *StrategyService) WithAudit(l audit.Logger) *StrategyService {
	s.audit = l
	return s
}

func (s *StrategyService) WithLogger(l *slog.Logger) *StrategyService {
	s.logger = l.With("component", "strategy_service")
	return s
}

func (s *StrategyService) Create(ctx context.Context, st *domain.VerificationStrategy) (*domain.VerificationStrategy, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := s.strategies.Create(ctx, st); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{EventType: audit.EventStrategyCreated, BusinessType: st.BusinessType, StrategyID: &st.ID, Success: true})
	return st, nil
}

// Get returns the strategy with all its rules, enabled or not.
func (s *StrategyService) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationStrategy, error) {
	st, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.ListByStrategy(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Rules = rules
	return st, nil
}

// Delete removes the strategy and its rules. Strategies referenced by
// verification records are kept and ErrStrategyInUse is returned.
func (s *StrategyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.strategies.Delete(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, audit.Event{EventType: audit.EventStrategyDeleted, StrategyID: &id, Success: true})
	return nil
}

func (s *StrategyService) AddRule(ctx context.Context, rule *domain.StrategyRule) (*domain.StrategyRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if rule.Conditions == nil {
		rule.Conditions = map[string]interface{}{}
	}
	if rule.Actions == nil {
		rule.Actions = map[string]interface{}{}
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		EventType:  audit.EventRuleCreated,
		StrategyID: &rule.StrategyID,
		Success:    true,
		Metadata:   map[string]string{"rule_type": string(rule.RuleType), "rule_name": rule.RuleName},
	})
	return rule, nil
}

// ListByBusinessType returns the enabled strategies of businessType in precedence order.
func (s *StrategyService) ListByBusinessType(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error) {
	return s.resolver.ResolveAll(ctx, businessType)
}

func (s *StrategyService) logAudit(ctx context.Context, e audit.Event) {
	e.ID = uuid.New()
	e.Timestamp = time.Now()
	if err := s.audit.Log(ctx, e); err != nil {
		s.logger.Warn("audit log failed", "event", e.EventType, "error", err)
	}
}
