package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// StrategySource returns enabled strategies for a business type ordered by
// priority desc, creation asc.
type StrategySource interface {
	FindEnabledByBusinessType(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error)
}

// RuleSource returns the enabled rules of a strategy in evaluation order.
type RuleSource interface {
	FindEnabledByStrategy(ctx context.Context, strategyID uuid.UUID) ([]domain.StrategyRule, error)
}

// Resolver picks the strategy that governs a business type. Only the top
// strategy is active; lower ones are shadowed and never merged.
type Resolver struct {
	strategies StrategySource
	rules      RuleSource
}

func NewResolver(strategies StrategySource, rules RuleSource) *Resolver {
	return &Resolver{
		strategies: strategies,
		rules:      rules,
	}
}

// Resolve returns the active strategy with its enabled rules attached, or nil
// when no enabled strategy exists for businessType.
func (r *Resolver) Resolve(ctx context.Context, businessType string) (*domain.VerificationStrategy, error) {
	all, err := r.ResolveAll(ctx, businessType)
	if err != nil {
		return nil, err
	}

	active := SelectStrategy(all)
	if active == nil {
		return nil, nil
	}

	rules, err := r.rules.FindEnabledByStrategy(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("load rules for strategy %s: %w", active.ID, err)
	}
	domain.SortRules(rules)
	active.Rules = rules

	return active, nil
}

// ResolveAll returns every enabled strategy for businessType in precedence order.
func (r *Resolver) ResolveAll(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error) {
	if businessType == "" {
		return nil, domain.ErrInvalidParameter.WithMessage("business_type is required")
	}

	list, err := r.strategies.FindEnabledByBusinessType(ctx, businessType)
	if err != nil {
		return nil, fmt.Errorf("find strategies for %s: %w", businessType, err)
	}

	enabled := make([]domain.VerificationStrategy, 0, len(list))
	for _, s := range list {
		if s.IsUsable() && s.BusinessType == businessType {
			enabled = append(enabled, s)
		}
	}
	domain.SortStrategies(enabled)

	return enabled, nil
}

// SelectStrategy returns a copy of the highest precedence usable strategy in
// list, or nil when there is none.
func SelectStrategy(list []domain.VerificationStrategy) *domain.VerificationStrategy {
	var best *domain.VerificationStrategy
	for i := range list {
		s := list[i]
		if !s.IsUsable() {
			continue
		}
		if best == nil || s.Priority > best.Priority ||
			(s.Priority == best.Priority && s.CreatedAt.Before(best.CreatedAt)) {
			cp := s
			best = &cp
		}
	}
	return best
}
