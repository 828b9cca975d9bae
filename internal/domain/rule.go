package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// StrategyRule is a conditional clause of a strategy. Conditions are matched
// against the operation context; Actions describe what a match contributes.
type StrategyRule struct {
	ID          uuid.UUID              `json:"id"`
	StrategyID  uuid.UUID              `json:"strategy_id"`
	RuleType    RuleType               `json:"rule_type"`
	RuleName    string                 `json:"rule_name"`
	Conditions  map[string]interface{} `json:"conditions"`
	Actions     map[string]interface{} `json:"actions"`
	IsEnabled   bool                   `json:"is_enabled"`
	Priority    int                    `json:"priority"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// IsUsable requires both the rule and its owning strategy to be enabled.
func (r *StrategyRule) IsUsable(strategy *VerificationStrategy) bool {
	return r.IsEnabled && strategy != nil && strategy.IsEnabled
}

func (r *StrategyRule) Condition(key string, def interface{}) interface{} {
	if v, ok := r.Conditions[key]; ok {
		return v
	}
	return def
}

func (r *StrategyRule) Action(key string, def interface{}) interface{} {
	if v, ok := r.Actions[key]; ok {
		return v
	}
	return def
}

func (r *StrategyRule) Validate() error {
	if r.StrategyID == uuid.Nil {
		return ErrInvalidParameter.WithMessage("strategy_id is required")
	}
	if r.RuleName == "" {
		return ErrInvalidParameter.WithMessage("rule_name is required")
	}
	if !r.RuleType.IsValid() {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid rule_type %q", r.RuleType))
	}
	return nil
}

// SortRules orders rules by priority desc, then creation time asc.
func SortRules(rules []StrategyRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}
