package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// VerificationStrategy is a named, prioritized policy for one business type.
// It owns its rules; deleting a strategy deletes them.
type VerificationStrategy struct {
	ID           uuid.UUID              `json:"id"`
	Name         string                 `json:"name"`
	BusinessType string                 `json:"business_type"`
	Description  string                 `json:"description,omitempty"`
	IsEnabled    bool                   `json:"is_enabled"`
	Priority     int                    `json:"priority"`
	Config       map[string]interface{} `json:"config,omitempty"`
	Rules        []StrategyRule         `json:"rules,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func (s *VerificationStrategy) IsUsable() bool {
	return s.IsEnabled
}

// ConfigValue returns the configured value for key, or def when absent.
func (s *VerificationStrategy) ConfigValue(key string, def interface{}) interface{} {
	if s.Config == nil {
		return def
	}
	if v, ok := s.Config[key]; ok {
		return v
	}
	return def
}

func (s *VerificationStrategy) SetConfigValue(key string, value interface{}) {
	if s.Config == nil {
		s.Config = make(map[string]interface{})
	}
	s.Config[key] = value
}

// EnabledRules returns the usable rules, highest priority first and oldest
// first among equal priorities. A disabled strategy has no usable rules.
func (s *VerificationStrategy) EnabledRules() []StrategyRule {
	if !s.IsUsable() {
		return nil
	}
	rules := make([]StrategyRule, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.IsEnabled {
			rules = append(rules, r)
		}
	}
	SortRules(rules)
	return rules
}

func (s *VerificationStrategy) Validate() error {
	if s.Name == "" {
		return ErrInvalidParameter.WithMessage("name is required")
	}
	if s.BusinessType == "" {
		return ErrInvalidParameter.WithMessage("business_type is required")
	}
	return nil
}

// SortStrategies orders strategies by priority desc, then creation time asc.
func SortStrategies(strategies []VerificationStrategy) {
	sort.SliceStable(strategies, func(i, j int) bool {
		if strategies[i].Priority != strategies[j].Priority {
			return strategies[i].Priority > strategies[j].Priority
		}
		return strategies[i].CreatedAt.Before(strategies[j].CreatedAt)
	})
}
